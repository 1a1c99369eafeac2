// Package session orchestrates conversation turn-taking: it sends user
// input to the assistant, routes the reply through the classifier and
// parser, reconciles any attached preference snapshot, and exposes the
// ordered message log to the presentation layer.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vietvo371/wopai-assistant/internal/backend"
	"github.com/vietvo371/wopai-assistant/internal/classifier"
	"github.com/vietvo371/wopai-assistant/internal/models"
	"github.com/vietvo371/wopai-assistant/internal/notify"
	"github.com/vietvo371/wopai-assistant/internal/parser"
	"github.com/vietvo371/wopai-assistant/internal/preferences"
	"github.com/vietvo371/wopai-assistant/internal/storage"
)

const (
	keyMessages = "chatMessages"
	keyMode     = "chatMode"
)

// ErrBusy is returned by Send while a completion call is in flight.
// Only one outstanding turn is permitted; the caller should keep its
// input disabled and retry after the current turn settles.
var ErrBusy = errors.New("session: completion already in flight")

const (
	catalogModeNotice = "Bạn đã chuyển sang chế độ trợ lý phim. Tôi có thể giúp bạn tìm kiếm và đề xuất phim."
	billingModeNotice = "Bạn đã chuyển sang chế độ trợ lý VIP. Tôi có thể tư vấn về các gói dịch vụ và thanh toán."
)

// Session owns one conversation: the append-only turn log, the current
// mode, and the per-turn cache of parsed movie records. Parsed movies
// are cached at receive time and recomputed lazily after a log reload,
// so a historical turn is never re-classified within a session.
type Session struct {
	mu       sync.Mutex
	turns    []models.ChatTurn
	movies   map[string][]models.ExtractedMovie
	mode     models.Mode
	awaiting bool

	assistant backend.Assistant
	prefs     *preferences.Store
	local     storage.Store
	notifier  notify.Notifier
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

func New(assistant backend.Assistant, prefs *preferences.Store, local storage.Store, notifier notify.Notifier, logger *zap.Logger) *Session {
	return &Session{
		movies:    make(map[string][]models.ExtractedMovie),
		mode:      models.ModeCatalog,
		assistant: assistant,
		prefs:     prefs,
		local:     local,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// Load restores the persisted turn log and mode. Missing or corrupt
// entries are ignored and the session starts fresh.
func (s *Session) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, err := s.local.Get(ctx, keyMessages); err == nil {
		var turns []models.ChatTurn
		if err := json.Unmarshal([]byte(raw), &turns); err == nil {
			s.turns = turns
		} else {
			s.logger.Warn("Discarding corrupt chat log", zap.Error(err))
		}
	}

	if raw, err := s.local.Get(ctx, keyMode); err == nil {
		switch models.Mode(raw) {
		case models.ModeCatalog, models.ModeBilling:
			s.mode = models.Mode(raw)
		}
	}

	s.prefs.Load(ctx)
}

// Send runs one conversation turn: append the user's message, call the
// assistant, interpret the reply. While a call is in flight further
// sends return ErrBusy. On failure the user's turn stands unanswered
// and the session returns to idle; nothing is retried automatically.
func (s *Session) Send(ctx context.Context, text string) (*models.ChatTurn, error) {
	if text == "" {
		return nil, nil
	}

	s.mu.Lock()
	if s.awaiting {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.awaiting = true
	mode := s.mode
	s.appendLocked(models.ChatTurn{
		ID:        s.newID(),
		Sender:    models.SenderUser,
		Text:      text,
		Timestamp: s.now().Format("15:04"),
	})
	s.mu.Unlock()

	resp, err := s.assistant.Chat(ctx, backend.ChatRequest{Message: text, Mode: mode})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.awaiting = false

	if err != nil {
		s.logger.Error("Completion call failed", zap.Error(err))
		s.notifier.Error("Error", "Failed to send message")
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	turn := models.ChatTurn{
		ID:        s.newID(),
		Sender:    models.SenderAssistant,
		Text:      resp.Response,
		Timestamp: s.now().Format("15:04"),
	}

	cls := classifier.Classify(resp.Response)
	if cls.IsRecommendation {
		turn.IsStructured = true
		s.movies[turn.ID] = parser.Parse(resp.Response)
	}
	s.appendLocked(turn)

	if resp.Preferences != nil {
		s.prefs.ApplyRemoteSnapshot(*resp.Preferences)
	}

	return &turn, nil
}

// Interpret classifies a turn's text for rendering: headline, lead and
// whether it should show as a recommendation block.
func (s *Session) Interpret(turn models.ChatTurn) classifier.Classification {
	return classifier.Classify(turn.Text)
}

// MoviesFor returns the parsed movie records of a structured turn, in
// backend ranking order. After a log reload the records are recomputed
// by re-parsing the stored text on first access.
func (s *Session) MoviesFor(turnID string) []models.ExtractedMovie {
	s.mu.Lock()
	defer s.mu.Unlock()

	if movies, ok := s.movies[turnID]; ok {
		return movies
	}
	for _, turn := range s.turns {
		if turn.ID == turnID && turn.IsStructured {
			movies := parser.Parse(turn.Text)
			s.movies[turnID] = movies
			return movies
		}
	}
	return nil
}

// SwitchMode changes the assistant persona. Purely local and
// synchronous: it appends a notice turn and re-tags subsequent
// requests, but never clears history or preferences.
func (s *Session) SwitchMode(mode models.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == mode {
		return
	}
	s.mode = mode

	notice := catalogModeNotice
	if mode == models.ModeBilling {
		notice = billingModeNotice
	}
	s.appendLocked(models.ChatTurn{
		ID:        s.newID(),
		Sender:    models.SenderAssistant,
		Text:      notice,
		Timestamp: s.now().Format("15:04"),
	})
	s.persistModeLocked()
}

// Reset starts a new conversation: the log, the movie cache and the
// preference profile are cleared immediately; the remote profile reset
// runs in the background.
func (s *Session) Reset() {
	s.mu.Lock()
	s.turns = nil
	s.movies = make(map[string][]models.ExtractedMovie)
	s.persistTurnsLocked()
	s.mu.Unlock()

	s.prefs.Reset()
}

// Turns returns a copy of the ordered message log.
func (s *Session) Turns() []models.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.ChatTurn(nil), s.turns...)
}

// Mode returns the current conversation mode.
func (s *Session) Mode() models.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mode
}

// Awaiting reports whether a completion call is in flight.
func (s *Session) Awaiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.awaiting
}

// Intent resolves what tapping a movie should do: open the in-app
// detail screen when a slug exists, open the external link when only a
// link exists, otherwise nothing.
func (s *Session) Intent(movie models.ExtractedMovie) models.NavigationIntent {
	if movie.Slug != "" {
		return models.NavigationIntent{Kind: models.IntentDetail, Target: movie.Slug}
	}
	if movie.ExternalLink != "" {
		return models.NavigationIntent{Kind: models.IntentExternal, Target: movie.ExternalLink}
	}
	return models.NavigationIntent{Kind: models.IntentNone}
}

func (s *Session) appendLocked(turn models.ChatTurn) {
	s.turns = append(s.turns, turn)
	s.persistTurnsLocked()
}

// persistTurnsLocked writes the whole log in the background; storage
// failures are logged and the session continues on in-memory state.
func (s *Session) persistTurnsLocked() {
	raw, err := json.Marshal(s.turns)
	if err != nil {
		s.logger.Error("Failed to encode chat log", zap.Error(err))
		return
	}
	go func() {
		if err := s.local.Set(context.Background(), keyMessages, string(raw)); err != nil {
			s.logger.Warn("Failed to persist chat log", zap.Error(err))
		}
	}()
}

func (s *Session) persistModeLocked() {
	mode := string(s.mode)
	go func() {
		if err := s.local.Set(context.Background(), keyMode, mode); err != nil {
			s.logger.Warn("Failed to persist mode", zap.Error(err))
		}
	}()
}
