// Package preferences maintains the user's taste profile: liked and
// disliked titles, preferred genres and film types, and the title→id
// index used to label liked movies after their originating text is
// gone. Three copies of this state exist (in-memory, on-device KV,
// remote profile); this store owns the in-memory copy and drives the
// reconciliation with the other two.
package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/vietvo371/wopai-assistant/internal/backend"
	"github.com/vietvo371/wopai-assistant/internal/models"
	"github.com/vietvo371/wopai-assistant/internal/notify"
	"github.com/vietvo371/wopai-assistant/internal/storage"
)

const (
	keyPreferences = "chatPreferences"
	keyTitleIndex  = "movieIdMap"
)

// Syncer is the remote profile surface the store fires updates at.
// Satisfied by backend.Assistant.
type Syncer interface {
	SendInteraction(ctx context.Context, interaction backend.Interaction) error
	ResetPreferences(ctx context.Context, req backend.ResetRequest) error
}

// Store holds the session's preference state. Local state is the
// source of truth for responsiveness: remote sync is fire-and-forget
// and never rolls a local change back.
type Store struct {
	mu       sync.RWMutex
	state    models.PreferenceState
	titleIDs map[string]int

	syncer   Syncer
	notifier notify.Notifier
	local    storage.Store
	logger   *zap.Logger
}

func NewStore(syncer Syncer, notifier notify.Notifier, local storage.Store, logger *zap.Logger) *Store {
	return &Store{
		titleIDs: make(map[string]int),
		syncer:   syncer,
		notifier: notifier,
		local:    local,
		logger:   logger,
	}
}

// Load restores the persisted profile. Missing or corrupt entries are
// ignored; the session then starts from an empty profile.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, err := s.local.Get(ctx, keyPreferences); err == nil {
		var state models.PreferenceState
		if err := json.Unmarshal([]byte(raw), &state); err == nil {
			s.state = state
		} else {
			s.logger.Warn("Discarding corrupt preference state", zap.Error(err))
		}
	}

	if raw, err := s.local.Get(ctx, keyTitleIndex); err == nil {
		titleIDs := make(map[string]int)
		if err := json.Unmarshal([]byte(raw), &titleIDs); err == nil {
			s.titleIDs = titleIDs
		} else {
			s.logger.Warn("Discarding corrupt title index", zap.Error(err))
		}
	}
}

// ToggleLike flips the liked state of a movie and reports the new
// state. Liking removes the id from the disliked set and records the
// title→id mapping. The remote profile is updated in the background;
// a sync failure surfaces as a notification, not a rollback.
func (s *Store) ToggleLike(movie models.ExtractedMovie) bool {
	s.mu.Lock()

	liked := containsInt(s.state.LikedMovieIDs, movie.ID)
	if liked {
		s.state.LikedMovieIDs = removeInt(s.state.LikedMovieIDs, movie.ID)
	} else {
		s.state.LikedMovieIDs = append(s.state.LikedMovieIDs, movie.ID)
		s.state.DislikedMovieIDs = removeInt(s.state.DislikedMovieIDs, movie.ID)
		s.titleIDs[movie.Title] = movie.ID
	}
	s.persistLocked()
	s.mu.Unlock()

	interaction := backend.Interaction{
		MovieID:    movie.ID,
		MovieTitle: movie.Title,
	}
	confirmation := "Đã thích phim"
	if liked {
		interaction.InteractionType = backend.InteractionUnlike
		confirmation = "Đã bỏ thích phim"
	} else {
		interaction.InteractionType = backend.InteractionLike
	}

	go func() {
		if err := s.syncer.SendInteraction(context.Background(), interaction); err != nil {
			s.logger.Error("Failed to sync movie interaction",
				zap.Error(err),
				zap.Int("movie_id", movie.ID),
				zap.String("type", interaction.InteractionType))
			s.notifier.Error("Error", "Failed to update movie preference")
			return
		}
		s.notifier.Success(confirmation, movie.Title)
	}()

	return !liked
}

// ApplyRemoteSnapshot overwrites the taste fields with a trusted
// backend snapshot. Remote wins verbatim at the moment of receipt,
// including over purely local genre/film-type removals.
func (s *Store) ApplyRemoteSnapshot(snapshot models.PreferenceState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = snapshot
	s.persistLocked()
}

// RemoveGenre prunes a genre locally. Not synced; the next remote
// snapshot may re-add it.
func (s *Store) RemoveGenre(genre string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Genres = removeString(s.state.Genres, genre)
	s.persistLocked()
}

// RemoveFilmType prunes a film type locally. Not synced.
func (s *Store) RemoveFilmType(filmType string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.FilmTypes = removeString(s.state.FilmTypes, filmType)
	s.persistLocked()
}

// Reset clears the profile and the title index immediately, then asks
// the backend to clear its copy in the background. The local clear
// never waits on the remote outcome.
func (s *Store) Reset() {
	s.mu.Lock()
	s.state = models.PreferenceState{}
	s.titleIDs = make(map[string]int)
	s.persistLocked()
	s.mu.Unlock()

	go func() {
		err := s.syncer.ResetPreferences(context.Background(), backend.ResetRequest{
			ResetGenres:       true,
			ResetFilmTypes:    true,
			ResetInteractions: true,
			ResetHistory:      true,
		})
		if err != nil {
			s.logger.Error("Failed to reset remote preferences", zap.Error(err))
		}
	}()
}

// IsLiked reports whether the id is currently in the liked set.
func (s *Store) IsLiked(movieID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return containsInt(s.state.LikedMovieIDs, movieID)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() models.PreferenceState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.PreferenceState{
		LikedMovieIDs:    append([]int(nil), s.state.LikedMovieIDs...),
		DislikedMovieIDs: append([]int(nil), s.state.DislikedMovieIDs...),
		Genres:           append([]string(nil), s.state.Genres...),
		FilmTypes:        append([]string(nil), s.state.FilmTypes...),
		MentionedTitles:  append([]string(nil), s.state.MentionedTitles...),
	}
}

// LabelFor renders a human-readable label for a liked id whose
// originating text block is no longer on screen.
func (s *Store) LabelFor(movieID int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for title, id := range s.titleIDs {
		if id == movieID {
			return title
		}
	}
	return fmt.Sprintf("Phim #%d", movieID)
}

// persistLocked writes the profile to local storage in the background.
// Best effort: a storage failure leaves the session on in-memory state.
func (s *Store) persistLocked() {
	stateJSON, err := json.Marshal(s.state)
	if err != nil {
		s.logger.Error("Failed to encode preference state", zap.Error(err))
		return
	}
	indexJSON, err := json.Marshal(s.titleIDs)
	if err != nil {
		s.logger.Error("Failed to encode title index", zap.Error(err))
		return
	}

	go func() {
		ctx := context.Background()
		if err := s.local.Set(ctx, keyPreferences, string(stateJSON)); err != nil {
			s.logger.Warn("Failed to persist preferences", zap.Error(err))
		}
		if err := s.local.Set(ctx, keyTitleIndex, string(indexJSON)); err != nil {
			s.logger.Warn("Failed to persist title index", zap.Error(err))
		}
	}()
}

func containsInt(ids []int, id int) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func removeInt(ids []int, id int) []int {
	filtered := ids[:0]
	for _, existing := range ids {
		if existing != id {
			filtered = append(filtered, existing)
		}
	}
	return filtered
}

func removeString(values []string, value string) []string {
	filtered := values[:0]
	for _, existing := range values {
		if existing != value {
			filtered = append(filtered, existing)
		}
	}
	return filtered
}
