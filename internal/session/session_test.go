package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vietvo371/wopai-assistant/internal/backend"
	"github.com/vietvo371/wopai-assistant/internal/hashid"
	"github.com/vietvo371/wopai-assistant/internal/models"
	"github.com/vietvo371/wopai-assistant/internal/preferences"
	"github.com/vietvo371/wopai-assistant/internal/storage"
)

const recommendationText = "# Đề Xuất Phim\nSome intro\n---\n## Movie A\n**Năm phát hành**: 2020\n---\n## Movie B\n**Link**: https://site/77"

type fakeAssistant struct {
	mu       sync.Mutex
	resp     *backend.ChatResponse
	err      error
	gate     chan struct{}
	requests []backend.ChatRequest
	resets   int
}

func (f *fakeAssistant) Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeAssistant) SendInteraction(ctx context.Context, interaction backend.Interaction) error {
	return nil
}

func (f *fakeAssistant) ResetPreferences(ctx context.Context, req backend.ResetRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return nil
}

func (f *fakeAssistant) resetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets
}

type nopNotifier struct{}

func (nopNotifier) Success(title, detail string) {}
func (nopNotifier) Error(title, detail string)   {}

func newTestSession(assistant backend.Assistant, local storage.Store) *Session {
	logger := zap.NewNop()
	prefs := preferences.NewStore(assistant, nopNotifier{}, local, logger)
	return New(assistant, prefs, local, nopNotifier{}, logger)
}

func TestSend_PlainResponse(t *testing.T) {
	assistant := &fakeAssistant{resp: &backend.ChatResponse{Success: true, Response: "Xin chào!"}}
	sess := newTestSession(assistant, storage.NewMemoryStore())

	turn, err := sess.Send(context.Background(), "chào bạn")
	require.NoError(t, err)
	require.NotNil(t, turn)

	assert.Equal(t, models.SenderAssistant, turn.Sender)
	assert.False(t, turn.IsStructured)

	turns := sess.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, models.SenderUser, turns[0].Sender)
	assert.Equal(t, "chào bạn", turns[0].Text)
	assert.Equal(t, "Xin chào!", turns[1].Text)

	require.Len(t, assistant.requests, 1)
	assert.Equal(t, models.ModeCatalog, assistant.requests[0].Mode)
}

func TestSend_StructuredResponse(t *testing.T) {
	assistant := &fakeAssistant{resp: &backend.ChatResponse{Success: true, Response: recommendationText}}
	sess := newTestSession(assistant, storage.NewMemoryStore())

	turn, err := sess.Send(context.Background(), "đề xuất phim")
	require.NoError(t, err)
	assert.True(t, turn.IsStructured)

	movies := sess.MoviesFor(turn.ID)
	require.Len(t, movies, 2)
	assert.Equal(t, "Movie A", movies[0].Title)
	assert.Equal(t, int(hashid.Sum("Movie A")), movies[0].ID)
	assert.Equal(t, "Movie B", movies[1].Title)
	assert.Equal(t, 77, movies[1].ID)

	cls := sess.Interpret(*turn)
	assert.Equal(t, "Đề Xuất Phim", cls.Headline)
}

func TestSend_AppliesPreferenceSnapshot(t *testing.T) {
	snapshot := models.PreferenceState{
		LikedMovieIDs: []int{77},
		Genres:        []string{"Hành động"},
	}
	assistant := &fakeAssistant{resp: &backend.ChatResponse{
		Success:     true,
		Response:    "nội dung",
		Preferences: &snapshot,
	}}
	local := storage.NewMemoryStore()
	logger := zap.NewNop()
	prefs := preferences.NewStore(assistant, nopNotifier{}, local, logger)
	sess := New(assistant, prefs, local, nopNotifier{}, logger)

	_, err := sess.Send(context.Background(), "hi")
	require.NoError(t, err)

	assert.True(t, prefs.IsLiked(77))
	assert.Equal(t, []string{"Hành động"}, prefs.Snapshot().Genres)
}

func TestSend_FailureLeavesUserTurnUnanswered(t *testing.T) {
	assistant := &fakeAssistant{err: errors.New("network down")}
	sess := newTestSession(assistant, storage.NewMemoryStore())

	_, err := sess.Send(context.Background(), "chào")
	require.Error(t, err)

	turns := sess.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, models.SenderUser, turns[0].Sender)
	assert.False(t, sess.Awaiting())

	// The user may resend; the session is back to idle.
	assistant.err = nil
	assistant.resp = &backend.ChatResponse{Success: true, Response: "ok"}
	_, err = sess.Send(context.Background(), "chào")
	require.NoError(t, err)
	assert.Len(t, sess.Turns(), 3)
}

func TestSend_RejectedWhileAwaiting(t *testing.T) {
	gate := make(chan struct{})
	assistant := &fakeAssistant{
		resp: &backend.ChatResponse{Success: true, Response: "ok"},
		gate: gate,
	}
	sess := newTestSession(assistant, storage.NewMemoryStore())

	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.Send(context.Background(), "first")
	}()

	require.Eventually(t, sess.Awaiting, time.Second, time.Millisecond)

	_, err := sess.Send(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)

	close(gate)
	<-done
	assert.Len(t, sess.Turns(), 2, "the busy send must not append a turn")
}

func TestSend_EmptyInputIsNoOp(t *testing.T) {
	assistant := &fakeAssistant{resp: &backend.ChatResponse{Success: true, Response: "ok"}}
	sess := newTestSession(assistant, storage.NewMemoryStore())

	turn, err := sess.Send(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, turn)
	assert.Empty(t, sess.Turns())
}

func TestSwitchMode(t *testing.T) {
	assistant := &fakeAssistant{resp: &backend.ChatResponse{Success: true, Response: "ok"}}
	sess := newTestSession(assistant, storage.NewMemoryStore())

	sess.SwitchMode(models.ModeBilling)
	assert.Equal(t, models.ModeBilling, sess.Mode())

	turns := sess.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, billingModeNotice, turns[0].Text)

	// Switching to the current mode appends nothing.
	sess.SwitchMode(models.ModeBilling)
	assert.Len(t, sess.Turns(), 1)

	// Subsequent requests carry the new tag.
	_, err := sess.Send(context.Background(), "gói vip")
	require.NoError(t, err)
	assert.Equal(t, models.ModeBilling, assistant.requests[0].Mode)
}

func TestSwitchMode_KeepsPreferences(t *testing.T) {
	assistant := &fakeAssistant{}
	local := storage.NewMemoryStore()
	logger := zap.NewNop()
	prefs := preferences.NewStore(assistant, nopNotifier{}, local, logger)
	sess := New(assistant, prefs, local, nopNotifier{}, logger)

	prefs.ToggleLike(models.ExtractedMovie{ID: 45, Title: "Inception"})
	sess.SwitchMode(models.ModeBilling)

	assert.True(t, prefs.IsLiked(45))
}

func TestReset_ClearsLogAndPreferences(t *testing.T) {
	assistant := &fakeAssistant{resp: &backend.ChatResponse{Success: true, Response: "ok"}}
	local := storage.NewMemoryStore()
	logger := zap.NewNop()
	prefs := preferences.NewStore(assistant, nopNotifier{}, local, logger)
	sess := New(assistant, prefs, local, nopNotifier{}, logger)

	_, err := sess.Send(context.Background(), "chào")
	require.NoError(t, err)
	prefs.ToggleLike(models.ExtractedMovie{ID: 45, Title: "Inception"})

	sess.Reset()

	assert.Empty(t, sess.Turns())
	assert.False(t, prefs.IsLiked(45))
	require.Eventually(t, func() bool { return assistant.resetCount() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestLoad_RestoresLogAndReparsesOnDemand(t *testing.T) {
	assistant := &fakeAssistant{resp: &backend.ChatResponse{Success: true, Response: recommendationText}}
	local := storage.NewMemoryStore()
	first := newTestSession(assistant, local)

	turn, err := first.Send(context.Background(), "đề xuất phim")
	require.NoError(t, err)

	// Log persistence is asynchronous; wait for the assistant turn to land.
	require.Eventually(t, func() bool {
		raw, err := local.Get(context.Background(), "chatMessages")
		return err == nil && strings.Contains(raw, "Movie B")
	}, time.Second, 5*time.Millisecond)

	second := newTestSession(assistant, local)
	second.Load(context.Background())

	turns := second.Turns()
	require.Len(t, turns, 2)
	assert.True(t, turns[1].IsStructured)

	// Re-parsing the stored text yields the same records and ids.
	movies := second.MoviesFor(turn.ID)
	require.Len(t, movies, 2)
	assert.Equal(t, int(hashid.Sum("Movie A")), movies[0].ID)
	assert.Equal(t, 77, movies[1].ID)
}

func TestIntent(t *testing.T) {
	sess := newTestSession(&fakeAssistant{}, storage.NewMemoryStore())

	intent := sess.Intent(models.ExtractedMovie{Slug: "77", ExternalLink: "https://site/77"})
	assert.Equal(t, models.NavigationIntent{Kind: models.IntentDetail, Target: "77"}, intent)

	intent = sess.Intent(models.ExtractedMovie{ExternalLink: "https://elsewhere.example.com"})
	assert.Equal(t, models.NavigationIntent{Kind: models.IntentExternal, Target: "https://elsewhere.example.com"}, intent)

	intent = sess.Intent(models.ExtractedMovie{Title: "No Links"})
	assert.Equal(t, models.NavigationIntent{Kind: models.IntentNone}, intent)
}
