package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vietvo371/wopai-assistant/internal/models"
)

func TestHTTPClient_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "đề xuất phim", req.Message)
		assert.Equal(t, models.ModeCatalog, req.Mode)

		json.NewEncoder(w).Encode(ChatResponse{
			Success:  true,
			Response: "# Đề Xuất Phim\n...",
			Preferences: &models.PreferenceState{
				Genres: []string{"Hành động"},
			},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "secret", zap.NewNop())
	resp, err := client.Chat(context.Background(), ChatRequest{Message: "đề xuất phim", Mode: models.ModeCatalog})
	require.NoError(t, err)

	assert.Equal(t, "# Đề Xuất Phim\n...", resp.Response)
	require.NotNil(t, resp.Preferences)
	assert.Equal(t, []string{"Hành động"}, resp.Preferences.Genres)
	assert.Nil(t, resp.IsMarkdown, "optional field stays absent when not sent")
}

func TestHTTPClient_ChatRejectionIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatResponse{Success: false})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", zap.NewNop())
	_, err := client.Chat(context.Background(), ChatRequest{Message: "hi", Mode: models.ModeBilling})
	assert.Error(t, err, "success=false is treated like a network failure")
}

func TestHTTPClient_ChatServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", zap.NewNop())
	_, err := client.Chat(context.Background(), ChatRequest{Message: "hi", Mode: models.ModeCatalog})
	assert.Error(t, err)
}

func TestHTTPClient_SendInteraction(t *testing.T) {
	var got Interaction
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie-interaction", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", zap.NewNop())
	err := client.SendInteraction(context.Background(), Interaction{
		MovieID:         45,
		InteractionType: InteractionLike,
		MovieTitle:      "Inception",
	})
	require.NoError(t, err)

	assert.Equal(t, 45, got.MovieID)
	assert.Equal(t, "like", got.InteractionType)
	assert.Equal(t, "Inception", got.MovieTitle)
}

func TestHTTPClient_ResetPreferences(t *testing.T) {
	var got ResetRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reset-preferences", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", zap.NewNop())
	err := client.ResetPreferences(context.Background(), ResetRequest{
		ResetGenres:       true,
		ResetFilmTypes:    true,
		ResetInteractions: true,
		ResetHistory:      true,
	})
	require.NoError(t, err)
	assert.True(t, got.ResetGenres && got.ResetFilmTypes && got.ResetInteractions && got.ResetHistory)
}
