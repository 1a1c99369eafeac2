// Package backend talks to the remote assistant service: completion
// turns, preference interactions and preference resets. The service is
// a black box that returns a text payload plus an optional preference
// snapshot; interpretation happens upstream in the session.
package backend

import (
	"context"

	"github.com/vietvo371/wopai-assistant/internal/models"
)

// ChatRequest is one outgoing completion call.
type ChatRequest struct {
	Message string      `json:"message"`
	Mode    models.Mode `json:"mode"`
}

// ChatResponse is the completion payload. IsMarkdown and Preferences
// are optional; presence must be checked, never assumed.
type ChatResponse struct {
	Success     bool                    `json:"success"`
	Response    string                  `json:"response"`
	IsMarkdown  *bool                   `json:"is_markdown,omitempty"`
	Preferences *models.PreferenceState `json:"preferences,omitempty"`
}

// Interaction records a like/unlike against the remote profile.
type Interaction struct {
	MovieID         int    `json:"movie_id"`
	InteractionType string `json:"interaction_type"`
	MovieTitle      string `json:"movie_title"`
}

const (
	InteractionLike   = "like"
	InteractionUnlike = "unlike"
)

// ResetRequest clears parts of the remote preference profile.
type ResetRequest struct {
	ResetGenres       bool `json:"reset_genres"`
	ResetFilmTypes    bool `json:"reset_film_types"`
	ResetInteractions bool `json:"reset_interactions"`
	ResetHistory      bool `json:"reset_history"`
}

// Assistant is the remote collaborator surface consumed by the session
// and the preference store.
type Assistant interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	SendInteraction(ctx context.Context, interaction Interaction) error
	ResetPreferences(ctx context.Context, req ResetRequest) error
}
