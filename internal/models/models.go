package models

// Sender identifies who produced a chat turn.
type Sender string

const (
	SenderUser      Sender = "User"
	SenderAssistant Sender = "Assistant"
)

// Mode selects which assistant persona handles the conversation. The
// values are the wire tags attached to outgoing completion requests.
type Mode string

const (
	ModeCatalog Mode = "Catalog"
	ModeBilling Mode = "Billing"
)

// ChatTurn is one message in the conversation log. Turns are immutable
// once appended; the log is append-only and persisted as a whole.
type ChatTurn struct {
	ID           string `json:"id"`
	Sender       Sender `json:"sender"`
	Text         string `json:"text"`
	Timestamp    string `json:"timestamp"`
	IsStructured bool   `json:"is_structured"`
}

// ExtractedMovie is a movie record derived from a recommendation block.
// Every field except ID and Title is optional; absent fields are empty.
type ExtractedMovie struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Year         string `json:"year,omitempty"`
	Genre        string `json:"genre,omitempty"`
	FilmType     string `json:"film_type,omitempty"`
	Summary      string `json:"summary,omitempty"`
	ExternalLink string `json:"link,omitempty"`
	ImageURL     string `json:"image,omitempty"`
	Slug         string `json:"slug,omitempty"`
}

// PreferenceState is the user's taste profile. The JSON field names
// match the backend's preference snapshot payload.
type PreferenceState struct {
	LikedMovieIDs    []int    `json:"liked_movies"`
	DislikedMovieIDs []int    `json:"disliked_movies"`
	Genres           []string `json:"genres"`
	FilmTypes        []string `json:"film_types"`
	MentionedTitles  []string `json:"mentioned_movies"`
}

// IntentKind says how the presentation layer should act on a movie.
type IntentKind string

const (
	IntentDetail   IntentKind = "detail"
	IntentExternal IntentKind = "external"
	IntentNone     IntentKind = "none"
)

// NavigationIntent is the engine's answer to "what happens when the
// user taps this movie": open the in-app detail screen by slug, open
// the external link, or nothing.
type NavigationIntent struct {
	Kind   IntentKind `json:"kind"`
	Target string     `json:"target,omitempty"`
}
