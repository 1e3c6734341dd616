package history

import (
	"encoding/json"
	"time"
)

// History represents all search sessions
type History struct {
	Sessions []Session `json:"sessions"`
}

// Session represents a single run of the search view
type Session struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Entries   []Entry   `json:"entries"`
}

// Entry is one submitted search and its outcome
type Entry struct {
	Kind      string          `json:"kind"` // "index", "neuralnet" or "reset"
	Query     string          `json:"query"`
	URL       string          `json:"url"`
	Response  json.RawMessage `json:"response,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Succeeded reports whether the entry holds a server response
func (e Entry) Succeeded() bool {
	return e.Error == "" && len(e.Response) > 0
}
