package model

import (
	"encoding/json"
	"time"
)

// ToolSubmission records one calculator run together with its result.
type ToolSubmission struct {
	ID        string          `json:"id"`
	Tool      string          `json:"tool"`
	Email     string          `json:"email,omitempty"`
	Locale    string          `json:"locale"`
	Input     json.RawMessage `json:"input"`
	Result    json.RawMessage `json:"result"`
	IPHash    string          `json:"-"`
	UserAgent string          `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}
