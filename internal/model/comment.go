package model

import "time"

// Comment is an append-only note on a project. Timestamp is an optional
// marker such as a media offset in seconds; it is serialized as null when
// absent.
type Comment struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp *float64  `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}
