package model

import "time"

type RequestStatus string

const (
	RequestStatusRequested RequestStatus = "requested"
	RequestStatusAccepted  RequestStatus = "accepted"
)

// Valid reports whether s is a status a request may be patched to.
func (s RequestStatus) Valid() bool {
	return s == RequestStatusRequested || s == RequestStatusAccepted
}

// ConnectionRequest links two users around a named piece of work. Once
// accepted it can back one or more projects.
type ConnectionRequest struct {
	ID           string        `json:"id"`
	FromUsername string        `json:"from_username"`
	ToUsername   string        `json:"to_username"`
	ProjectName  string        `json:"project_name"`
	Status       RequestStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Involves reports whether username is the sender or the receiver.
func (r *ConnectionRequest) Involves(username string) bool {
	return r.FromUsername == username || r.ToUsername == username
}
