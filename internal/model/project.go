package model

import "time"

// Known project statuses. Status is free text; these are the values the
// clients offer.
const (
	ProjectStatusInProgress = "in_progress"
	ProjectStatusReview     = "review"
	ProjectStatusApproved   = "approved"
	ProjectStatusCompleted  = "completed"
)

type Project struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectPatch carries a partial update. Nil fields are left untouched.
type ProjectPatch struct {
	Status      *string `json:"status,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ProjectPatch) Empty() bool {
	return p.Status == nil && p.Title == nil && p.Description == nil
}

// Apply copies the set fields onto project.
func (p ProjectPatch) Apply(project *Project) {
	if p.Status != nil {
		project.Status = *p.Status
	}
	if p.Title != nil {
		project.Title = *p.Title
	}
	if p.Description != nil {
		project.Description = *p.Description
	}
}
