package model

import "time"

// RefreshJob is the queue payload asking the worker to recompute a profile.
type RefreshJob struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}
