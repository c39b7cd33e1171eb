package model

import (
	"strings"
	"time"
)

// Profile joins the user.info record with the aggregate of one run.
type Profile struct {
	User      UserInfo        `json:"user"`
	Stats     AggregateResult `json:"stats"`
	FetchedAt time.Time       `json:"fetched_at"`
	RunID     string          `json:"run_id"`
	Cached    bool            `json:"cached"`
}

// NormalizeHandle trims the handle. Empty means no handle was given.
func NormalizeHandle(handle string) string {
	return strings.TrimSpace(handle)
}

// HandleKey is the case-insensitive key used for caches and locks.
func HandleKey(handle string) string {
	return strings.ToLower(NormalizeHandle(handle))
}
