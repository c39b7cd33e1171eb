package model

import "time"

// Snapshot is the persisted summary of one completed lookup.
type Snapshot struct {
	ID               string          `json:"id"`
	Handle           string          `json:"handle"`
	Rating           int             `json:"rating"`
	MaxRating        int             `json:"max_rating"`
	Rank             string          `json:"rank"`
	UniqueSolves     int             `json:"unique_solves"`
	TotalSubmissions int             `json:"total_submissions"`
	VerdictCounts    map[Verdict]int `json:"verdict_counts"`
	TagCounts        map[string]int  `json:"tag_counts"`
	RunID            string          `json:"run_id"`
	FetchedAt        time.Time       `json:"fetched_at"`
}

func NewSnapshot(id string, p Profile) Snapshot {
	return Snapshot{
		ID:               id,
		Handle:           HandleKey(p.User.Handle),
		Rating:           p.User.Rating,
		MaxRating:        p.User.MaxRating,
		Rank:             p.User.Rank,
		UniqueSolves:     p.Stats.UniqueSolveCount,
		TotalSubmissions: p.Stats.TotalSubmissions,
		VerdictCounts:    p.Stats.VerdictCounts,
		TagCounts:        p.Stats.TagCounts,
		RunID:            p.RunID,
		FetchedAt:        p.FetchedAt,
	}
}
