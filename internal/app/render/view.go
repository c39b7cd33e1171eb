package render

import (
	"time"

	"cf_stats/internal/domain/model"
)

// ProfileView is the JSON shape of a profile, with counts already ordered for display.
type ProfileView struct {
	Handle           string             `json:"handle"`
	FullName         string             `json:"full_name,omitempty"`
	PhotoURL         string             `json:"photo_url,omitempty"`
	Rating           int                `json:"rating"`
	MaxRating        int                `json:"max_rating"`
	Rank             string             `json:"rank,omitempty"`
	MaxRank          string             `json:"max_rank,omitempty"`
	UniqueSolveCount int                `json:"unique_solve_count"`
	TotalSubmissions int                `json:"total_submissions"`
	Verdicts         []model.CountEntry `json:"verdicts"`
	Tags             []model.CountEntry `json:"tags"`
	FetchedAt        time.Time          `json:"fetched_at"`
	RunID            string             `json:"run_id"`
	Cached           bool               `json:"cached"`
}

func NewProfileView(p model.Profile) ProfileView {
	return ProfileView{
		Handle:           p.User.Handle,
		FullName:         p.User.FullName(),
		PhotoURL:         p.User.PhotoURL(),
		Rating:           p.User.Rating,
		MaxRating:        p.User.MaxRating,
		Rank:             p.User.Rank,
		MaxRank:          p.User.MaxRank,
		UniqueSolveCount: p.Stats.UniqueSolveCount,
		TotalSubmissions: p.Stats.TotalSubmissions,
		Verdicts:         p.Stats.SortedVerdicts(),
		Tags:             p.Stats.SortedTags(),
		FetchedAt:        p.FetchedAt,
		RunID:            p.RunID,
		Cached:           p.Cached,
	}
}
