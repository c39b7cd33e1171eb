// Package render turns a completed Profile into HTML, JSON views and terminal tables.
package render

import (
	"fmt"
	"html/template"
	"time"

	"cf_stats/internal/domain/model"

	"github.com/dustin/go-humanize"
	"github.com/gosimple/slug"
)

type Badge struct {
	Label string
	Muted bool
}

type StatCard struct {
	Value string
	Label string
}

// CountRow is one line of the verdict or tag table.
type CountRow struct {
	Key    string
	Anchor string
	Count  string
}

// ProfileCard is the view tree the HTML template draws. It is built once per
// profile and never mutated afterwards.
type ProfileCard struct {
	Handle    string
	FullName  string
	PhotoURL  string
	Palette   model.RankPalette
	Badges    []Badge
	Stats     []StatCard
	Verdicts  []CountRow
	Tags      []CountRow
	FetchedAt time.Time
	Cached    bool

	VerdictChart template.HTML
	TagChart     template.HTML
}

func BuildCard(p model.Profile) ProfileCard {
	verdicts := p.Stats.SortedVerdicts()
	tags := p.Stats.SortedTags()

	card := ProfileCard{
		Handle:    p.User.Handle,
		FullName:  p.User.FullName(),
		PhotoURL:  p.User.PhotoURL(),
		Palette:   model.PaletteForRank(p.User.Rank),
		Badges:    badgesFor(p.User),
		FetchedAt: p.FetchedAt,
		Cached:    p.Cached,
		Stats: []StatCard{
			{Value: humanize.Comma(int64(p.Stats.UniqueSolveCount)), Label: "Unique Solves"},
			{Value: humanize.Comma(int64(p.Stats.TotalSubmissions)), Label: "Total Submissions"},
			{Value: humanize.Comma(int64(len(tags))), Label: "Categories"},
		},
		Verdicts: rows(verdicts, false),
		Tags:     rows(tags, true),
	}
	if len(verdicts) > 0 {
		card.VerdictChart = verdictChart(verdicts)
	}
	if len(tags) > 0 {
		card.TagChart = tagChart(tags, card.Palette)
	}
	return card
}

func badgesFor(u model.UserInfo) []Badge {
	var badges []Badge
	if u.Rating != 0 {
		badges = append(badges, Badge{Label: fmt.Sprintf("Rating: %d", u.Rating)})
	}
	if u.MaxRating != 0 {
		badges = append(badges, Badge{Label: fmt.Sprintf("Max: %d", u.MaxRating)})
	}
	if u.Rank != "" {
		badges = append(badges, Badge{Label: u.Rank})
	}
	if u.ShowMaxRank() {
		badges = append(badges, Badge{Label: "Max: " + u.MaxRank, Muted: true})
	}
	return badges
}

func rows(entries []model.CountEntry, anchors bool) []CountRow {
	out := make([]CountRow, len(entries))
	for i, e := range entries {
		out[i] = CountRow{Key: e.Key, Count: humanize.Comma(int64(e.Count))}
		if anchors {
			out[i].Anchor = "tag-" + slug.Make(e.Key)
		}
	}
	return out
}
