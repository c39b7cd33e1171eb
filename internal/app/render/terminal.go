package render

import (
	"fmt"
	"io"
	"strings"

	"cf_stats/internal/domain/model"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var rankColors = map[string]color.Attribute{
	"newbie":                    color.FgHiBlack,
	"pupil":                     color.FgGreen,
	"specialist":                color.FgCyan,
	"expert":                    color.FgBlue,
	"candidate master":          color.FgMagenta,
	"master":                    color.FgYellow,
	"international master":      color.FgYellow,
	"grandmaster":               color.FgRed,
	"international grandmaster": color.FgRed,
	"legendary grandmaster":     color.FgHiRed,
}

// TerminalRenderer prints a profile as a colored header followed by tables.
type TerminalRenderer struct {
	NoColor bool
	// MaxTags limits the tag table; zero prints every tag.
	MaxTags int
}

func (r TerminalRenderer) Render(w io.Writer, p model.Profile) error {
	header := color.New(rankColor(p.User.Rank), color.Bold)
	if r.NoColor {
		header.DisableColor()
	} else {
		header.EnableColor()
	}

	title := p.User.Handle
	if p.User.Rank != "" {
		title = fmt.Sprintf("%s (%s)", p.User.Handle, p.User.Rank)
	}
	if _, err := header.Fprintln(w, title); err != nil {
		return err
	}

	var info []string
	if p.User.Rating != 0 {
		info = append(info, fmt.Sprintf("rating %d", p.User.Rating))
	}
	if p.User.MaxRating != 0 {
		info = append(info, fmt.Sprintf("max %d", p.User.MaxRating))
	}
	if p.User.ShowMaxRank() {
		info = append(info, "max rank "+p.User.MaxRank)
	}
	info = append(info,
		humanize.Comma(int64(p.Stats.UniqueSolveCount))+" unique solves",
		humanize.Comma(int64(p.Stats.TotalSubmissions))+" submissions",
	)
	if _, err := fmt.Fprintln(w, strings.Join(info, " | ")); err != nil {
		return err
	}

	tags := p.Stats.SortedTags()
	if r.MaxTags > 0 && len(tags) > r.MaxTags {
		tags = tags[:r.MaxTags]
	}

	for _, section := range []struct {
		title, key, value string
		rows              []model.CountEntry
	}{
		{"Submission Verdicts", "Verdict", "Count", p.Stats.SortedVerdicts()},
		{"Problem Categories", "Category", "Solves", tags},
	} {
		if len(section.rows) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s\n%s\n", section.title, countTable(section.key, section.value, section.rows)); err != nil {
			return err
		}
	}
	return nil
}

func countTable(keyHeader, valueHeader string, entries []model.CountEntry) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{keyHeader, valueHeader})
	for _, e := range entries {
		tbl.AppendRow(table.Row{e.Key, humanize.Comma(int64(e.Count))})
	}
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignRight},
	})
	return tbl.Render()
}

func rankColor(rank string) color.Attribute {
	if c, ok := rankColors[strings.ToLower(strings.TrimSpace(rank))]; ok {
		return c
	}
	return color.FgWhite
}
