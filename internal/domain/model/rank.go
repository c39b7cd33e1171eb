package model

import "strings"

// RankPalette is the color scheme used for a Codeforces rank.
type RankPalette struct {
	Primary   string
	Secondary string
	Gradient  string
}

func newPalette(primary, secondary string) RankPalette {
	return RankPalette{
		Primary:   primary,
		Secondary: secondary,
		Gradient:  "linear-gradient(135deg, " + primary + " 0%, " + secondary + " 100%)",
	}
}

var DefaultPalette = newPalette("#667eea", "#764ba2")

var rankPalettes = map[string]RankPalette{
	"newbie":                    newPalette("#808080", "#999999"),
	"pupil":                     newPalette("#008000", "#00a000"),
	"specialist":                newPalette("#03a89e", "#00c9be"),
	"expert":                    newPalette("#0000ff", "#4444ff"),
	"candidate master":          newPalette("#a000a0", "#c040c0"),
	"master":                    newPalette("#ff8c00", "#ffaa00"),
	"international master":      newPalette("#ff8c00", "#ffaa00"),
	"grandmaster":               newPalette("#ff0000", "#ff4444"),
	"international grandmaster": newPalette("#ff0000", "#ff4444"),
	"legendary grandmaster":     newPalette("#ff0000", "#ff4444"),
}

// PaletteForRank looks up the palette case-insensitively, falling back to DefaultPalette.
func PaletteForRank(rank string) RankPalette {
	if p, ok := rankPalettes[strings.ToLower(strings.TrimSpace(rank))]; ok {
		return p
	}
	return DefaultPalette
}
