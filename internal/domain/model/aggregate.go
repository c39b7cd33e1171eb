package model

import (
	"cmp"
	"slices"
)

// CountEntry is one row of a frequency table prepared for display.
type CountEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// AggregateResult is the reduction of a handle's full submission history.
type AggregateResult struct {
	UniqueSolveCount int             `json:"unique_solve_count"`
	VerdictCounts    map[Verdict]int `json:"verdict_counts"`
	TagCounts        map[string]int  `json:"tag_counts"`
	TotalSubmissions int             `json:"total_submissions"`
}

// NewAggregateResult returns an empty result with initialized maps.
func NewAggregateResult() *AggregateResult {
	return &AggregateResult{
		VerdictCounts: make(map[Verdict]int),
		TagCounts:     make(map[string]int),
	}
}

// SortedVerdicts lists verdicts by descending count.
func (r AggregateResult) SortedVerdicts() []CountEntry {
	return SortByCount(r.VerdictCounts)
}

// SortedTags lists tags by descending count.
func (r AggregateResult) SortedTags() []CountEntry {
	return SortByCount(r.TagCounts)
}

// SortByCount orders a frequency map by descending count, ties by ascending key.
func SortByCount[K ~string](counts map[K]int) []CountEntry {
	entries := make([]CountEntry, 0, len(counts))
	for k, c := range counts {
		entries = append(entries, CountEntry{Key: string(k), Count: c})
	}
	slices.SortFunc(entries, func(a, b CountEntry) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return entries
}
