package service

import (
	"context"
	"fmt"

	"cf_stats/internal/common"
	"cf_stats/internal/domain/model"
	"cf_stats/internal/platform/logger"
	"cf_stats/internal/platform/metrics"

	"go.uber.org/zap"
)

const DefaultPageSize = 500

// SubmissionSource returns one page of a handle's submissions starting at the
// 1-based offset from. An empty page means the history is exhausted.
type SubmissionSource interface {
	FetchSubmissions(ctx context.Context, handle string, from, count int) ([]model.Submission, error)
}

type SubmissionAggregator struct {
	source   SubmissionSource
	pageSize int
	metrics  *metrics.Metrics
}

func NewSubmissionAggregator(source SubmissionSource, pageSize int, m *metrics.Metrics) *SubmissionAggregator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &SubmissionAggregator{source: source, pageSize: pageSize, metrics: m}
}

// Aggregate walks every page of the handle's history and reduces it. Any page
// failure aborts the run; no partial result is ever returned.
func (a *SubmissionAggregator) Aggregate(ctx context.Context, handle string) (*model.AggregateResult, error) {
	handle = model.NormalizeHandle(handle)
	if handle == "" {
		return nil, common.ErrEmptyHandle
	}

	acc := newAccumulator()
	pages := 0
	for from := 1; ; from += a.pageSize {
		if err := ctx.Err(); err != nil {
			a.observe("canceled")
			return nil, err
		}

		page, err := a.source.FetchSubmissions(ctx, handle, from, a.pageSize)
		if err != nil {
			a.observe("failed")
			return nil, fmt.Errorf("fetch submissions from %d: %w", from, err)
		}
		pages++
		if a.metrics != nil {
			a.metrics.PagesFetched.Inc()
		}
		if len(page) == 0 {
			break
		}
		for _, sub := range page {
			acc.add(sub)
		}
	}

	a.observe("ok")
	logger.Debug(ctx, "aggregation complete",
		zap.Int("pages", pages),
		zap.Int("total_submissions", acc.result.TotalSubmissions),
		zap.Int("unique_solves", acc.result.UniqueSolveCount))
	return acc.result, nil
}

func (a *SubmissionAggregator) observe(outcome string) {
	if a.metrics != nil {
		a.metrics.Aggregations.WithLabelValues(outcome).Inc()
	}
}

// accumulator holds the per-run state; it is never shared between runs.
type accumulator struct {
	seen        map[model.ProblemIdentity]struct{}
	submissions map[int64]struct{}
	result      *model.AggregateResult
}

func newAccumulator() *accumulator {
	return &accumulator{
		seen:        make(map[model.ProblemIdentity]struct{}),
		submissions: make(map[int64]struct{}),
		result:      model.NewAggregateResult(),
	}
}

func (acc *accumulator) add(sub model.Submission) {
	// A submission made while paging shifts older records down one slot, so
	// the previous page's last record can come back at the head of the next.
	if sub.ID != 0 {
		if _, dup := acc.submissions[sub.ID]; dup {
			return
		}
		acc.submissions[sub.ID] = struct{}{}
	}
	verdict := sub.EffectiveVerdict()
	acc.result.VerdictCounts[verdict]++
	acc.result.TotalSubmissions++

	if !verdict.IsSuccess() {
		return
	}
	id := sub.Problem.Identity()
	if _, ok := acc.seen[id]; ok {
		return
	}
	acc.seen[id] = struct{}{}
	acc.result.UniqueSolveCount++

	counted := make(map[string]struct{}, len(sub.Problem.Tags))
	for _, tag := range sub.Problem.Tags {
		if _, dup := counted[tag]; dup {
			continue
		}
		counted[tag] = struct{}{}
		acc.result.TagCounts[tag]++
	}
}
