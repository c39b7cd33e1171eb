package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cf_stats/internal/common"
	"cf_stats/internal/domain/model"
	"cf_stats/internal/domain/repository"
	"cf_stats/internal/platform/logger"
	"cf_stats/internal/platform/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// UserSource fetches the user.info record for one handle.
type UserSource interface {
	FetchUser(ctx context.Context, handle string) (*model.UserInfo, error)
}

type ProfileService struct {
	users      UserSource
	aggregator *SubmissionAggregator
	cache      repository.ProfileCache
	snapshots  repository.SnapshotRepository
	tracker    *SearchTracker
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewProfileService(
	users UserSource,
	aggregator *SubmissionAggregator,
	cache repository.ProfileCache,
	snapshots repository.SnapshotRepository,
	tracker *SearchTracker,
	m *metrics.Metrics,
) *ProfileService {
	if cache == nil {
		cache = repository.NoopProfileCache{}
	}
	if snapshots == nil {
		snapshots = repository.NoopSnapshotRepository{}
	}
	if tracker == nil {
		tracker = NewSearchTracker()
	}
	return &ProfileService{
		users:      users,
		aggregator: aggregator,
		cache:      cache,
		snapshots:  snapshots,
		tracker:    tracker,
		metrics:    m,
		now:        time.Now,
	}
}

// Lookup returns the profile for handle, from cache when possible.
func (s *ProfileService) Lookup(ctx context.Context, handle string) (*model.Profile, error) {
	return s.lookup(ctx, handle, true, alwaysCurrent)
}

// Refresh recomputes the profile from Codeforces, ignoring any cached copy.
func (s *ProfileService) Refresh(ctx context.Context, handle string) (*model.Profile, error) {
	return s.lookup(ctx, handle, false, alwaysCurrent)
}

// LookupForClient is Lookup scoped to one client: a newer search from the same
// clientKey cancels this one, which then returns common.ErrSuperseded and
// publishes nothing.
func (s *ProfileService) LookupForClient(ctx context.Context, clientKey, handle string) (*model.Profile, error) {
	if clientKey == "" {
		return s.Lookup(ctx, handle)
	}
	runCtx, ticket := s.tracker.Begin(ctx, clientKey)
	defer ticket.Finish()

	profile, err := s.lookup(runCtx, handle, true, ticket.Current)
	if err != nil && !ticket.Current() {
		logger.Info(ctx, "search superseded", zap.String("ticket", ticket.ID), zap.String("handle", handle))
		return nil, fmt.Errorf("lookup %q: %w", handle, common.ErrSuperseded)
	}
	return profile, err
}

// History lists stored snapshots for handle, newest first.
func (s *ProfileService) History(ctx context.Context, handle string, limit int) ([]model.Snapshot, error) {
	handle = model.NormalizeHandle(handle)
	if handle == "" {
		return nil, common.ErrEmptyHandle
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	snapshots, err := s.snapshots.ListByHandle(ctx, handle, limit)
	if err != nil {
		return nil, fmt.Errorf("history for %q: %w", handle, err)
	}
	return snapshots, nil
}

// Invalidate drops the cached profile for handle.
func (s *ProfileService) Invalidate(ctx context.Context, handle string) error {
	handle = model.NormalizeHandle(handle)
	if handle == "" {
		return common.ErrEmptyHandle
	}
	return s.cache.Delete(ctx, handle)
}

func alwaysCurrent() bool { return true }

func (s *ProfileService) lookup(ctx context.Context, handle string, useCache bool, current func() bool) (*model.Profile, error) {
	handle = model.NormalizeHandle(handle)
	if handle == "" {
		return nil, common.ErrEmptyHandle
	}
	ctx = logger.WithHandle(ctx, handle)

	if useCache {
		if cached, ok := s.fromCache(ctx, handle); ok {
			return cached, nil
		}
	}

	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	start := time.Now()

	var (
		user  *model.UserInfo
		stats *model.AggregateResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.users.FetchUser(gctx, handle)
		if err != nil {
			return fmt.Errorf("user info: %w", err)
		}
		user = u
		return nil
	})
	g.Go(func() error {
		r, err := s.aggregator.Aggregate(gctx, handle)
		if err != nil {
			return fmt.Errorf("submissions: %w", err)
		}
		stats = r
		return nil
	})
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !isDomainError(err) {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				logger.Warn(ctx, "profile lookup timed out", zap.Duration("elapsed", time.Since(start)))
				return nil, fmt.Errorf("lookup %q: %v: %w", handle, ctxErr, common.ErrFetchFailed)
			}
			return nil, ctxErr
		}
		logger.Warn(ctx, "profile lookup failed", zap.Error(err))
		return nil, err
	}

	profile := &model.Profile{
		User:      *user,
		Stats:     *stats,
		FetchedAt: s.now().UTC(),
		RunID:     runID,
	}

	if !current() {
		return nil, fmt.Errorf("lookup %q: %w", handle, common.ErrSuperseded)
	}
	s.publish(ctx, profile)

	logger.Info(ctx, "profile aggregated",
		zap.Int("total_submissions", stats.TotalSubmissions),
		zap.Int("unique_solves", stats.UniqueSolveCount),
		zap.Duration("elapsed", time.Since(start)))
	return profile, nil
}

func (s *ProfileService) fromCache(ctx context.Context, handle string) (*model.Profile, bool) {
	cached, err := s.cache.Get(ctx, handle)
	switch {
	case err == nil:
		s.observeCache("hit")
		return cached, true
	case errors.Is(err, common.ErrNotFound):
		s.observeCache("miss")
	default:
		s.observeCache("error")
		logger.Warn(ctx, "profile cache read failed", zap.Error(err))
	}
	return nil, false
}

// publish stores a completed profile. Failures are logged and never surface
// to the caller.
func (s *ProfileService) publish(ctx context.Context, p *model.Profile) {
	if err := s.cache.Set(ctx, p); err != nil {
		logger.Warn(ctx, "profile cache write failed", zap.Error(err))
	}
	snapshot := model.NewSnapshot(uuid.NewString(), *p)
	if err := s.snapshots.Create(ctx, &snapshot); err != nil {
		logger.Warn(ctx, "snapshot write failed", zap.Error(err))
	}
}

func (s *ProfileService) observeCache(result string) {
	if s.metrics != nil {
		s.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, common.ErrUserNotFound) ||
		errors.Is(err, common.ErrFetchFailed) ||
		errors.Is(err, common.ErrEmptyHandle)
}
