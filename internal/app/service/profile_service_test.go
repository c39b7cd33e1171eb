package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cf_stats/internal/common"
	"cf_stats/internal/domain/model"
	"cf_stats/internal/domain/repository"
	"cf_stats/internal/platform/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserSource struct {
	mu      sync.Mutex
	calls   int
	err     error
	block   string        // handle whose lookup waits for ctx cancellation
	entered chan struct{} // closed once the blocking handle is being fetched
}

func (f *fakeUserSource) FetchUser(ctx context.Context, handle string) (*model.UserInfo, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if handle == f.block {
		close(f.entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.UserInfo{Handle: handle, Rating: 1900, MaxRating: 2100, Rank: "candidate master"}, nil
}

func (f *fakeUserSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingSnapshots struct {
	mu    sync.Mutex
	saved []model.Snapshot
}

func (r *recordingSnapshots) Create(_ context.Context, s *model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, *s)
	return nil
}

func (r *recordingSnapshots) ListByHandle(_ context.Context, handle string, limit int) ([]model.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Snapshot
	for i := len(r.saved) - 1; i >= 0 && len(out) < limit; i-- {
		if r.saved[i].Handle == model.HandleKey(handle) {
			out = append(out, r.saved[i])
		}
	}
	return out, nil
}

func (r *recordingSnapshots) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func newTestProfileService(t *testing.T, users UserSource, src SubmissionSource, cache repository.ProfileCache) (*ProfileService, *recordingSnapshots, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	snaps := &recordingSnapshots{}
	svc := NewProfileService(users, NewSubmissionAggregator(src, 2, m), cache, snaps, NewSearchTracker(), m)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, snaps, m
}

func newMiniredisCache(t *testing.T) repository.ProfileCache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return repository.NewRedisProfileCache(rdb, time.Minute)
}

func TestLookupJoinsUserAndAggregate(t *testing.T) {
	src := &fakeSubmissionSource{history: []model.Submission{
		sub(1, "A", model.VerdictOK, "dp"),
		sub(2, "B", model.VerdictWrongAnswer),
		sub(3, "C", model.VerdictOK, "dp", "math"),
	}}
	svc, snaps, _ := newTestProfileService(t, &fakeUserSource{}, src, nil)

	p, err := svc.Lookup(context.Background(), "  tourist ")
	require.NoError(t, err)

	assert.Equal(t, "tourist", p.User.Handle)
	assert.Equal(t, 2, p.Stats.UniqueSolveCount)
	assert.Equal(t, 3, p.Stats.TotalSubmissions)
	assert.Equal(t, map[string]int{"dp": 2, "math": 1}, p.Stats.TagCounts)
	assert.NotEmpty(t, p.RunID)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), p.FetchedAt)
	assert.False(t, p.Cached)

	require.Equal(t, 1, snaps.count())
	assert.Equal(t, p.RunID, snaps.saved[0].RunID)
	assert.Equal(t, "tourist", snaps.saved[0].Handle)
}

func TestLookupEmptyHandle(t *testing.T) {
	users := &fakeUserSource{}
	src := &fakeSubmissionSource{}
	svc, _, _ := newTestProfileService(t, users, src, nil)

	_, err := svc.Lookup(context.Background(), " \t")
	require.ErrorIs(t, err, common.ErrEmptyHandle)
	assert.Zero(t, users.callCount())
	assert.Empty(t, src.calls)
}

func TestLookupUserNotFound(t *testing.T) {
	users := &fakeUserSource{err: fmt.Errorf("user.info: %w", common.ErrUserNotFound)}
	svc, snaps, _ := newTestProfileService(t, users, &fakeSubmissionSource{}, nil)

	p, err := svc.Lookup(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrUserNotFound)
	assert.Nil(t, p)
	assert.Zero(t, snaps.count())
}

func TestLookupFetchFailedPublishesNothing(t *testing.T) {
	src := &fakeSubmissionSource{
		history: []model.Submission{sub(1, "A", model.VerdictOK), sub(2, "A", model.VerdictOK), sub(3, "A", model.VerdictOK)},
		failAt:  3,
		failErr: fmt.Errorf("user.status: %w", common.ErrFetchFailed),
	}
	cache := newMiniredisCache(t)
	svc, snaps, _ := newTestProfileService(t, &fakeUserSource{}, src, cache)

	_, err := svc.Lookup(context.Background(), "tourist")
	require.ErrorIs(t, err, common.ErrFetchFailed)
	assert.Zero(t, snaps.count())

	_, err = cache.Get(context.Background(), "tourist")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestLookupServesSecondCallFromCache(t *testing.T) {
	users := &fakeUserSource{}
	src := &fakeSubmissionSource{history: []model.Submission{sub(1, "A", model.VerdictOK, "dp")}}
	svc, _, m := newTestProfileService(t, users, src, newMiniredisCache(t))

	first, err := svc.Lookup(context.Background(), "Tourist")
	require.NoError(t, err)
	second, err := svc.Lookup(context.Background(), "tourist")
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, first.Stats, second.Stats)
	assert.Equal(t, 1, users.callCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
}

func TestRefreshBypassesCache(t *testing.T) {
	users := &fakeUserSource{}
	src := &fakeSubmissionSource{history: []model.Submission{sub(1, "A", model.VerdictOK)}}
	svc, snaps, _ := newTestProfileService(t, users, src, newMiniredisCache(t))

	first, err := svc.Lookup(context.Background(), "tourist")
	require.NoError(t, err)
	refreshed, err := svc.Refresh(context.Background(), "tourist")
	require.NoError(t, err)

	assert.False(t, refreshed.Cached)
	assert.NotEqual(t, first.RunID, refreshed.RunID)
	assert.Equal(t, 2, users.callCount())
	assert.Equal(t, 2, snaps.count())
}

func TestInvalidateDropsCachedProfile(t *testing.T) {
	users := &fakeUserSource{}
	src := &fakeSubmissionSource{}
	svc, _, _ := newTestProfileService(t, users, src, newMiniredisCache(t))

	_, err := svc.Lookup(context.Background(), "tourist")
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(context.Background(), "TOURIST"))

	p, err := svc.Lookup(context.Background(), "tourist")
	require.NoError(t, err)
	assert.False(t, p.Cached)
	assert.Equal(t, 2, users.callCount())

	require.ErrorIs(t, svc.Invalidate(context.Background(), ""), common.ErrEmptyHandle)
}

func TestLookupForClientSupersededRunPublishesNothing(t *testing.T) {
	users := &fakeUserSource{block: "slow", entered: make(chan struct{})}
	src := &fakeSubmissionSource{history: []model.Submission{sub(1, "A", model.VerdictOK)}}
	svc, snaps, _ := newTestProfileService(t, users, src, nil)

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.LookupForClient(context.Background(), "session-1", "slow")
		errCh <- err
	}()
	<-users.entered

	p, err := svc.LookupForClient(context.Background(), "session-1", "fast")
	require.NoError(t, err)
	assert.Equal(t, "fast", p.User.Handle)

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, common.ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded search did not return")
	}

	require.Equal(t, 1, snaps.count())
	assert.Equal(t, "fast", snaps.saved[0].Handle)
	assert.Zero(t, svc.tracker.InFlight())
}

func TestLookupForClientDifferentClientsRunIndependently(t *testing.T) {
	users := &fakeUserSource{}
	src := &fakeSubmissionSource{history: []model.Submission{sub(1, "A", model.VerdictOK)}}
	svc, snaps, _ := newTestProfileService(t, users, src, nil)

	var wg sync.WaitGroup
	for _, client := range []string{"a", "b", "c"} {
		client := client
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.LookupForClient(context.Background(), client, "tourist")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, snaps.count())
}

func TestHistoryClampsLimit(t *testing.T) {
	svc, snaps, _ := newTestProfileService(t, &fakeUserSource{}, &fakeSubmissionSource{}, nil)
	for i := 0; i < 130; i++ {
		snaps.saved = append(snaps.saved, model.Snapshot{ID: fmt.Sprint(i), Handle: "tourist"})
	}

	got, err := svc.History(context.Background(), "Tourist", 0)
	require.NoError(t, err)
	assert.Len(t, got, defaultHistoryLimit)
	assert.Equal(t, "129", got[0].ID)

	got, err = svc.History(context.Background(), "tourist", 1000)
	require.NoError(t, err)
	assert.Len(t, got, maxHistoryLimit)

	_, err = svc.History(context.Background(), "", 5)
	require.ErrorIs(t, err, common.ErrEmptyHandle)
}

func TestLookupDeadlineIsFetchFailed(t *testing.T) {
	users := &fakeUserSource{block: "slow", entered: make(chan struct{})}
	svc, snaps, _ := newTestProfileService(t, users, &fakeSubmissionSource{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := svc.Lookup(ctx, "slow")
	require.ErrorIs(t, err, common.ErrFetchFailed)
	assert.Zero(t, snaps.count())
}

func TestLookupCanceledReturnsContextError(t *testing.T) {
	users := &fakeUserSource{block: "slow", entered: make(chan struct{})}
	svc, snaps, _ := newTestProfileService(t, users, &fakeSubmissionSource{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-users.entered
		cancel()
	}()

	_, err := svc.Lookup(ctx, "slow")
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, common.ErrFetchFailed)
	assert.Zero(t, snaps.count())
}
