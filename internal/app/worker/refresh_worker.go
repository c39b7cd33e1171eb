package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"cf_stats/internal/domain/model"
	"cf_stats/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Refresher recomputes and publishes a profile. ProfileService satisfies it.
type Refresher interface {
	Refresh(ctx context.Context, handle string) (*model.Profile, error)
}

type Outcome string

const (
	OutcomeRefreshed Outcome = "refreshed"
	OutcomeLocked    Outcome = "locked"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeFailed    Outcome = "failed"
)

// releaseLockScript deletes the lock only while it still holds our value.
var releaseLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

type Options struct {
	QueueName  string
	LockPrefix string
	LockTTL    time.Duration
	// PopTimeout bounds each BRPOP so shutdown is noticed promptly.
	PopTimeout time.Duration
}

type RefreshWorker struct {
	rdb       *redis.Client
	refresher Refresher
	opts      Options
}

func NewRefreshWorker(rdb *redis.Client, refresher Refresher, opts Options) *RefreshWorker {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 5 * time.Minute
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 5 * time.Second
	}
	return &RefreshWorker{rdb: rdb, refresher: refresher, opts: opts}
}

// Start consumes the refresh queue until ctx is canceled.
func (w *RefreshWorker) Start(ctx context.Context) {
	logger.Info(ctx, "refresh worker started", zap.String("queue", w.opts.QueueName))
	for {
		select {
		case <-ctx.Done():
			logger.Info(context.Background(), "refresh worker stopping")
			return
		default:
		}

		res, err := w.rdb.BRPop(ctx, w.opts.PopTimeout, w.opts.QueueName).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			logger.Error(ctx, "failed to pop refresh queue", zap.String("queue", w.opts.QueueName), zap.Error(err))
			sleepCtx(ctx, time.Second)
			continue
		}

		// BRPOP returns [queue, value].
		if len(res) < 2 || res[1] == "" {
			logger.Warn(ctx, "refresh queue returned an empty payload")
			continue
		}
		w.Process(ctx, res[1])
	}
}

// Process handles one queued payload. Only one refresh per handle runs at a
// time across workers; a handle that is already locked is dropped.
func (w *RefreshWorker) Process(ctx context.Context, payload string) Outcome {
	var job model.RefreshJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil || model.NormalizeHandle(job.Handle) == "" {
		logger.Warn(ctx, "discarding malformed refresh job", zap.String("payload", payload))
		return OutcomeInvalid
	}
	ctx = logger.WithHandle(ctx, job.Handle)

	lockKey := w.opts.LockPrefix + model.HandleKey(job.Handle)
	lockValue := uuid.NewString()

	ok, err := w.rdb.SetNX(ctx, lockKey, lockValue, w.opts.LockTTL).Result()
	if err != nil {
		logger.Error(ctx, "failed to acquire refresh lock", zap.String("job_id", job.ID), zap.Error(err))
		return OutcomeFailed
	}
	if !ok {
		logger.Info(ctx, "refresh already running, dropping job", zap.String("job_id", job.ID))
		return OutcomeLocked
	}
	defer w.releaseLock(ctx, lockKey, lockValue, job.ID)

	if _, err := w.refresher.Refresh(ctx, job.Handle); err != nil {
		logger.Warn(ctx, "refresh failed", zap.String("job_id", job.ID), zap.Error(err))
		return OutcomeFailed
	}
	logger.Info(ctx, "profile refreshed",
		zap.String("job_id", job.ID),
		zap.Duration("queued_for", time.Since(job.RequestedAt)))
	return OutcomeRefreshed
}

func (w *RefreshWorker) releaseLock(ctx context.Context, key, value, jobID string) {
	// The lock must be released even when the worker is shutting down.
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	deleted, err := releaseLockScript.Run(releaseCtx, w.rdb, []string{key}, value).Int64()
	switch {
	case err != nil:
		logger.Error(ctx, "failed to release refresh lock", zap.String("key", key), zap.String("job_id", jobID), zap.Error(err))
	case deleted == 0:
		logger.Warn(ctx, "refresh lock expired before release", zap.String("key", key), zap.String("job_id", jobID))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
