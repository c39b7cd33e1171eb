package service

import (
	"context"
	"encoding/json"
	"time"

	"cf_stats/internal/common"
	"cf_stats/internal/domain/model"
	"cf_stats/internal/platform/logger"
	"cf_stats/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RefreshQueue hands profile refreshes to the background worker through a redis list.
type RefreshQueue struct {
	rdb       *redis.Client
	queueName string
	metrics   *metrics.Metrics
}

func NewRefreshQueue(rdb *redis.Client, queueName string, m *metrics.Metrics) *RefreshQueue {
	return &RefreshQueue{rdb: rdb, queueName: queueName, metrics: m}
}

// Enqueue pushes a refresh job for handle. requestedBy is the admin subject, if any.
func (q *RefreshQueue) Enqueue(ctx context.Context, handle, requestedBy string) (*model.RefreshJob, error) {
	handle = model.NormalizeHandle(handle)
	if handle == "" {
		return nil, common.ErrEmptyHandle
	}

	job := &model.RefreshJob{
		ID:          uuid.NewString(),
		Handle:      handle,
		RequestedBy: requestedBy,
		RequestedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, common.Errorf("failed to marshal refresh job: %w", err)
	}

	if err := q.rdb.LPush(ctx, q.queueName, payload).Err(); err != nil {
		return nil, common.Errorf("failed to push refresh job to redis queue: %w", err)
	}
	if q.metrics != nil {
		q.metrics.RefreshesQueued.Inc()
	}

	logger.Info(ctx, "refresh job enqueued", zap.String("job_id", job.ID), zap.String("handle", handle))
	return job, nil
}

// Len reports the number of jobs waiting in the queue.
func (q *RefreshQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.queueName).Result()
	if err != nil {
		return 0, common.Errorf("failed to read refresh queue length: %w", err)
	}
	return n, nil
}
