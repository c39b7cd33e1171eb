package cache

import (
	"context"
	"fmt"

	"cf_stats/internal/platform/config"
	"cf_stats/internal/platform/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RDB backs the profile cache, the refresh queue and the refresh locks.
var RDB *redis.Client

func ConnectRedis(ctx context.Context) error {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	if err := RDB.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("could not connect to redis at %s: %w", config.AppConfig.RedisAddr, err)
	}
	logger.Info(ctx, "connected to redis", zap.String("addr", config.AppConfig.RedisAddr))
	return nil
}

func CloseRedis() {
	if RDB != nil {
		if err := RDB.Close(); err != nil {
			logger.Warn(context.Background(), "closing redis", zap.Error(err))
			return
		}
		logger.Info(context.Background(), "redis connection closed")
	}
}
