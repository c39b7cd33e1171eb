package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cf_stats/internal/api"
	"cf_stats/internal/app/render"
	"cf_stats/internal/app/service"
	"cf_stats/internal/app/worker"
	"cf_stats/internal/common/security"
	"cf_stats/internal/domain/repository"
	"cf_stats/internal/platform/cache"
	"cf_stats/internal/platform/codeforces"
	"cf_stats/internal/platform/config"
	"cf_stats/internal/platform/database"
	"cf_stats/internal/platform/logger"
	"cf_stats/internal/platform/metrics"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	// 1. Load Configuration
	config.Load()
	cfg := config.AppConfig

	// 2. Initialize Logger
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		logger.Fatal(ctx, "failed to initialize logger: "+err.Error())
	}
	defer logger.Sync()

	// 3. Initialize JWT
	security.InitJWT()

	m := metrics.New()

	// 4. Optional Postgres for snapshots
	var snapshots repository.SnapshotRepository = repository.NoopSnapshotRepository{}
	if cfg.SnapshotsEnabled {
		if err := database.Connect(ctx); err != nil {
			logger.Fatal(ctx, "database unavailable", zap.Error(err))
		}
		defer database.Close()
		if err := repository.EnsureSnapshotSchema(ctx, database.DB); err != nil {
			logger.Fatal(ctx, "failed to prepare snapshot schema", zap.Error(err))
		}
		snapshots = repository.NewPgSnapshotRepository(database.DB)
	}

	// 5. Optional Redis for the profile cache and refresh queue
	var profileCache repository.ProfileCache = repository.NoopProfileCache{}
	if cfg.CacheEnabled {
		if err := cache.ConnectRedis(ctx); err != nil {
			logger.Fatal(ctx, "redis unavailable", zap.Error(err))
		}
		defer cache.CloseRedis()
		profileCache = repository.NewRedisProfileCache(cache.RDB, cfg.ProfileCacheTTL)
	}

	// 6. Codeforces client and services
	client, err := codeforces.NewClient(cfg.CodeforcesAPIBase,
		codeforces.WithTimeout(cfg.CodeforcesTimeout),
		codeforces.WithMetrics(m),
	)
	if err != nil {
		logger.Fatal(ctx, "invalid codeforces client configuration", zap.Error(err))
	}

	aggregator := service.NewSubmissionAggregator(client, cfg.SubmissionPageSize, m)
	profileService := service.NewProfileService(client, aggregator, profileCache, snapshots, service.NewSearchTracker(), m)
	authService := service.NewAuthService(cfg.AdminUsername, cfg.AdminPasswordHash)

	renderer, err := render.NewHTMLRenderer()
	if err != nil {
		logger.Fatal(ctx, "failed to load templates", zap.Error(err))
	}

	deps := api.Dependencies{
		Profiles:  profileService,
		Auth:      authService,
		Renderer:  renderer,
		TokenAuth: security.TokenAuth,
		Metrics:   m,
	}

	// 7. Refresh worker, only when redis is available to carry the queue
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	workerDone := make(chan struct{})
	if cfg.CacheEnabled {
		deps.Refreshes = service.NewRefreshQueue(cache.RDB, cfg.RefreshQueueName, m)
		refreshWorker := worker.NewRefreshWorker(cache.RDB, profileService, worker.Options{
			QueueName:  cfg.RefreshQueueName,
			LockPrefix: cfg.RefreshLockPrefix,
			LockTTL:    time.Duration(cfg.RefreshLockTTLSeconds) * time.Second,
		})
		go func() {
			defer close(workerDone)
			refreshWorker.Start(workerCtx)
		}()
	} else {
		close(workerDone)
	}

	// 8. Router and HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info(ctx, "server starting",
			zap.String("port", cfg.APIPort),
			zap.Bool("cache", cfg.CacheEnabled),
			zap.Bool("snapshots", cfg.SnapshotsEnabled))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "could not listen", zap.String("port", cfg.APIPort), zap.Error(err))
		}
	}()

	<-stop

	logger.Info(ctx, "shutting down server")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server shutdown failed", zap.Error(err))
	}
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn(ctx, "refresh worker did not stop in time")
	}
	logger.Info(ctx, "server and worker stopped")
}
