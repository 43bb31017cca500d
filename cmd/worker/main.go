package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/transit-explorer/internal/config"
	"github.com/transit-explorer/internal/infrastructure/oba"
	"github.com/transit-explorer/internal/pkg/logger"
	"github.com/transit-explorer/internal/pkg/ratelimit"
	"github.com/transit-explorer/internal/repository/cache"
	"github.com/transit-explorer/internal/usecase"
	"github.com/transit-explorer/internal/worker"
	"github.com/transit-explorer/internal/worker/vehicles"
	"go.uber.org/zap"
)

// Standalone prefetch process: keeps vehicle positions for the configured
// routes warm in the shared Redis cache so API instances serve them
// without spending their own rate-limit quota.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting prefetch worker",
		zap.String("redis_addr", cfg.GetRedisAddr()),
		zap.Strings("route_ids", cfg.Worker.RouteIDs),
	)

	if len(cfg.Worker.RouteIDs) == 0 {
		log.Fatal("WORKER_ROUTE_IDS is empty, nothing to prefetch")
	}

	redisConn, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisConn.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	cacheRepo := cache.NewRedisRepository(redisConn)
	transitRepo := oba.NewClient(&cfg.OBA, log)
	limiter := ratelimit.NewLimiter(cfg.RateLimit.Quota, cfg.RateLimit.Window, log)
	debouncer := ratelimit.NewDebouncer(limiter, cfg.RateLimit.DebounceDelay, log)

	storeUC := usecase.NewStoreUseCase(cacheRepo, cfg.Cache.ArrivalsTTL, log)
	routeUC := usecase.NewRouteUseCase(
		transitRepo,
		nil, // no directions in the worker process
		cacheRepo,
		storeUC,
		limiter,
		debouncer,
		cfg.Cache.VehiclesTTL,
		cfg.Cache.NearbyTTL,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := worker.NewManager(log)
	manager.Register(vehicles.NewPrefetchWorker(routeUC, cfg.Worker.RouteIDs, cfg.Worker.PollInterval, log))

	if err := manager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutdown signal received", zap.String("signal", sig.String()))

	cancel()
	if err := manager.Stop(); err != nil {
		log.Error("Worker shutdown failed", zap.Error(err))
	}

	log.Info("Prefetch worker stopped")
}
