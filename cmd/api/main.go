package main

// @title Transit Explorer API
// @version 1.0.0
// @description Backend for a map-based transit exploration client. Integrates OneBusAway transit data, OpenStreetMap enrichment and Mapbox directions into a single place/route API.
// @description
// @description Main capabilities:
// @description - Place collections: stored, created, search results, active selection
// @description - Transit route geometry with per-direction branches and live vehicles
// @description - Stop arrivals with TTL caching and outbound rate limiting
// @description - OSM enrichment of clicked map features
// @description - Driving/walking directions

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/transit-explorer/docs"
	"github.com/transit-explorer/internal/config"
	httpDelivery "github.com/transit-explorer/internal/delivery/http"
	"github.com/transit-explorer/internal/delivery/http/handler"
	"github.com/transit-explorer/internal/domain/repository"
	"github.com/transit-explorer/internal/infrastructure/mapbox"
	"github.com/transit-explorer/internal/infrastructure/oba"
	"github.com/transit-explorer/internal/infrastructure/osm"
	"github.com/transit-explorer/internal/pkg/logger"
	"github.com/transit-explorer/internal/pkg/ratelimit"
	"github.com/transit-explorer/internal/repository/cache"
	"github.com/transit-explorer/internal/usecase"
	"github.com/transit-explorer/internal/worker"
	"github.com/transit-explorer/internal/worker/vehicles"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Transit Explorer")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	if cfg.OBA.APIKey == "" {
		log.Warn("OBA API key is not configured, transit features will fail")
	}

	// 3. Cache backend
	var cacheRepo repository.CacheRepository
	var redisConn *cache.Redis
	if cfg.Cache.Backend == "redis" {
		redisConn, err = cache.NewRedis(&cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisConn.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}()
		cacheRepo = cache.NewRedisRepository(redisConn)
	} else {
		cacheRepo = cache.NewMemoryRepository(log)
	}

	// 4. Upstream clients
	transitRepo := oba.NewClient(&cfg.OBA, log)
	geodataRepo := osm.NewGeodataClient(&cfg.OSM, log)
	directionsRepo := mapbox.NewClient(&cfg.Mapbox, log)

	// 5. Rate limiting
	limiter := ratelimit.NewLimiter(cfg.RateLimit.Quota, cfg.RateLimit.Window, log)
	debouncer := ratelimit.NewDebouncer(limiter, cfg.RateLimit.DebounceDelay, log)

	// 6. Use cases
	storeUC := usecase.NewStoreUseCase(cacheRepo, cfg.Cache.ArrivalsTTL, log)
	enrichmentUC := usecase.NewEnrichmentUseCase(geodataRepo, storeUC, cfg.OSM.MatchRadius, log)
	routeUC := usecase.NewRouteUseCase(
		transitRepo,
		directionsRepo,
		cacheRepo,
		storeUC,
		limiter,
		debouncer,
		cfg.Cache.VehiclesTTL,
		cfg.Cache.NearbyTTL,
		log,
	)
	searchUC := usecase.NewSearchUseCase(geodataRepo, storeUC, limiter, log)
	interactionUC := usecase.NewInteractionUseCase(storeUC, enrichmentUC, routeUC, log)

	log.Info("Use cases initialized")

	// 7. HTTP server
	placeHandler := handler.NewPlaceHandler(storeUC, log)
	routeHandler := handler.NewRouteHandler(routeUC, storeUC, log)
	searchHandler := handler.NewSearchHandler(searchUC, log)
	interactionHandler := handler.NewInteractionHandler(interactionUC, log)

	server := httpDelivery.NewServer(cfg, log, placeHandler, routeHandler, searchHandler, interactionHandler)

	// 8. Background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var manager *worker.Manager
	if cfg.Worker.Enabled {
		manager = worker.NewManager(log)
		manager.Register(vehicles.NewPollWorker(routeUC, cfg.Worker.PollInterval, log))
		if err := manager.Start(ctx); err != nil {
			log.Fatal("Failed to start workers", zap.Error(err))
		}
	}

	// 9. Serve until interrupted
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error("Server stopped unexpectedly", zap.Error(err))
	case sig := <-quit:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	// 10. Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if manager != nil {
		if err := manager.Stop(); err != nil {
			log.Error("Worker shutdown failed", zap.Error(err))
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}

	log.Info("Transit Explorer stopped")
}
