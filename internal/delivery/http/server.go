package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"github.com/transit-explorer/internal/config"
	"github.com/transit-explorer/internal/delivery/http/handler"
	"github.com/transit-explorer/internal/delivery/http/middleware"
	"go.uber.org/zap"
)

// Server is the Fiber HTTP server exposing the transit explorer API.
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	placeHandler       *handler.PlaceHandler
	routeHandler       *handler.RouteHandler
	searchHandler      *handler.SearchHandler
	interactionHandler *handler.InteractionHandler
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	placeHandler *handler.PlaceHandler,
	routeHandler *handler.RouteHandler,
	searchHandler *handler.SearchHandler,
	interactionHandler *handler.InteractionHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Transit Explorer",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:                app,
		config:             cfg,
		logger:             logger,
		placeHandler:       placeHandler,
		routeHandler:       routeHandler,
		searchHandler:      searchHandler,
		interactionHandler: interactionHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery())
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS())
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

func (s *Server) setupRoutes() {
	// Swagger documentation route
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	api := s.app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// Place routes
	api.Post("/places", s.placeHandler.CreatePlace)
	api.Get("/places/:id", s.placeHandler.GetPlace)
	api.Put("/places/:id", s.placeHandler.UpdatePlace)
	api.Delete("/places/:id", s.placeHandler.DeletePlace)
	api.Post("/places/:id/promote", s.placeHandler.PromoteSearchResult)
	api.Post("/places/:id/links", s.placeHandler.LinkRoute)
	api.Delete("/places/:id/links/:route_id", s.placeHandler.UnlinkRoute)
	api.Get("/places/:id/routes", s.placeHandler.GetRoutesForPlace)
	api.Get("/search", s.searchHandler.Search)
	api.Get("/search-results", s.placeHandler.GetSearchResults)
	api.Get("/selection", s.placeHandler.GetSelection)

	// Route and stop routes
	api.Delete("/routes/active", s.routeHandler.ClearActiveRoute)
	api.Get("/routes/:id", s.routeHandler.GetRouteDetails)
	api.Get("/routes/:id/vehicles", s.routeHandler.GetVehicles)
	api.Get("/routes/:id/places", s.routeHandler.GetPlacesForRoute)
	api.Get("/stops/:id/arrivals", s.routeHandler.GetArrivals)
	api.Post("/stops/nearby", s.routeHandler.FindNearbyStops)
	api.Post("/directions", s.routeHandler.GetDirections)

	// Interaction routes
	api.Post("/interactions/click", s.interactionHandler.FeatureClick)
}

// Start begins serving; blocks until Shutdown.
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error("Request failed",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err))

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
