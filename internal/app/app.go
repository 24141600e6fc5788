// Package app wires configuration, services, the HTTP router and the
// websocket hub into a runnable server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"prepstats/internal/config"
	apierrors "prepstats/internal/errors"
	"prepstats/internal/infrastructure"
	customMiddleware "prepstats/internal/middleware"
	"prepstats/internal/selection"
	"prepstats/internal/services"
	"prepstats/internal/store"
	handlers "prepstats/internal/transport/http"
	ws "prepstats/internal/websocket"
	"prepstats/pkg/contracts"
	"prepstats/pkg/contracts/domain"
)

const (
	Version = contracts.Version
	AppName = "prepstats"
)

// Application is the main application container.
type Application struct {
	Config *config.Config
	Logger *slog.Logger
	Router *chi.Mux
	Server *http.Server

	Store        *store.Store
	Selection    *selection.State
	WebSocketHub *ws.Hub

	StatsService  *services.StatsService
	HealthService *services.HealthService
}

// NewApplication creates the application with all dependencies wired.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	a := &Application{
		Config: cfg,
		Logger: logger,
	}

	a.initServices()
	a.setupRouter()

	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

// initServices builds the store, selection state, hub and services. The
// selection and the hub both observe store events: the selection adopts
// the first ingested key, the hub notifies connected clients. Selection
// mutations are broadcast to clients as well.
func (a *Application) initServices() {
	a.Store = store.New()
	a.Selection = selection.New()
	a.WebSocketHub = ws.NewHub(a.Logger)

	a.Store.Subscribe(a.Selection.ObserveStore)
	a.Store.Subscribe(func(ev store.Event) {
		a.WebSocketHub.BroadcastDatasetUpdate(ev.Key, string(ev.Category), ev.Rows)
	})
	a.Selection.Subscribe(func(sel domain.Selection) {
		a.WebSocketHub.BroadcastSelectionChange(sel)
	})

	a.StatsService = services.NewStatsService(a.Store, a.Selection, a.Logger)
	a.HealthService = services.NewHealthService(Version, a.Store, a.WebSocketHub)
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Middleware that does not wrap the ResponseWriter goes first so the
	// websocket upgrade keeps working.
	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)

	r.HandleFunc("/ws", a.handleWebSocket)

	// Metrics stay outside the middleware group.
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(middleware.Compress(5))

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures the API endpoints.
func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	statsHandler := handlers.NewStatsHandler(a.StatsService, a.Logger, errorHandler, a.Config.Server.MaxUploadBytes)
	selectionHandler := handlers.NewSelectionHandler(a.StatsService, a.Logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		r.Mount("/stats", statsHandler.Routes())
		r.Mount("/selection", selectionHandler.Routes())
	})
}

// handleWebSocket upgrades the connection and hands it to the hub.
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	a.Logger.InfoContext(r.Context(), "websocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")))

	ws.ServeWS(a.WebSocketHub, w, r)
}

// Run starts the server and blocks until the context is cancelled or the
// server fails. Shutdown drains in-flight requests within the configured
// timeout.
func (a *Application) Run(ctx context.Context) error {
	a.WebSocketHub.Start()
	defer a.WebSocketHub.Stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("server listening",
			slog.String("address", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
