// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notely/internal/api"
	"github.com/starford/notely/internal/auth"
	"github.com/starford/notely/internal/mcpserver"
	"github.com/starford/notely/internal/metrics"
	"github.com/starford/notely/internal/noteservice"
	"github.com/starford/notely/internal/realtime"
	"github.com/starford/notely/internal/store"
	"github.com/starford/notely/internal/summarizer"
	"github.com/starford/notely/internal/web"
)

// platform holds the services shared by the HTTP and MCP modes.
type platform struct {
	db         *store.DB
	broker     *realtime.Broker
	metrics    *metrics.Metrics
	auth       *auth.Service
	notes      *noteservice.Service
	summarizer *summarizer.Service
}

func (p *platform) close() {
	p.broker.Close()
	p.db.Close()
}

func setup(opts []Option) (*application, *slog.Logger, error) {
	app := &application{logOut: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("summarizer", cfg.Summarizer.Provider),
		slog.String("log_level", cfg.App.LogLevel.String()))

	return app, logger, nil
}

func newPlatform(ctx context.Context, cfg *Config, logger *slog.Logger) (*platform, error) {
	db, err := store.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN())
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	m := metrics.New()
	broker := realtime.NewBroker()
	m.TrackSubscribers(broker.ClientCount)

	var fn summarizer.Function
	switch cfg.Summarizer.Provider {
	case ProviderOpenAI:
		fn = summarizer.NewOpenAI(cfg.Summarizer.APIKey, cfg.Summarizer.BaseURL, cfg.Summarizer.Model, cfg.Summarizer.MaxSentences)
	default:
		fn = summarizer.Extractive{MaxSentences: cfg.Summarizer.MaxSentences}
	}
	limiter := summarizer.NewLimiter(cfg.Summarizer.RatePerMin, cfg.Summarizer.Burst)

	return &platform{
		db:         db,
		broker:     broker,
		metrics:    m,
		auth:       auth.NewService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.CookieName),
		notes:      noteservice.NewService(db, db, m.CountEvents(broker)),
		summarizer: summarizer.NewService(fn, limiter, logger),
	}, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	p, err := newPlatform(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer p.close()

	apiRouter := api.NewRouter(api.Deps{
		Auth:       p.auth,
		Notes:      p.notes,
		Summarizer: p.summarizer,
		Broker:     p.broker,
		Heartbeat:  cfg.Realtime.Heartbeat,
		Metrics:    p.metrics,
	})
	pages := web.NewRouter(web.Deps{
		Auth:       p.auth,
		Notes:      p.notes,
		Summarizer: p.summarizer,
		Logger:     logger,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(p.metrics.Middleware)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := p.db.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", p.metrics.Handler())

	// Mount API routes under /api, pages at the root.
	r.Mount("/api", apiRouter)
	r.Mount("/", pages)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Close realtime streams first so open connections do not hold up Shutdown.
		p.broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio on behalf of one user.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	if app.mcpUser == "" {
		return fmt.Errorf("mcp user is required")
	}

	p, err := newPlatform(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer p.close()

	user, _, err := p.db.UserByEmail(ctx, app.mcpUser)
	if err != nil {
		return fmt.Errorf("resolve mcp user %q: %w", app.mcpUser, err)
	}

	logger.Info("MCP server starting", slog.String("user", user.Email))
	return mcpserver.New(p.notes, p.summarizer, *user).ServeStdio()
}
