// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/studydesk/internal/ai"
	"github.com/starford/studydesk/internal/api"
	"github.com/starford/studydesk/internal/finder"
	"github.com/starford/studydesk/internal/mcpserver"
	"github.com/starford/studydesk/internal/metrics"
	"github.com/starford/studydesk/internal/sse"
	"github.com/starford/studydesk/internal/store"
	"github.com/starford/studydesk/internal/studyservice"
	"github.com/starford/studydesk/internal/vault"
)

const corpusThrottle = 2 * time.Second

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// logger installs the structured JSON logger as the default.
func (a *application) logger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.Bool("vault_enabled", cfg.Vault.Enabled),
		slog.Bool("ai_enabled", cfg.AI.Enabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	broker := sse.NewBroker(corpusThrottle)
	defer broker.Close()

	svcOpts := []studyservice.Option{
		studyservice.WithEvents(broker),
		studyservice.WithLogger(logger),
	}
	if cfg.AI.Enabled() {
		svcOpts = append(svcOpts, studyservice.WithAssistant(ai.NewClient(cfg.AI.Client(), logger)))
	}

	var mirror *vault.Mirror
	if cfg.Vault.Enabled {
		fs, err := vault.NewFS(cfg.Vault.Path)
		if err != nil {
			return fmt.Errorf("init vault: %w", err)
		}
		mirror = vault.NewMirror(fs, db, logger)
		svcOpts = append(svcOpts, studyservice.WithMirror(mirror))
	}

	svc := studyservice.New(db, svcOpts...)

	if mirror != nil {
		if _, err := mirror.Sync(ctx, svc); err != nil {
			logger.Warn("initial vault sync failed", slog.String("error", err.Error()))
		}
	}

	editors := studyservice.NewEditors(svc,
		studyservice.WithSaveDelay(cfg.Autosave.Delay),
		studyservice.WithSessionTTL(cfg.Autosave.SessionTTL),
	)

	apiRouter := api.NewRouter(api.Deps{
		Service: svc,
		Editors: editors,
		Events:  broker,
		Auth:    cfg.Auth.API(),
		Logger:  logger,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// Health check and metrics endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if mirror != nil {
		g.Go(func() error {
			return mirror.Watch(gCtx, svc)
		})
	}

	g.Go(func() error {
		return editors.Run(gCtx)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		if err := editors.CloseAll(shutdownCtx); err != nil {
			logger.Error("Flushing editor sessions failed", slog.String("error", err.Error()))
		}

		// Unblock the watcher and sweeper when the signal, not the context, ended the wait.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout as the configured user.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	svcOpts := []studyservice.Option{studyservice.WithLogger(logger)}
	if cfg.Vault.Enabled {
		fs, err := vault.NewFS(cfg.Vault.Path)
		if err != nil {
			return fmt.Errorf("init vault: %w", err)
		}
		svcOpts = append(svcOpts, studyservice.WithMirror(vault.NewMirror(fs, db, logger)))
	}
	svc := studyservice.New(db, svcOpts...)

	logger.Info("MCP server starting", slog.String("user", cfg.Auth.UserID))
	return mcpserver.New(svc, cfg.Auth.UserID, app.version).ServeStdio()
}

// RunFind opens the search dialog over the configured user's material. With a
// non-empty query the results are printed instead.
func RunFind(ctx context.Context, query string, out io.Writer, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	app.logger()

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	corpus, err := db.Corpus(ctx, cfg.Auth.UserID)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	if query != "" {
		if finder.Print(out, corpus, query) == 0 {
			fmt.Fprintln(out, "no results")
		}
		return nil
	}
	return finder.Run(ctx, corpus, out)
}
