package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/eventdesk/internal/api"
	"github.com/diewo77/eventdesk/internal/config"
	"github.com/diewo77/eventdesk/internal/db"
	"github.com/diewo77/eventdesk/internal/draft"
	"github.com/diewo77/eventdesk/internal/handlers"
	"github.com/diewo77/eventdesk/internal/metrics"
	"github.com/diewo77/eventdesk/internal/middleware"
	"github.com/diewo77/eventdesk/internal/services"
	"github.com/diewo77/eventdesk/internal/storage"
	"github.com/diewo77/eventdesk/view"
	"github.com/joho/godotenv"
)

var (
	addrFlag        = flag.String("addr", "", "Listen address (overrides PORT)")
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg.App.Dev)
	slog.SetDefault(logger)

	dbConn, err := db.Connect(db.Options{
		DSN:           cfg.Database.DSN,
		Debug:         cfg.Database.Debug,
		SQLMigrations: cfg.App.Migrations,
		MigrationsDir: "migrations",
		Logger:        logger,
	})
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	logger.Info("database connected", "postgres", cfg.Database.IsPostgres(), "sqlMigrations", cfg.App.Migrations)
	if *migrateOnlyFlag {
		logger.Info("migrations completed")
		return
	}

	loc, err := time.LoadLocation(cfg.App.Location)
	if err != nil {
		logger.Warn("unknown location, using UTC", "location", cfg.App.Location, "err", err)
		loc = time.UTC
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	store, err := storage.Open(ctx, storage.Config{
		Driver:          cfg.Storage.Driver,
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		PathStyle:       cfg.Storage.PathStyle,
	})
	if err != nil {
		logger.Error("storage setup failed", "driver", cfg.Storage.Driver, "err", err)
		os.Exit(1)
	}

	drafts := draft.NewRegistry()
	go sweepDrafts(ctx, drafts, cfg.App.DraftIdle, logger)

	deps := &handlers.Deps{
		API: api.New(api.Options{
			BaseURL:  cfg.API.BaseURL,
			Token:    cfg.API.Token,
			TenantID: cfg.API.TenantID,
			Timeout:  cfg.API.Timeout,
			Metrics:  m,
			Logger:   logger,
		}),
		Drafts: drafts,
		Uploads: &storage.Uploader{
			Store:         store,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
			Expiry:        cfg.Storage.URLExpiry,
			Metrics:       m,
		},
		Audit:    services.NewAuditService(dbConn),
		Metrics:  m,
		TenantID: cfg.API.TenantID,
		Location: loc,
		Logger:   logger,
	}

	view.SetLangResolver(middleware.LangFrom)
	if fi, err := os.Stat("view/templates"); cfg.App.Dev && err == nil && fi.IsDir() {
		view.SetBaseDir("view/templates")
	}

	addr := ":" + cfg.Server.Port
	if *addrFlag != "" {
		addr = *addrFlag
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      withLogging(logger, withRecover(logger, NewApp(dbConn, deps))),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", addr, "dev", cfg.App.Dev, "api", cfg.API.BaseURL, "storage", store.Driver())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
	logger.Info("server stopped")
}

func newLogger(dev bool) *slog.Logger {
	if dev {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// sweepDrafts drops drafts nobody touched for maxIdle.
func sweepDrafts(ctx context.Context, reg *draft.Registry, maxIdle time.Duration, log *slog.Logger) {
	if maxIdle <= 0 {
		return
	}
	interval := maxIdle / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := reg.Sweep(now, maxIdle); n > 0 {
				log.Info("idle drafts discarded", "count", n, "open", reg.Len())
			}
		}
	}
}
