package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/diewo77/eventdesk/httpx"
	"github.com/diewo77/eventdesk/internal/handlers"
	"github.com/diewo77/eventdesk/internal/middleware"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux  *http.ServeMux
	db   *gorm.DB
	deps *handlers.Deps
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, deps *handlers.Deps) *App {
	app := &App{
		mux:  http.NewServeMux(),
		db:   db,
		deps: deps,
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	middleware.Prefs(a.mux).ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	a.mux.HandleFunc("GET /healthz", a.healthz)
	if a.deps.Metrics != nil {
		a.mux.Handle("GET /metrics", a.deps.Metrics.Handler())
	}
	handlers.Register(a.mux, a.deps)
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// statusRecorder captures the response code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging middleware.
func withLogging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

func withRecover(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic serving request", "method", r.Method, "path", r.URL.Path, "panic", rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
