package handler

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskflow/internal/auth"
	"github.com/BuzzLyutic/taskflow/pkg/respond"
)

// Pinger проверяет доступность БД для /health
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Tasks          *TaskHandler
	Auth           *AuthHandler
	Verifier       auth.Verifier
	DB             Pinger
	StaticDir      string
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter() // Создаем роутер
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.DB != nil {
			if err := cfg.DB.Ping(r.Context()); err != nil {
				cfg.Logger.Warn("health check failed", zap.Error(err))
				respond.JSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Authenticate(cfg.Verifier))
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			respond.Error(w, r, http.StatusNotFound, "Not found")
		})
		r.Route("/tasks", cfg.Tasks.Routes)
		r.Route("/auth", cfg.Auth.Routes)
	})

	// страницы: редиректы по сессии, затем статика если она есть
	r.NotFound(auth.PageGuard(cfg.Verifier)(pages(cfg.StaticDir)).ServeHTTP)

	return r
}

func pages(dir string) http.HandlerFunc {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			fs := http.FileServer(http.Dir(dir))
			return fs.ServeHTTP
		}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, http.StatusNotFound, "Not found")
	}
}
