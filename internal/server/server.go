// Пакет server — HTTP-сервер TDP Backend с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на балансировщике.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/George-Hudson/TANF-app/internal/api/handlers"
	"github.com/George-Hudson/TANF-app/internal/api/middleware"
	"github.com/George-Hudson/TANF-app/internal/config"
)

// Server — HTTP-сервер TDP Backend.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// sessionAuth может быть nil — тогда защищённые маршруты недоступны
// (используется в тестах публичных endpoints).
func New(cfg *config.Config, logger *slog.Logger, api *handlers.APIHandler, sessionAuth *middleware.SessionAuth) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	if sessionAuth != nil {
		router.Use(sessionAuth.Middleware())
	}

	// Публичные endpoints: health, metrics, вход
	router.Get("/health/live", api.Health().HealthLive)
	router.Get("/health/ready", api.Health().HealthReady)
	router.Get("/metrics", api.Health().GetMetrics)

	router.Get("/v1/login", api.Login().HandleLoginCallback)
	router.Get("/v1/login/oidc", api.Login().HandleLoginInitiate)
	router.Get("/v1/logout", api.Login().HandleLogout)
	router.Get("/v1/logout/oidc", api.Login().HandleLogoutOIDC)
	router.Get("/v1/auth_check", api.Login().HandleAuthCheck)

	// Endpoints, требующие аутентифицированной сессии
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth())
		r.Post("/v1/data_files", api.UploadDataFile)
		r.Get("/v1/data_files", api.ListDataFiles)
		r.Get("/v1/data_files/{id}", api.GetDataFile)
	})

	// Служебные endpoints: только staff
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth())
		r.Use(middleware.RequireStaff())
		r.Get("/v1/security/scans", api.ListScans)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
