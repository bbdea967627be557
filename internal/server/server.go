// Package server runs the operational HTTP listener: health, readiness and
// Prometheus metrics.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nyx/internal/bootstrap"
	"nyx/internal/handlers"
	"nyx/internal/observability"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMux builds the routes for e.
func NewMux(e *bootstrap.Engine) *http.ServeMux {
	checks := map[string]handlers.Pinger{
		"database": handlers.PingFunc(func(ctx context.Context) error {
			sqlDB, err := e.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}
	if e.Cache != nil {
		checks["cache"] = e.Cache
	}
	h := &handlers.Handlers{Checks: checks}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ready", h.Ready)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", http.NotFoundHandler())
	return mux
}

// Run serves e on addr and blocks until a termination signal is received.
func Run(e *bootstrap.Engine, addr string) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return RunWithQuit(e, addr, quit)
}

// RunWithQuit behaves like Run but shuts down when quit fires.
func RunWithQuit(e *bootstrap.Engine, addr string, quit <-chan os.Signal) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(e),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		observability.GlobalLogger.Info("ops server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	return e.Close(ctx)
}
