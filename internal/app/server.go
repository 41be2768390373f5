package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/bremsim/internal/ctxlog"
	"github.com/vk/bremsim/internal/monitor"
)

const shutdownTimeout = 5 * time.Second

// server exposes /health, /metrics and the live hit stream.
type server struct {
	http    *http.Server
	monitor *monitor.Monitor
	logger  *slog.Logger
}

// healthHandler answers liveness probes.
func healthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	}
}

func newMux(m *monitor.Monitor, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler(logger))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle(monitor.Path, m.Handler())
	return mux
}

// startServer runs the monitoring server on port in the background. It
// returns nil when port is not positive.
func startServer(ctx context.Context, port int) *server {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Configuring monitoring server.")
	if port <= 0 {
		logger.Debug("Monitoring server not started: disabled")
		return nil
	}

	m := monitor.New(ctx)
	addr := fmt.Sprintf(":%d", port)
	s := &server{
		http:    &http.Server{Addr: addr, Handler: newMux(m, logger)},
		monitor: m,
		logger:  logger,
	}

	go func() {
		logger.Info("Monitoring server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Monitoring server failed unexpectedly", "error", err)
		}
	}()
	return s
}

func (s *server) shutdown(ctx context.Context) error {
	s.monitor.Close()

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down monitoring server...")
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("Monitoring server shutdown failed", "error", err)
		return err
	}
	s.logger.Debug("Monitoring server shut down gracefully.")
	return nil
}
