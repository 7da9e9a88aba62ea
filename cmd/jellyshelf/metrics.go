package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// metricsServer exposes the cache counters on /metrics
type metricsServer struct {
	server *http.Server
	logger *slog.Logger
}

func newMetricsHandler(registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	return mux
}

func startMetricsServer(addr string, registry *prometheus.Registry, logger *slog.Logger) *metricsServer {
	registry.MustRegister(collectors.NewGoCollector())

	s := &metricsServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           newMetricsHandler(registry),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", slog.String("error", err.Error()))
		}
	}()
	s.logger.Info("metrics server listening", slog.String("address", addr))
	return s
}

func (s *metricsServer) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
