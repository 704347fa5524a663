package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/remotedev/pkg/collector"
	"github.com/aretw0/remotedev/pkg/collector/file"
	"github.com/aretw0/remotedev/pkg/collector/redis"
	"github.com/aretw0/remotedev/pkg/metrics"
)

// ShutdownTimeout bounds how long outstanding requests may take once the
// server is asked to stop.
const ShutdownTimeout = 5 * time.Second

// NewStore builds the report store selected by cfg. The returned closer
// releases backend connections.
func NewStore(cfg *ServeConfig) (collector.Store, io.Closer, error) {
	switch cfg.Store {
	case StoreRedis:
		var opts []redis.Option
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		s := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		return s, s, nil
	case StoreFile:
		return file.New(cfg.Dir), nopCloser{}, nil
	case StoreMemory, "":
		return collector.NewMemoryStore(cfg.MaxRecords), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewCollectorHandler wires a store, a private metrics registry and the
// collector routes.
func NewCollectorHandler(cfg *ServeConfig, store collector.Store, logger *slog.Logger) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	opts := []collector.Option{
		collector.WithLogger(logger),
		collector.WithMetrics(metrics.New(reg)),
		collector.WithGatherer(reg),
		collector.WithMaxBodySize(cfg.MaxBodySize),
	}
	if cfg.Tracing {
		opts = append(opts, collector.WithTracing())
	}
	return collector.NewHandler(store, opts...)
}

// Serve runs the collector until ctx is cancelled, then shuts down
// gracefully. If ready is non-nil it receives the bound address.
func Serve(ctx context.Context, cfg *ServeConfig, logger *slog.Logger, ready chan<- string) error {
	store, closer, err := NewStore(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	srv := &http.Server{
		Handler:           NewCollectorHandler(cfg, store, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("collector listening", "addr", ln.Addr().String(), "store", cfg.Store)
		serverErrors <- srv.Serve(ln)
	}()
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("shutting down collector")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", ShutdownTimeout, "error", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("failed to close server: %w", err)
			}
		}
		logger.Info("collector stopped gracefully")
		return nil
	}
}
