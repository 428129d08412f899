package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultShutdownTimeout = 3 * time.Second

// Server exposes the default Prometheus registry at /metrics for scraping.
// Nothing starts automatically; call Start to serve and Stop to shut down.
type Server struct {
	server *http.Server
	// ShutdownTimeout bounds how long Stop waits for in-flight scrapes;
	// zero means the 3s default.
	ShutdownTimeout time.Duration
}

// Start listens on addr and serves metrics until Stop is called. The
// listener runs in its own goroutine; the caller controls its lifetime.
func Start(addr string) (*Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s := &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics endpoint stopped", "addr", addr, "error", err)
		}
	}()

	return s, nil
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop() error {
	if s == nil || s.server == nil {
		return nil
	}
	timeout := s.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
