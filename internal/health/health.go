// Package health serves liveness and readiness probes over HTTP.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/avatarbot/core/buildinfo"
	"github.com/m3rciful/avatarbot/core/logger"
)

const shutdownTimeout = 5 * time.Second

// Stats supplies the numbers reported by /readyz.
type Stats interface {
	Sessions() int
	SendErrors() uint64
}

// Readiness is the /readyz response body.
type Readiness struct {
	Sessions   int    `json:"sessions"`
	SendErrors uint64 `json:"send_errors"`
	Version    string `json:"version"`
}

// NewRouter returns the probe routes.
func NewRouter(stats Stats) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		body := Readiness{Version: buildinfo.Version}
		if stats != nil {
			body.Sessions = stats.Sessions()
			body.SendErrors = stats.SendErrors()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
	return r
}

// Server runs the probe router until stopped.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen binds addr and returns a server ready to Serve.
func Listen(addr string, stats Stats) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		srv: &http.Server{
			Handler:           NewRouter(stats),
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln: ln,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Serve blocks until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	logger.Info(ctx, "health", "health.listen", slog.String("listen", s.Addr()))
	if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error(ctx, "health", "health.serve", slog.String("err", err.Error()))
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight probes.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
