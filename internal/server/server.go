// Package server exposes the pipeline over HTTP.
//
// Routes:
//
//	GET  /               service status
//	GET  /api/health     liveness
//	POST /api/render     run the pipeline on a supplied script
//	POST /api/generate   generate a script from a prompt, then run the pipeline
//	GET  /api/jobs/{id}  job record with diagnostics
//	GET  /videos/*       rendered scene videos
//	GET  /p5/*           published sketch pages
package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/cursor2d/cursor2d/pkg/pipeline"
	"github.com/cursor2d/cursor2d/pkg/target"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "Cursor-2D API"

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// Generator produces a script for a prompt. It is implemented outside this
// module (typically by a language model client).
type Generator interface {
	Generate(ctx context.Context, prompt string, t target.Target) (string, error)
}

// Options configures a Server.
type Options struct {
	Addr            string        // Listen address, e.g. ":3000"
	Env             string        // Reported by GET /
	Version         string        // Reported by GET /
	MediaDir        string        // Served under /videos/
	SketchDir       string        // Served under /p5/
	ShutdownTimeout time.Duration // Default: 10s
}

// Server serves the HTTP API.
type Server struct {
	opts      Options
	runner    *pipeline.Runner
	generator Generator
	logger    *log.Logger
	router    chi.Router
}

// New builds a server around runner. gen may be nil, in which case
// /api/generate answers 501. A nil logger discards output.
func New(opts Options, runner *pipeline.Runner, gen Generator, logger *log.Logger) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		opts:      opts,
		runner:    runner,
		generator: gen,
		logger:    logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/", s.handleStatus)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/render", s.handleRender)
		r.Post("/generate", s.handleGenerate)
		r.Get("/jobs/{id}", s.handleJob)
	})

	if s.opts.MediaDir != "" {
		r.Handle("/videos/*", http.StripPrefix("/videos", videoHeaders(staticFiles(s.opts.MediaDir))))
	}
	if s.opts.SketchDir != "" {
		r.Handle("/p5/*", http.StripPrefix("/p5", staticFiles(s.opts.SketchDir)))
	}
	return r
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
// In-flight renders are allowed to finish within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
