// ABOUTME: HTTP decode service
// ABOUTME: Router, middlewares and lifecycle of the local track decode API
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Resonate-Protocol/lavalink-go/internal/cache"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Config holds server configuration
type Config struct {
	Addr         string // ex: ":8080"
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBatch     int // Tracks accepted per /decodetracks request
}

// Server wraps the HTTP server and its dependencies
type Server struct {
	config  Config
	http    *http.Server
	log     *zap.Logger
	loader  cache.Loader
	started time.Time
}

// New builds the server. loader serves /loadtracks and may be nil, in which
// case that route answers 503.
func New(config Config, log *zap.Logger, loader cache.Loader) *Server {
	if config.MaxBatch <= 0 {
		config.MaxBatch = 100
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		config:  config,
		log:     log.Named("http"),
		loader:  loader,
		started: time.Now(),
	}

	s.http = &http.Server{
		Addr:              config.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(Log(s.log))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/decodetrack", s.handleDecodeTrack)
	r.Post("/decodetracks", s.handleDecodeTracks)
	r.Get("/loadtracks", s.handleLoadTracks)

	return r
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start runs the HTTP server (blocks until error or shutdown)
func (s *Server) Start() error {
	s.log.Info("listening", zap.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down")
	return s.http.Shutdown(ctx)
}
