// Package httpapi exposes report conversations over HTTP.
//
// Every conversation opened here is keyed "http:<id>". Replies produced while
// handling a request are returned in the response; messages posted later, such
// as a finished report, are appended to the log and read back through
// GET /api/conversations/{id}/messages.
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/museumops/curio/internal/curio/assembler"
	"github.com/museumops/curio/internal/curio/dialogue"
	"github.com/museumops/curio/internal/curio/memory"
	"github.com/museumops/curio/internal/curio/store"
)

// Room is the room part of HTTP conversation keys.
const Room = "http"

// Store is the subset of store.Store read by the API. It may be nil.
type Store interface {
	ListMessages(ctx context.Context, key string, limit int) ([]memory.Message, error)
	ListReports(ctx context.Context, key string, limit int) ([]*store.ReportRecord, error)
	ReportCounts(ctx context.Context) (map[string]int, error)
	GetDocument(ctx context.Context, key, id string) (*store.Document, error)
}

// Config configures a Server.
type Config struct {
	Addr     string
	Registry *dialogue.Registry
	Store    Store
	// Limiter is the generation quota shared by the conversations. It may
	// be nil.
	Limiter *assembler.RateLimiter
	Logger  *slog.Logger
}

// Server serves the conversation API together with /health and /status.
type Server struct {
	addr      string
	registry  *dialogue.Registry
	store     Store
	limiter   *assembler.RateLimiter
	logger    *slog.Logger
	startedAt time.Time
	router    chi.Router
	server    *http.Server
}

// New builds the router. The server does not listen until Start.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		addr:      cfg.Addr,
		registry:  cfg.Registry,
		store:     cfg.Store,
		limiter:   cfg.Limiter,
		logger:    cfg.Logger,
		startedAt: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(traceIDs)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Route("/api", func(r chi.Router) {
		r.Get("/menu", s.handleMenu)
		r.Route("/conversations/{id}", func(r chi.Router) {
			r.Post("/messages", s.handlePostMessage)
			r.Get("/messages", s.handleListMessages)
			r.Post("/options", s.handlePostOption)
			r.Get("/state", s.handleState)
			r.Get("/reports", s.handleListReports)
			r.Get("/reports/{reportID}", s.handleGetReport)
		})
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start begins listening in the background and shuts down when ctx ends.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.server = &http.Server{
		Handler:      s,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("http api listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http api stopped", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop shuts down the HTTP server.
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("http api shutdown error", "err", err)
	}
}
