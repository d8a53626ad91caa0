package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"lyricsmith/internal/logging"
	"lyricsmith/internal/pipeline"
	"lyricsmith/internal/runstore"
)

// Processor runs the pipeline for one uploaded file.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Run, error)
}

// RunStore reads run history.
type RunStore interface {
	List(ctx context.Context, limit int) ([]runstore.Record, error)
	Get(ctx context.Context, id string) (runstore.Record, error)
}

// Options configure the HTTP server.
type Options struct {
	Bind      string
	Token     string
	OutputDir string
	// UploadDir holds uploads until their run finishes.
	UploadDir         string
	MaxUploadBytes    int64
	MaxConcurrentRuns int
}

// Server is the HTTP front end. Store may be nil when history is disabled.
type Server struct {
	opts      Options
	processor Processor
	store     RunStore
	logger    *slog.Logger
	slots     chan struct{}

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// New builds a server. Call Start to listen or use Handler directly.
func New(opts Options, processor Processor, store RunStore, logger *slog.Logger) *Server {
	if opts.MaxConcurrentRuns <= 0 {
		opts.MaxConcurrentRuns = 1
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 200 << 20
	}
	s := &Server{
		opts:      opts,
		processor: processor,
		store:     store,
		logger:    logging.NewComponentLogger(logger, "api-server"),
		slots:     make(chan struct{}, opts.MaxConcurrentRuns),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/process", authMiddleware(opts.Token, s.handleProcess))
	mux.HandleFunc("GET /api/runs", authMiddleware(opts.Token, s.handleRuns))
	mux.HandleFunc("GET /api/runs/{id}", authMiddleware(opts.Token, s.handleRun))
	mux.HandleFunc("GET /api/download/{id}/{name}", authMiddleware(opts.Token, s.handleDownload))
	s.handler = s.withRequestLogging(mux)
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured bind address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.opts.Bind)
	if bind == "" {
		return errors.New("api listen: bind address required")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	// Processing is synchronous, so writes are not bounded by a timeout.
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.Int("max_concurrent_runs", cap(s.slots)),
		logging.Bool("auth", s.opts.Token != ""),
	)
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) acquire() bool {
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Server) release() {
	<-s.slots
}
