// Package webui serves a read-only JSON API over one map file, for editors
// and dashboards that show memory usage and jump to symbol definitions.
package webui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/linkmap-analysis/internal/parser/linkmap"
	"github.com/linkmap-analysis/pkg/utils"
)

// DefaultReadTimeout is used when Options.ReadTimeout is zero.
const DefaultReadTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	Port        int
	ReadTimeout time.Duration

	// Parser reads the map file. Defaults to a parser with default options.
	Parser *linkmap.Parser

	// Cache, when set, memoizes reports between requests. A changed file is
	// parsed again.
	Cache *linkmap.Cache

	Logger utils.Logger
}

// Server represents the map file API server.
type Server struct {
	path   string
	opts   Options
	logger utils.Logger
	router *mux.Router
	server *http.Server
}

// NewServer creates a server for the map file at path.
func NewServer(path string, opts Options) *Server {
	if opts.Parser == nil {
		opts.Parser = linkmap.NewParser(nil)
	}
	if opts.Logger == nil {
		opts.Logger = &utils.NullLogger{}
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}

	s := &Server{
		path:   path,
		opts:   opts,
		logger: opts.Logger.WithField("component", "webui"),
	}
	s.router = s.routes()
	s.server = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	// Routes sit on the root router: a method mismatch inside a subrouter
	// answers 404 instead of 405.
	r.HandleFunc("/api/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/memory", s.handleMemory).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/symbols", s.handleSymbols).Methods(http.MethodGet)
	r.HandleFunc("/api/symbols/{name}", s.handleSymbol).Methods(http.MethodGet)
	r.HandleFunc("/api/sections", s.handleSections).Methods(http.MethodGet)
	r.HandleFunc("/api/report", s.handleReport).Methods(http.MethodGet)

	r.Use(s.loggingMiddleware)
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf(":%d", s.opts.Port)
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown, including when Shutdown ran before Start.
func (s *Server) Start() error {
	s.logger.Info("Starting API server at http://localhost:%d/api", s.opts.Port)
	s.logger.Info("Serving map file: %s", s.path)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server. A later Start returns at once.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(rec, r)

		s.logger.Debug("%s %s %d %s", r.Method, r.URL.RequestURI(), rec.status, time.Since(start))
	})
}
