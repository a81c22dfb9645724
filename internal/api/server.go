package api

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/Benjamin-Hogan/Launch-Calculator/internal/auth"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/engine"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/health"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/metrics"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/tle"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/visibility"
)

// Options wires the server to its dependencies. TLE and Finder may be nil, in
// which case the satellite endpoints answer 503.
type Options struct {
	Addr         string
	Logger       *slog.Logger
	Auth         auth.Config
	TrustProxy   bool
	Solver       *engine.Solver
	TLE          *tle.Loader
	Finder       *visibility.Finder
	MinElevation float64
	Static       fs.FS

	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	var tleStore *tle.Store
	if opts.TLE != nil {
		tleStore = opts.TLE.Store()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(tleStore))
	mux.Handle("GET /metrics", metrics.Handler())

	calc := calculateHandler(opts.Logger, opts.Solver)
	mux.HandleFunc("POST /api/v1/calculate", calc)
	mux.HandleFunc("POST /calculate", calc)
	mux.HandleFunc("POST /api/v1/transfer", transferHandler())

	sats := &satelliteHandlers{
		logger:       opts.Logger,
		loader:       opts.TLE,
		finder:       opts.Finder,
		solver:       opts.Solver,
		minElevation: opts.MinElevation,
		now:          opts.Now,
	}
	mux.HandleFunc("GET /api/v1/satellites/visible", sats.visible)
	mux.HandleFunc("GET /api/v1/satellites/{norad_id}/elements", sats.elements)
	mux.HandleFunc("GET /api/v1/satellites/{norad_id}/passes", sats.passes)
	mux.HandleFunc("GET /api/v1/tle/metadata", sats.metadata)
	mux.HandleFunc("POST /api/v1/tle/reload", sats.reload)

	if opts.Static != nil {
		mux.Handle("GET /", http.FileServerFS(opts.Static))
	}

	// Build middleware chain: metrics -> request id -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(opts.Auth)(handler)
	handler = loggingMiddleware(opts.Logger, opts.TrustProxy)(handler)
	handler = requestIDMiddleware(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              opts.Addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		handler: handler,
		logger:  opts.Logger,
	}
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}
