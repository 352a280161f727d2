package api

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatbet/chatbet/internal/agent"
	"github.com/chatbet/chatbet/internal/log"
	"github.com/chatbet/chatbet/internal/namecache"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Logger       log.Logger
	Orchestrator *agent.Orchestrator // required
	Cache        *namecache.Manager  // required, drives /ready
	Pool         *pgxpool.Pool       // optional, pinged by /ready when set
	CORSOrigins  []string
	TrustProxy   bool    // honor X-Real-IP/X-Forwarded-For behind a proxy
	RateRPS      float64 // per-IP refill rate (0 = default 1/s)
	RateBurst    int     // per-IP burst (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer wires routes and the middleware stack.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Orchestrator == nil {
		return nil, errors.New("orchestrator is required")
	}
	if cfg.Cache == nil {
		return nil, errors.New("name cache is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ch := &chatHandler{orc: cfg.Orchestrator, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat", ch.send)

	rps := cfg.RateRPS
	if rps <= 0 {
		rps = 1.0
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(rps, burst)

	// Middleware stack, outermost first:
	//   Recovery -> RequestID -> Logging -> CORS -> RateLimit -> Routes
	// RequestID precedes Logging so request_id reaches log attributes.
	// CORS precedes RateLimit so preflight gets its headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w)
		handler.ServeHTTP(w, r)
	})

	// Probes bypass the middleware stack so orchestration issues never
	// mask liveness.
	hh := &healthHandler{cache: cfg.Cache, pool: cfg.Pool, logger: logger}
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", hh.liveness)
	topMux.HandleFunc("GET /ready", hh.readiness)
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
