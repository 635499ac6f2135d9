package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mandalnilabja/chatrelay/internal/telemetry"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/handler"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/middleware"
)

// RouterOptions configures the HTTP router behavior.
type RouterOptions struct {
	// ChatPath is where the chat endpoint is mounted (e.g., "/api/chat")
	ChatPath string

	// AllowedOrigins feeds the CORS policy
	AllowedOrigins []string

	// Logger enables request logging when set
	Logger *slog.Logger

	// Metrics, when set, is served at /metrics
	Metrics *telemetry.Metrics
}

// NewRouter creates and configures the HTTP router with all application routes.
// Returns an http.Handler with middleware applied.
func NewRouter(repo *handler.Repo, opts *RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// Order: outer to inner. CORS headers must be on every response,
	// including pre-flights and recovered panics.
	r.Use(middleware.CORS(middleware.NewCORSPolicy(opts.AllowedOrigins), opts.Metrics))
	r.Use(middleware.RequestID)
	if opts.Logger != nil {
		r.Use(middleware.RequestLogger(opts.Logger))
	}
	r.Use(middleware.Recover(logger))

	// Every method reaches the handler so it can answer 405 itself.
	r.HandleFunc(opts.ChatPath, repo.Proxy.Chat)

	r.Get("/api/health", repo.Infra.HealthCheck)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	return r
}
