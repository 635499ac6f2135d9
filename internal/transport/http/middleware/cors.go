package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/mandalnilabja/chatrelay/internal/telemetry"
)

// Fixed CORS response values.
const (
	corsAllowMethods = "POST, OPTIONS"
	corsAllowHeaders = "Content-Type"
	corsMaxAge       = "86400" // 24h
)

// CORSPolicy selects the Access-Control-Allow-Origin value for a caller.
// It is immutable after construction.
type CORSPolicy struct {
	allowed []string
}

// NewCORSPolicy builds a policy from the configured origins.
// Entries are trimmed; blank entries are kept in place. An empty list
// allows every origin.
func NewCORSPolicy(allowed []string) *CORSPolicy {
	if len(allowed) == 0 {
		return &CORSPolicy{allowed: []string{"*"}}
	}
	trimmed := make([]string, len(allowed))
	for i, origin := range allowed {
		trimmed[i] = strings.TrimSpace(origin)
	}
	return &CORSPolicy{allowed: trimmed}
}

// AllowOrigin returns the header value for a caller origin.
// An absent origin is treated as "*". A caller outside the list gets the
// first configured origin, or "*" when that entry is blank.
func (p *CORSPolicy) AllowOrigin(origin string) string {
	if origin == "" {
		origin = "*"
	}
	if slices.Contains(p.allowed, "*") || slices.Contains(p.allowed, origin) {
		return origin
	}
	if p.allowed[0] != "" {
		return p.allowed[0]
	}
	return "*"
}

// CORS sets cross-origin headers on every response and answers pre-flight
// OPTIONS requests with 204 before they reach a handler.
func CORS(policy *CORSPolicy, metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", policy.AllowOrigin(r.Header.Get("Origin")))
			h.Set("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)

			if r.Method == http.MethodOptions {
				metrics.RecordPreflight()
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
