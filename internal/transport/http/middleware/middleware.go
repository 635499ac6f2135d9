// Package middleware provides HTTP middleware for request handling.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mandalnilabja/chatrelay/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/chatrelay/internal/types"
)

// contextKey is a custom type to avoid context key collisions.
type contextKey string

// Recover turns a panic in a downstream handler into a generic 500 so no
// internal detail reaches the caller.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic serving request",
					"panic", rec,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)
				shared.WriteJSON(w, types.NewErrorResponse(types.ErrMsgServer), http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
