// Package proxy implements the browser-facing chat relay endpoint.
package proxy

import (
	"log/slog"

	"github.com/mandalnilabja/chatrelay/internal/provider"
	"github.com/mandalnilabja/chatrelay/internal/telemetry"
	"github.com/mandalnilabja/chatrelay/internal/tokenizer"
)

// Handlers holds the dependencies for proxy HTTP handlers.
// All fields are read-only after construction.
type Handlers struct {
	Provider provider.Provider

	// Tokenizer is optional; when nil no prompt estimate is logged
	Tokenizer tokenizer.Tokenizer

	// Metrics is optional
	Metrics *telemetry.Metrics

	Logger *slog.Logger

	// DefaultModel is used when the caller names none
	DefaultModel string
}

// New creates a new instance of proxy handlers.
func New(prov provider.Provider, tok tokenizer.Tokenizer, metrics *telemetry.Metrics, logger *slog.Logger, defaultModel string) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		Provider:     prov,
		Tokenizer:    tok,
		Metrics:      metrics,
		Logger:       logger,
		DefaultModel: defaultModel,
	}
}
