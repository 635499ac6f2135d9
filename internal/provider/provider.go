// Package provider defines the contract for upstream chat-completion APIs.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mandalnilabja/chatrelay/internal/types"
)

// Provider defines the interface an upstream chat-completion API implements
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// BaseURL returns the provider's API endpoint
	BaseURL() string

	// PrepareRequest adds credentials and provider-specific headers
	PrepareRequest(ctx context.Context, req *http.Request) error

	// Complete performs one non-streaming chat completion.
	// A non-2xx reply is returned as *UpstreamError.
	Complete(ctx context.Context, req *types.UpstreamChatRequest) (*Completion, error)
}

// Completion is a successful upstream reply.
type Completion struct {
	// StatusCode is the 2xx status the upstream returned
	StatusCode int

	// Body is the raw JSON body
	Body []byte

	// Duration covers sending the request and reading the body
	Duration time.Duration
}

// UpstreamError is a non-2xx upstream reply.
type UpstreamError struct {
	StatusCode int

	// Body is the upstream body text, empty if it could not be read
	Body string

	Duration time.Duration
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// IsSuccess reports whether status is in the 2xx range.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
