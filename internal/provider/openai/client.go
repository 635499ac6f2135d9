// Package openai implements the OpenAI chat-completions provider.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/mandalnilabja/chatrelay/internal/provider"
	"github.com/mandalnilabja/chatrelay/internal/types"
)

// DefaultURL is the public chat-completions endpoint.
const DefaultURL = "https://api.openai.com/v1/chat/completions"

// Options configures a Client.
type Options struct {
	// APIKey is sent as the bearer credential
	APIKey string

	// URL overrides DefaultURL
	URL string

	// Timeout bounds each exchange; zero leaves it unbounded
	Timeout time.Duration

	// HTTPClient replaces the pooled client when set
	HTTPClient *http.Client
}

// Client implements provider.Provider for OpenAI.
// It is safe for concurrent use.
type Client struct {
	apiKey     string
	url        string
	httpClient *http.Client
}

// New creates a Client. Requests are never retried.
func New(opts Options) *Client {
	url := opts.URL
	if url == "" {
		url = DefaultURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
		httpClient.Timeout = opts.Timeout
	}

	return &Client{
		apiKey:     opts.APIKey,
		url:        url,
		httpClient: httpClient,
	}
}

// Name returns the provider identifier
func (c *Client) Name() string {
	return "openai"
}

// BaseURL returns the chat-completions endpoint
func (c *Client) BaseURL() string {
	return c.url
}

// PrepareRequest sets the bearer credential and JSON content type.
func (c *Client) PrepareRequest(ctx context.Context, req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return nil
}

// Complete sends req upstream and returns the raw reply.
func (c *Client) Complete(ctx context.Context, req *types.UpstreamChatRequest) (*provider.Completion, error) {
	startTime := time.Now()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return nil, fmt.Errorf("encode upstream request: %w", err)
	}

	upstreamReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create upstream request: %w", err)
	}
	if err := c.PrepareRequest(ctx, upstreamReq); err != nil {
		return nil, fmt.Errorf("prepare upstream request: %w", err)
	}

	resp, err := c.httpClient.Do(upstreamReq)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	if !provider.IsSuccess(resp.StatusCode) {
		// Best effort: an unreadable body is relayed as empty text.
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			body = nil
		}
		return nil, &provider.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Duration:   time.Since(startTime),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	return &provider.Completion{
		StatusCode: resp.StatusCode,
		Body:       body,
		Duration:   time.Since(startTime),
	}, nil
}
