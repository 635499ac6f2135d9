package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mandalnilabja/chatrelay/internal/provider"
	"github.com/mandalnilabja/chatrelay/internal/telemetry"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/middleware"
	"github.com/mandalnilabja/chatrelay/internal/types"
)

// tokenCountTimeout is the maximum time to wait for token counting after
// the upstream call has returned.
const tokenCountTimeout = 100 * time.Millisecond

// Chat relays one conversation to the upstream provider.
//
// It must be mounted behind middleware.CORS, which sets the cross-origin
// headers and answers OPTIONS. Any method other than POST gets 405.
// Upstream rejections are relayed with the upstream status; every other
// failure becomes a generic 500.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.Metrics.RecordRequest(telemetry.OutcomeMethodNotAllowed)
		shared.WriteJSON(w, types.NewErrorResponse(types.ErrMsgMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	logger := h.Logger.With("request_id", middleware.GetRequestID(r.Context()))

	text, err := h.relay(r, logger)

	var upErr *provider.UpstreamError
	switch {
	case errors.As(err, &upErr):
		logger.Warn("upstream rejected request", "status", upErr.StatusCode)
		h.Metrics.RecordRequest(telemetry.OutcomeUpstreamError)
		shared.WriteJSON(w, types.NewUpstreamErrorResponse(upErr.Body), upErr.StatusCode)
	case err != nil:
		logger.Error("proxy error", "error", err)
		h.Metrics.RecordRequest(telemetry.OutcomeServerError)
		shared.WriteJSON(w, types.NewErrorResponse(types.ErrMsgServer), http.StatusInternalServerError)
	default:
		h.Metrics.RecordRequest(telemetry.OutcomeSuccess)
		shared.WriteJSON(w, types.ChatResponse{Text: text}, http.StatusOK)
	}
}

// relay shapes the inbound body, performs the upstream call and extracts
// the reply text.
func (h *Handlers) relay(r *http.Request, logger *slog.Logger) (string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("read request body: %w", err)
	}

	in, err := types.ParseInbound(body, h.DefaultModel)
	if err != nil {
		return "", err
	}
	req := in.Upstream()

	tokensChan := h.countTokens(req)

	// The upstream call outlives a disconnected client.
	ctx := context.WithoutCancel(r.Context())

	startTime := time.Now()
	completion, err := h.Provider.Complete(ctx, req)
	h.observeUpstream(completion, err, time.Since(startTime))

	if tokens, ok := awaitTokens(tokensChan); ok {
		logger.Debug("prompt token estimate",
			"model", req.Model,
			"messages", len(req.Messages),
			"prompt_tokens", tokens,
		)
	}

	if err != nil {
		return "", err
	}

	return types.ExtractText(completion.Body)
}

// countTokens starts a background prompt estimate. The channel is closed
// without a value when no tokenizer is configured or counting fails.
func (h *Handlers) countTokens(req *types.UpstreamChatRequest) <-chan int {
	tokensChan := make(chan int, 1)
	go func() {
		defer close(tokensChan)
		if h.Tokenizer == nil {
			return
		}
		if tokens, err := h.Tokenizer.CountRequest(req); err == nil {
			tokensChan <- tokens
		}
	}()
	return tokensChan
}

// awaitTokens waits briefly for the estimate; counting never delays the reply
// by more than tokenCountTimeout.
func awaitTokens(tokensChan <-chan int) (int, bool) {
	select {
	case tokens, ok := <-tokensChan:
		return tokens, ok
	case <-time.After(tokenCountTimeout):
		return 0, false
	}
}

func (h *Handlers) observeUpstream(completion *provider.Completion, err error, elapsed time.Duration) {
	var upErr *provider.UpstreamError
	switch {
	case completion != nil:
		h.Metrics.ObserveUpstream(completion.StatusCode, completion.Duration)
	case errors.As(err, &upErr):
		h.Metrics.ObserveUpstream(upErr.StatusCode, upErr.Duration)
	default:
		h.Metrics.ObserveUpstream(0, elapsed)
	}
}
