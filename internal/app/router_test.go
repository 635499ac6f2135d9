package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mandalnilabja/chatrelay/internal/provider/openai"
	"github.com/mandalnilabja/chatrelay/internal/telemetry"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/handler"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/handler/proxy"
)

func newTestRouter(t *testing.T, upstreamURL string, allowed []string) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := telemetry.NewMetrics(nil)
	client := openai.New(openai.Options{APIKey: "sk-test", URL: upstreamURL})
	repo := handler.NewRepo(proxy.New(client, nil, metrics, logger, ""))

	return NewRouter(repo, &RouterOptions{
		ChatPath:       "/api/chat",
		AllowedOrigins: allowed,
		Logger:         logger,
		Metrics:        metrics,
	})
}

func newUpstream(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(router http.Handler, method, path, origin, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_ChatEndToEnd(t *testing.T) {
	upstream := newUpstream(t, http.StatusOK, `{"choices":[{"message":{"content":"  hello world  "}}]}`)
	router := newTestRouter(t, upstream.URL, []string{"https://example.com", "https://other.com"})

	rec := do(router, http.MethodPost, "/api/chat", "https://example.com", `{"prompt":"hi"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"text":"hello world"}` {
		t.Errorf("unexpected body %s", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Errorf("expected caller origin echoed, got %q", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
}

func TestRouter_UntrimmedOrigins(t *testing.T) {
	upstream := newUpstream(t, http.StatusOK, `{}`)
	router := newTestRouter(t, upstream.URL, []string{" ", "https://a.test"})

	tests := []struct {
		origin string
		want   string
	}{
		{origin: "https://evil.com", want: "*"},
		{origin: "https://a.test", want: "https://a.test"},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			rec := do(router, http.MethodOptions, "/api/chat", tt.origin, "")
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRouter_PreflightAndMethodGate(t *testing.T) {
	upstream := newUpstream(t, http.StatusOK, `{}`)
	router := newTestRouter(t, upstream.URL, []string{"https://example.com"})

	t.Run("OPTIONS", func(t *testing.T) {
		rec := do(router, http.MethodOptions, "/api/chat", "https://evil.com", "")
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("expected empty body, got %q", rec.Body.String())
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
			t.Errorf("expected first configured origin, got %q", got)
		}
		if got := rec.Header().Get("Access-Control-Max-Age"); got != "86400" {
			t.Errorf("expected max age 86400, got %q", got)
		}
	})

	t.Run("GET", func(t *testing.T) {
		rec := do(router, http.MethodGet, "/api/chat", "https://example.com", "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status 405, got %d", rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Method not allowed"}` {
			t.Errorf("unexpected body %q", got)
		}
		if got := rec.Header().Get("Vary"); got != "Origin" {
			t.Errorf("expected Vary: Origin on 405, got %q", got)
		}
	})
}

func TestRouter_UpstreamRejectionKeepsStatus(t *testing.T) {
	upstream := newUpstream(t, http.StatusTooManyRequests, "rate limited")
	router := newTestRouter(t, upstream.URL, nil)

	rec := do(router, http.MethodPost, "/api/chat", "", `{"prompt":"hi"}`)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"OpenAI error","details":"rate limited"}` {
		t.Errorf("unexpected body %s", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}

func TestRouter_InvalidInboundJSON(t *testing.T) {
	upstream := newUpstream(t, http.StatusOK, `{}`)
	router := newTestRouter(t, upstream.URL, nil)

	rec := do(router, http.MethodPost, "/api/chat", "", `not json`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Server error"}` {
		t.Errorf("unexpected body %q", got)
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	upstream := newUpstream(t, http.StatusOK, `{"choices":[{"message":{"content":"x"}}]}`)
	router := newTestRouter(t, upstream.URL, nil)

	do(router, http.MethodPost, "/api/chat", "", `{"prompt":"hi"}`)

	health := do(router, http.MethodGet, "/api/health", "", "")
	if health.Code != http.StatusOK {
		t.Errorf("expected health 200, got %d", health.Code)
	}

	metrics := do(router, http.MethodGet, "/metrics", "", "")
	if metrics.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", metrics.Code)
	}
	if !strings.Contains(metrics.Body.String(), `chatrelay_requests_total{outcome="success"} 1`) {
		t.Errorf("expected success counter, got:\n%s", metrics.Body.String())
	}
}
