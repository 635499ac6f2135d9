package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mandalnilabja/chatrelay/internal/telemetry"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestCORSPolicy_AllowOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{name: "wildcard echoes caller", allowed: []string{"*"}, origin: "https://a.test", want: "https://a.test"},
		{name: "wildcard without origin", allowed: []string{"*"}, origin: "", want: "*"},
		{name: "listed origin echoed", allowed: []string{"https://example.com", "https://other.com"}, origin: "https://example.com", want: "https://example.com"},
		{name: "second listed origin echoed", allowed: []string{"https://example.com", "https://other.com"}, origin: "https://other.com", want: "https://other.com"},
		{name: "unlisted falls back to first", allowed: []string{"https://example.com"}, origin: "https://evil.com", want: "https://example.com"},
		{name: "missing origin falls back to first", allowed: []string{"https://example.com"}, origin: "", want: "https://example.com"},
		{name: "wildcard anywhere in list", allowed: []string{"https://example.com", "*"}, origin: "https://evil.com", want: "https://evil.com"},
		{name: "blank first entry falls back to wildcard", allowed: []string{"", "https://example.com"}, origin: "https://evil.com", want: "*"},
		{name: "empty list allows all", allowed: nil, origin: "https://a.test", want: "https://a.test"},
		{name: "entries matched after trimming", allowed: []string{" https://a.test ", "https://b.test"}, origin: "https://a.test", want: "https://a.test"},
		{name: "fallback origin is trimmed", allowed: []string{"  https://example.com "}, origin: "https://evil.com", want: "https://example.com"},
		{name: "whitespace first entry falls back to wildcard", allowed: []string{" ", "https://a.test"}, origin: "https://evil.com", want: "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewCORSPolicy(tt.allowed).AllowOrigin(tt.origin); got != tt.want {
				t.Errorf("AllowOrigin(%q) = %q, want %q", tt.origin, got, tt.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	metrics := telemetry.NewMetrics(nil)
	nextCalled := false
	handler := CORS(NewCORSPolicy([]string{"https://example.com"}), metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	assertHeaders := func(t *testing.T, rec *httptest.ResponseRecorder, wantOrigin string) {
		t.Helper()
		want := map[string]string{
			"Access-Control-Allow-Origin":  wantOrigin,
			"Vary":                         "Origin",
			"Access-Control-Allow-Methods": "POST, OPTIONS",
			"Access-Control-Allow-Headers": "Content-Type",
			"Access-Control-Max-Age":       "86400",
		}
		for k, v := range want {
			if got := rec.Header().Get(k); got != v {
				t.Errorf("header %s = %q, want %q", k, got, v)
			}
		}
	}

	t.Run("sets CORS headers on regular request", func(t *testing.T) {
		nextCalled = false
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.Header.Set("Origin", "https://example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assertHeaders(t, rec, "https://example.com")
		if !nextCalled {
			t.Error("expected next handler to be called")
		}
	})

	t.Run("handles OPTIONS preflight request", func(t *testing.T) {
		nextCalled = false
		req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
		req.Header.Set("Origin", "https://evil.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("expected empty body, got %q", rec.Body.String())
		}
		if nextCalled {
			t.Error("preflight must not reach the handler")
		}
		assertHeaders(t, rec, "https://example.com")
		if got := testutil.ToFloat64(metrics.Preflights()); got != 1 {
			t.Errorf("expected one recorded preflight, got %v", got)
		}
	})
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name       string
		existingID string
	}{
		{name: "generates new ID when none provided", existingID: ""},
		{name: "uses existing ID from header", existingID: "existing-request-id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedID string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedID = GetRequestID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.existingID != "" {
				req.Header.Set(RequestIDHeader, tt.existingID)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			respID := rec.Header().Get(RequestIDHeader)
			if respID == "" {
				t.Error("expected X-Request-ID in response header")
			}
			if capturedID != respID {
				t.Errorf("context ID %q does not match header %q", capturedID, respID)
			}
			if tt.existingID != "" && respID != tt.existingID {
				t.Errorf("expected ID %q, got %q", tt.existingID, respID)
			}
		})
	}
}

func TestGetRequestID_NoContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("expected empty ID, got %q", id)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status %d, got %d", http.StatusTeapot, rec.Code)
	}
	if !strings.Contains(buf.String(), "status=418") {
		t.Errorf("expected first status in log, got %q", buf.String())
	}
}

func TestRecover(t *testing.T) {
	handler := Recover(discardLogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Server error"}` {
		t.Errorf("unexpected body %q", got)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Error("panic value leaked to caller")
	}
}

func TestRecover_AbortHandlerPropagates(t *testing.T) {
	handler := Recover(discardLogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
