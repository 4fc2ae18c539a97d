package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ctxutil "3tcapital/ms_extraccion_gastos/internal/infrastructure/context"
)

func newNullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTracedClientDo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Correlation-ID") == "" {
			t.Error("X-Correlation-ID header not set")
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer server.Close()

	client := NewTracedClient(&TracedClientConfig{
		LogRequestBody:  true,
		LogResponseBody: true,
		MaxBodySize:     1024,
	}, newNullLogger(), "gemini")

	ctx := ctxutil.WithCorrelationID(context.Background(), "test-correlation-123")
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	// The tracer must restore the body for the caller.
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "success") {
		t.Error("response body not properly restored")
	}
}

func TestTracedClientDoWithRequestBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "test_data") {
			t.Error("request body not properly forwarded")
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"received":true}`))
	}))
	defer server.Close()

	client := NewTracedClient(&TracedClientConfig{
		LogRequestBody:  true,
		LogResponseBody: true,
		MaxBodySize:     1024,
	}, newNullLogger(), "gemini")

	ctx := ctxutil.WithCorrelationID(context.Background(), "test-correlation-456")
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, server.URL, strings.NewReader(`{"test_data":"value"}`))

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestTracedClientDoWithoutCorrelationID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Correlation-ID") != "" {
			t.Error("X-Correlation-ID header should not be set without a correlation ID")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewTracedClient(&TracedClientConfig{}, newNullLogger(), "gemini")

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
}

func TestTracedClientDoServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	client := NewTracedClient(&TracedClientConfig{LogResponseBody: true, MaxBodySize: 1024}, newNullLogger(), "gemini")

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", resp.StatusCode)
	}
}

func TestExtractOperation(t *testing.T) {
	client := NewTracedClient(&TracedClientConfig{}, newNullLogger(), "gemini")

	tests := []struct {
		url      string
		expected string
	}{
		{"https://example.com/v1beta/files", "Files"},
		{"https://example.com/upload/v1beta/files", "Files"},
		{"https://example.com/", "GET_gemini"},
	}

	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodGet, tt.url, nil)
		if got := client.extractOperation(req); got != tt.expected {
			t.Errorf("extractOperation(%s) = %q, want %q", tt.url, got, tt.expected)
		}
	}
}
