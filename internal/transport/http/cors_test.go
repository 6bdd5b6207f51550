package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin echoed", func(t *testing.T) {
		t.Parallel()
		handler := CORS([]string{"http://localhost:5173"}, next)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
			t.Fatalf("expected origin echoed, got %q", got)
		}
	})

	t.Run("preflight for disallowed origin is forbidden", func(t *testing.T) {
		t.Parallel()
		handler := CORS([]string{"http://localhost:5173"}, next)
		req := httptest.NewRequest(http.MethodOptions, "/holds", nil)
		req.Header.Set("Origin", "http://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("preflight for allowed origin succeeds", func(t *testing.T) {
		t.Parallel()
		handler := CORS([]string{"http://localhost:5173"}, next)
		req := httptest.NewRequest(http.MethodOptions, "/holds", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Methods") == "" {
			t.Fatalf("expected allow-methods header")
		}
	})

	t.Run("no origin passes through", func(t *testing.T) {
		t.Parallel()
		handler := CORS([]string{"http://localhost:5173"}, next)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Fatalf("expected no CORS headers without origin")
		}
	})
}
