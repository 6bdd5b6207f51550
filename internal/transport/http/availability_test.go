package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tilford/calhold/internal/domain"
)

type stubAvailability struct {
	available bool
	err       error

	calendar string
	start    time.Time
	end      time.Time
}

func (s *stubAvailability) CheckAvailability(ctx context.Context, calendarEmail string, start, end time.Time) (bool, error) {
	s.calendar = calendarEmail
	s.start = start
	s.end = end
	return s.available, s.err
}

func TestHandleAvailability(t *testing.T) {
	t.Parallel()

	t.Run("available", func(t *testing.T) {
		t.Parallel()
		svc := &stubAvailability{available: true}
		req := httptest.NewRequest(http.MethodGet,
			"/availability?calendar=cal-a@example.com&start=2025-03-01T10:00:00Z&end=2025-03-01T10:30:00Z", nil)
		rec := httptest.NewRecorder()

		HandleAvailability(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"available":true`) {
			t.Fatalf("expected available true, got %s", rec.Body.String())
		}
		if svc.calendar != "cal-a@example.com" {
			t.Fatalf("expected calendar forwarded, got %q", svc.calendar)
		}
	})

	t.Run("unavailable", func(t *testing.T) {
		t.Parallel()
		svc := &stubAvailability{available: false}
		req := httptest.NewRequest(http.MethodGet,
			"/availability?calendar=cal-a@example.com&start=2025-03-01T10:00:00Z&end=2025-03-01T10:30:00Z", nil)
		rec := httptest.NewRecorder()

		HandleAvailability(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"available":false`) {
			t.Fatalf("expected available false, got %s", rec.Body.String())
		}
	})

	t.Run("missing calendar", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet,
			"/availability?start=2025-03-01T10:00:00Z&end=2025-03-01T10:30:00Z", nil)
		rec := httptest.NewRecorder()

		HandleAvailability(&stubAvailability{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("malformed times", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet,
			"/availability?calendar=cal-a@example.com&start=tomorrow&end=2025-03-01T10:30:00Z", nil)
		rec := httptest.NewRecorder()

		HandleAvailability(&stubAvailability{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("invalid interval from service", func(t *testing.T) {
		t.Parallel()
		svc := &stubAvailability{err: domain.ErrInvalidInterval}
		req := httptest.NewRequest(http.MethodGet,
			"/availability?calendar=cal-a@example.com&start=2025-03-01T10:30:00Z&end=2025-03-01T10:00:00Z", nil)
		rec := httptest.NewRecorder()

		HandleAvailability(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown calendar", func(t *testing.T) {
		t.Parallel()
		svc := &stubAvailability{err: domain.ErrAccountNotFound}
		req := httptest.NewRequest(http.MethodGet,
			"/availability?calendar=missing@example.com&start=2025-03-01T10:00:00Z&end=2025-03-01T10:30:00Z", nil)
		rec := httptest.NewRecorder()

		HandleAvailability(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/availability", nil)
		rec := httptest.NewRecorder()

		HandleAvailability(&stubAvailability{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})
}
