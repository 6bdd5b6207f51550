package notify

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilford/calhold/internal/domain"
)

func testHold() domain.ProvisionalHold {
	return domain.ProvisionalHold{
		ID:               "hold-1",
		BookingInquiryID: "inq-1",
		CalendarEmail:    "cal-a@example.com",
		Slot: domain.Interval{
			Start: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		},
		Status: domain.HoldStatusConfirmed,
	}
}

func TestWebhookSend(t *testing.T) {
	var (
		gotPath        string
		gotContentType string
		gotBody        []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	wh := NewWebhook(server.URL+"/events", log.New(io.Discard, "", 0))
	err := wh.send(context.Background(), "hold.confirmed", testHold())
	require.NoError(t, err)

	assert.Equal(t, "/events", gotPath)
	assert.Equal(t, "application/json", gotContentType)

	var p map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &p))
	assert.Equal(t, "hold.confirmed", p["event"])
	assert.Equal(t, "hold-1", p["hold_id"])
	assert.Equal(t, "inq-1", p["booking_inquiry_id"])
	assert.Equal(t, "cal-a@example.com", p["calendar_email"])
	assert.Equal(t, "confirmed", p["status"])
}

func TestWebhookSend_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	wh := NewWebhook(server.URL, log.New(io.Discard, "", 0))
	err := wh.send(context.Background(), "hold.released", testHold())
	assert.Error(t, err)
}

func TestWebhookDelivery_NeverBlocksCaller(t *testing.T) {
	received := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		_ = json.NewDecoder(r.Body).Decode(&p)
		event, _ := p["event"].(string)
		received <- event
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	wh := NewWebhook(server.URL, log.New(io.Discard, "", 0))
	wh.HoldReleased(testHold())

	select {
	case event := <-received:
		assert.Equal(t, "hold.released", event)
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was never delivered")
	}
}

func TestWebhookDelivery_FailureOnlyLogs(t *testing.T) {
	wh := NewWebhook("http://127.0.0.1:1/unreachable", log.New(io.Discard, "", 0))

	// Must return immediately and swallow the delivery error.
	done := make(chan struct{})
	go func() {
		wh.HoldConfirmed(testHold())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notification call blocked")
	}
}
