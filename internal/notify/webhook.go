package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/tilford/calhold/internal/domain"
)

// Webhook posts hold lifecycle events to a configured HTTP endpoint.
// Delivery is fire-and-forget: failures are logged, never propagated, and
// never roll back the state transition that triggered them.
type Webhook struct {
	url     string
	client  *http.Client
	logger  *log.Logger
	timeout time.Duration
}

const defaultTimeout = 5 * time.Second

func NewWebhook(url string, logger *log.Logger) *Webhook {
	if logger == nil {
		logger = log.Default()
	}
	return &Webhook{
		url:     url,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  logger,
		timeout: defaultTimeout,
	}
}

type payload struct {
	Event            string    `json:"event"`
	HoldID           string    `json:"hold_id"`
	BookingInquiryID string    `json:"booking_inquiry_id"`
	CalendarEmail    string    `json:"calendar_email"`
	SlotStart        time.Time `json:"slot_start"`
	SlotEnd          time.Time `json:"slot_end"`
	Status           string    `json:"status"`
}

func (w *Webhook) HoldConfirmed(hold domain.ProvisionalHold) {
	go w.deliver("hold.confirmed", hold)
}

func (w *Webhook) HoldReleased(hold domain.ProvisionalHold) {
	go w.deliver("hold.released", hold)
}

func (w *Webhook) deliver(event string, hold domain.ProvisionalHold) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.send(ctx, event, hold); err != nil {
		w.logger.Printf("notify %s for hold %s failed: %v", event, hold.ID, err)
	}
}

func (w *Webhook) send(ctx context.Context, event string, hold domain.ProvisionalHold) error {
	body, err := json.Marshal(payload{
		Event:            event,
		HoldID:           hold.ID,
		BookingInquiryID: hold.BookingInquiryID,
		CalendarEmail:    hold.CalendarEmail,
		SlotStart:        hold.Slot.Start,
		SlotEnd:          hold.Slot.End,
		Status:           string(hold.Status),
	})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
