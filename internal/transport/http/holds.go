package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/tilford/calhold/internal/app"
	"github.com/tilford/calhold/internal/domain"
)

// HoldCreator is the minimal interface needed to create a hold.
type HoldCreator interface {
	CreateHold(ctx context.Context, in app.CreateHoldInput) (domain.ProvisionalHold, error)
}

// HoldMutator handles the confirm and release transitions.
type HoldMutator interface {
	ConfirmHold(ctx context.Context, holdID, confirmedEventID string) (domain.ProvisionalHold, error)
	ReleaseHold(ctx context.Context, holdID string) (domain.ProvisionalHold, error)
}

// HandleCreateHold returns an HTTP handler for creating holds.
func HandleCreateHold(svc HoldCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createHoldRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.CalendarEmail == "" || req.BookingInquiryID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "calendar_email and booking_inquiry_id are required")
			return
		}

		hold, err := svc.CreateHold(r.Context(), app.CreateHoldInput{
			CalendarEmail:    req.CalendarEmail,
			BookingInquiryID: req.BookingInquiryID,
			Start:            req.SlotStart,
			End:              req.SlotEnd,
			TTL:              time.Duration(req.TTLMinutes) * time.Minute,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(holdResponseFrom(hold))
	}
}

// HandleHoldAction routes POST /holds/{id}/confirm and /holds/{id}/release.
func HandleHoldAction(svc HoldMutator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		holdID, action, ok := parseHoldActionPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		var (
			hold domain.ProvisionalHold
			err  error
		)
		switch action {
		case "confirm":
			var req confirmHoldRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if decErr := dec.Decode(&req); decErr != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if req.EventID == "" {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "event_id is required")
				return
			}
			hold, err = svc.ConfirmHold(r.Context(), holdID, req.EventID)
		case "release":
			hold, err = svc.ReleaseHold(r.Context(), holdID)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(holdResponseFrom(hold))
	}
}

func parseHoldActionPath(path string) (holdID, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "holds" || parts[1] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

type createHoldRequest struct {
	CalendarEmail    string    `json:"calendar_email"`
	BookingInquiryID string    `json:"booking_inquiry_id"`
	SlotStart        time.Time `json:"slot_start"`
	SlotEnd          time.Time `json:"slot_end"`
	TTLMinutes       int       `json:"ttl_minutes,omitempty"`
}

type confirmHoldRequest struct {
	EventID string `json:"event_id"`
}

type holdResponse struct {
	ID               string     `json:"id"`
	BookingInquiryID string     `json:"booking_inquiry_id"`
	CalendarEmail    string     `json:"calendar_email"`
	SlotStart        time.Time  `json:"slot_start"`
	SlotEnd          time.Time  `json:"slot_end"`
	Status           string     `json:"status"`
	ExpiresAt        time.Time  `json:"expires_at"`
	ReleasedAt       *time.Time `json:"released_at,omitempty"`
	ConfirmedEventID *string    `json:"confirmed_event_id,omitempty"`
}

func holdResponseFrom(hold domain.ProvisionalHold) holdResponse {
	return holdResponse{
		ID:               hold.ID,
		BookingInquiryID: hold.BookingInquiryID,
		CalendarEmail:    hold.CalendarEmail,
		SlotStart:        hold.Slot.Start,
		SlotEnd:          hold.Slot.End,
		Status:           string(hold.Status),
		ExpiresAt:        hold.ExpiresAt,
		ReleasedAt:       hold.ReleasedAt,
		ConfirmedEventID: hold.ConfirmedEventID,
	}
}
