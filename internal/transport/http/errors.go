package http

import (
	"encoding/json"
	"net/http"

	"github.com/tilford/calhold/internal/domain"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidInterval    = "invalid_interval"
	codeInvalidID          = "invalid_id"
	codeUserEmailRequired  = "user_email_required"
	codeCalendarRequired   = "calendar_email_required"
	codeInquiryRequired    = "booking_inquiry_required"
	codeAccountNotFound    = "account_not_found"
	codeHoldNotFound       = "hold_not_found"
	codeSlotConflict       = "slot_conflict"
	codeInvalidTransition  = "invalid_state_transition"
	codeBusy               = "busy"
	codeDuplicateCalendar  = "calendar_already_connected"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps domain sentinels onto HTTP statuses and error codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrInvalidInterval:
		writeError(w, http.StatusBadRequest, codeInvalidInterval, err.Error())
	case domain.ErrInvalidID:
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case domain.ErrUserEmailRequired:
		writeError(w, http.StatusBadRequest, codeUserEmailRequired, err.Error())
	case domain.ErrCalendarRequired:
		writeError(w, http.StatusBadRequest, codeCalendarRequired, err.Error())
	case domain.ErrInquiryRequired:
		writeError(w, http.StatusBadRequest, codeInquiryRequired, err.Error())
	case domain.ErrAccountNotFound:
		writeError(w, http.StatusNotFound, codeAccountNotFound, err.Error())
	case domain.ErrHoldNotFound:
		writeError(w, http.StatusNotFound, codeHoldNotFound, err.Error())
	case domain.ErrSlotConflict:
		writeError(w, http.StatusConflict, codeSlotConflict, err.Error())
	case domain.ErrInvalidTransition:
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	case domain.ErrDuplicateCalendar:
		writeError(w, http.StatusConflict, codeDuplicateCalendar, err.Error())
	case domain.ErrBusy:
		writeError(w, http.StatusServiceUnavailable, codeBusy, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
