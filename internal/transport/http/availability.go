package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// AvailabilityChecker is the minimal interface needed to answer availability
// queries.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, calendarEmail string, start, end time.Time) (bool, error)
}

// HandleAvailability returns an HTTP handler for availability lookups.
func HandleAvailability(svc AvailabilityChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		q := r.URL.Query()
		calendarEmail := q.Get("calendar")
		if calendarEmail == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "calendar is required")
			return
		}
		start, err := time.Parse(time.RFC3339, q.Get("start"))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidInterval, "start must be RFC 3339")
			return
		}
		end, err := time.Parse(time.RFC3339, q.Get("end"))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidInterval, "end must be RFC 3339")
			return
		}

		available, err := svc.CheckAvailability(r.Context(), calendarEmail, start, end)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(availabilityResponse{
			Calendar:  calendarEmail,
			Start:     start,
			End:       end,
			Available: available,
		})
	}
}

type availabilityResponse struct {
	Calendar  string    `json:"calendar"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}
