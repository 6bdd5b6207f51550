package domain

import "time"

type HoldStatus string

const (
	HoldStatusActive    HoldStatus = "active"
	HoldStatusConfirmed HoldStatus = "confirmed"
	HoldStatusExpired   HoldStatus = "expired"
	HoldStatusReleased  HoldStatus = "released"
)

// Terminal reports whether no further transitions are permitted.
func (s HoldStatus) Terminal() bool {
	switch s {
	case HoldStatusConfirmed, HoldStatusExpired, HoldStatusReleased:
		return true
	}
	return false
}

// ProvisionalHold is a time-bounded claim on a calendar slot. It blocks
// conflicting holds until it is confirmed, released, or expires.
type ProvisionalHold struct {
	ID                string
	BookingInquiryID  string
	CalendarAccountID string
	CalendarEmail     string
	Slot              Interval
	Status            HoldStatus
	ExpiresAt         time.Time
	CreatedAt         time.Time
	ReleasedAt        *time.Time
	ConfirmedEventID  *string
	Metadata          map[string]string
}
