package domain

import "time"

// CalendarAccount is one connected external calendar identity.
// Credentials are an opaque blob owned exclusively by this record.
type CalendarAccount struct {
	ID            string
	UserEmail     string
	CalendarEmail string
	IsPrimary     bool
	Priority      int
	IsActive      bool
	Credentials   []byte
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
