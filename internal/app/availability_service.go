package app

import (
	"context"
	"time"

	"github.com/tilford/calhold/internal/clock"
	"github.com/tilford/calhold/internal/domain"
)

// AvailabilityRepository is the read-side storage needed for conflict checks.
type AvailabilityRepository interface {
	GetAccountByCalendar(ctx context.Context, calendarEmail string) (domain.CalendarAccount, error)
	ListActiveHolds(ctx context.Context, accountID string, now time.Time) ([]domain.ProvisionalHold, error)
}

// BusySource supplies externally-known busy periods for a calendar account.
// The returned intervals are a read-only overlay; the service never writes
// through this interface.
type BusySource interface {
	BusyIntervals(ctx context.Context, account domain.CalendarAccount, window domain.Interval) ([]domain.Interval, error)
}

type AvailabilityService struct {
	repo  AvailabilityRepository
	busy  BusySource
	clock clock.Clock
}

func NewAvailabilityService(repo AvailabilityRepository, busy BusySource, clk clock.Clock) *AvailabilityService {
	return &AvailabilityService{
		repo:  repo,
		busy:  busy,
		clock: clk,
	}
}

// CheckAvailability reports whether [start, end) on the given calendar is free
// of active holds and externally-busy periods. Pure query, no side effects.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, calendarEmail string, start, end time.Time) (bool, error) {
	candidate := domain.Interval{Start: start, End: end}
	if !candidate.Valid() {
		return false, domain.ErrInvalidInterval
	}

	account, err := s.repo.GetAccountByCalendar(ctx, calendarEmail)
	if err != nil {
		return false, err
	}
	if !account.IsActive {
		return false, domain.ErrAccountNotFound
	}

	now := s.clock.Now()
	holds, err := s.repo.ListActiveHolds(ctx, account.ID, now)
	if err != nil {
		return false, err
	}
	for _, h := range holds {
		if candidate.Overlaps(h.Slot) {
			return false, nil
		}
	}

	if s.busy != nil {
		busy, err := s.busy.BusyIntervals(ctx, account, candidate)
		if err != nil {
			return false, err
		}
		for _, iv := range busy {
			if candidate.Overlaps(iv) {
				return false, nil
			}
		}
	}

	return true, nil
}
