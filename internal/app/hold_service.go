package app

import (
	"context"
	"time"

	"github.com/tilford/calhold/internal/clock"
	"github.com/tilford/calhold/internal/domain"
	"github.com/tilford/calhold/internal/metrics"
)

// HoldRepository is the storage contract for hold lifecycle operations.
type HoldRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// LockCalendar serializes hold creation per calendar for the duration of
	// the surrounding transaction. Returns domain.ErrBusy when the lock cannot
	// be acquired within the configured timeout.
	LockCalendar(ctx context.Context, calendarEmail string) error
	GetAccountByCalendar(ctx context.Context, calendarEmail string) (domain.CalendarAccount, error)
	HasOverlappingHold(ctx context.Context, accountID string, slot domain.Interval, now time.Time) (bool, error)
	CreateHold(ctx context.Context, hold domain.ProvisionalHold) error
	GetHoldForUpdate(ctx context.Context, holdID string) (domain.ProvisionalHold, error)
	MarkConfirmed(ctx context.Context, holdID, eventID string) error
	MarkReleased(ctx context.Context, holdID string, at time.Time) error
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// Notifier is told about terminal hold transitions. Implementations must not
// block; delivery failures never roll back the transition.
type Notifier interface {
	HoldConfirmed(hold domain.ProvisionalHold)
	HoldReleased(hold domain.ProvisionalHold)
}

type HoldService struct {
	repo     HoldRepository
	busy     BusySource
	clock    clock.Clock
	notifier Notifier
	metrics  *metrics.Metrics
	holdTTL  time.Duration
}

const defaultHoldTTL = 30 * time.Minute

func NewHoldService(repo HoldRepository, busy BusySource, clk clock.Clock, opts ...HoldServiceOption) *HoldService {
	svc := &HoldService{
		repo:    repo,
		busy:    busy,
		clock:   clk,
		holdTTL: defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type HoldServiceOption func(*HoldService)

// WithHoldTTL overrides the default TTL for new holds.
func WithHoldTTL(d time.Duration) HoldServiceOption {
	return func(s *HoldService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

// WithNotifier wires a notification channel for confirm/release transitions.
func WithNotifier(n Notifier) HoldServiceOption {
	return func(s *HoldService) {
		s.notifier = n
	}
}

// WithMetrics wires service counters.
func WithMetrics(m *metrics.Metrics) HoldServiceOption {
	return func(s *HoldService) {
		s.metrics = m
	}
}

type CreateHoldInput struct {
	CalendarEmail    string
	BookingInquiryID string
	Start            time.Time
	End              time.Time
	// TTL overrides the service default when positive.
	TTL time.Duration
}

// CreateHold claims [Start, End) on the calendar. The conflict check and the
// insert run inside one transaction serialized per calendar, so two concurrent
// creates for overlapping slots can never both commit.
func (s *HoldService) CreateHold(ctx context.Context, in CreateHoldInput) (domain.ProvisionalHold, error) {
	slot := domain.Interval{Start: in.Start, End: in.End}
	if !slot.Valid() {
		return domain.ProvisionalHold{}, domain.ErrInvalidInterval
	}
	if in.BookingInquiryID == "" {
		return domain.ProvisionalHold{}, domain.ErrInquiryRequired
	}

	ttl := s.holdTTL
	if in.TTL > 0 {
		ttl = in.TTL
	}
	now := s.clock.Now()

	// The busy overlay is read-only external data; query it before taking the
	// calendar lock so a slow provider cannot stall other writers.
	account, err := s.repo.GetAccountByCalendar(ctx, in.CalendarEmail)
	if err != nil {
		return domain.ProvisionalHold{}, err
	}
	if !account.IsActive {
		return domain.ProvisionalHold{}, domain.ErrAccountNotFound
	}
	if s.busy != nil {
		busy, err := s.busy.BusyIntervals(ctx, account, slot)
		if err != nil {
			return domain.ProvisionalHold{}, err
		}
		for _, iv := range busy {
			if slot.Overlaps(iv) {
				if s.metrics != nil {
					s.metrics.SlotConflicts.Inc()
				}
				return domain.ProvisionalHold{}, domain.ErrSlotConflict
			}
		}
	}

	hold := domain.ProvisionalHold{
		ID:                newID(),
		BookingInquiryID:  in.BookingInquiryID,
		CalendarAccountID: account.ID,
		CalendarEmail:     account.CalendarEmail,
		Slot:              slot,
		Status:            domain.HoldStatusActive,
		ExpiresAt:         now.Add(ttl),
		CreatedAt:         now,
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.LockCalendar(txCtx, account.CalendarEmail); err != nil {
			return err
		}
		overlapping, err := s.repo.HasOverlappingHold(txCtx, account.ID, slot, now)
		if err != nil {
			return err
		}
		if overlapping {
			return domain.ErrSlotConflict
		}
		return s.repo.CreateHold(txCtx, hold)
	})
	if err != nil {
		if err == domain.ErrSlotConflict && s.metrics != nil {
			s.metrics.SlotConflicts.Inc()
		}
		return domain.ProvisionalHold{}, err
	}

	if s.metrics != nil {
		s.metrics.HoldsCreated.Inc()
	}
	return hold, nil
}

// ConfirmHold transitions an active hold to confirmed, recording the calendar
// event that materialized it. A hold past its expiry time can no longer be
// confirmed even if the sweeper has not caught up with it yet.
func (s *HoldService) ConfirmHold(ctx context.Context, holdID, confirmedEventID string) (domain.ProvisionalHold, error) {
	if holdID == "" {
		return domain.ProvisionalHold{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var result domain.ProvisionalHold

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.repo.GetHoldForUpdate(txCtx, holdID)
		if err != nil {
			return err
		}
		if hold.Status != domain.HoldStatusActive {
			return domain.ErrInvalidTransition
		}
		if !hold.ExpiresAt.After(now) {
			return domain.ErrInvalidTransition
		}
		if err := s.repo.MarkConfirmed(txCtx, holdID, confirmedEventID); err != nil {
			return err
		}
		hold.Status = domain.HoldStatusConfirmed
		hold.ConfirmedEventID = &confirmedEventID
		result = hold
		return nil
	})
	if err != nil {
		return domain.ProvisionalHold{}, err
	}

	if s.notifier != nil {
		s.notifier.HoldConfirmed(result)
	}
	return result, nil
}

// ReleaseHold transitions an active hold to released. Releasing a hold that
// already reached a terminal state fails with ErrInvalidTransition.
func (s *HoldService) ReleaseHold(ctx context.Context, holdID string) (domain.ProvisionalHold, error) {
	if holdID == "" {
		return domain.ProvisionalHold{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var result domain.ProvisionalHold

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.repo.GetHoldForUpdate(txCtx, holdID)
		if err != nil {
			return err
		}
		if hold.Status != domain.HoldStatusActive {
			return domain.ErrInvalidTransition
		}
		if err := s.repo.MarkReleased(txCtx, holdID, now); err != nil {
			return err
		}
		hold.Status = domain.HoldStatusReleased
		hold.ReleasedAt = &now
		result = hold
		return nil
	})
	if err != nil {
		return domain.ProvisionalHold{}, err
	}

	if s.notifier != nil {
		s.notifier.HoldReleased(result)
	}
	return result, nil
}

// ExpireDue transitions every active hold whose expiry time has passed to
// expired and returns the number affected. Idempotent: a second call with the
// same instant affects zero additional holds.
func (s *HoldService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	n, err := s.repo.ExpireDue(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 && s.metrics != nil {
		s.metrics.HoldsExpired.Add(float64(n))
	}
	return n, nil
}
