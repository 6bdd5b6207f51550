package app

import (
	"context"
	"sync"
	"time"

	"github.com/tilford/calhold/internal/domain"
)

type fakeHoldRepo struct {
	mu       sync.Mutex
	accounts map[string]domain.CalendarAccount
	holds    []domain.ProvisionalHold
	lockErr  error
	locks    int
}

func newFakeHoldRepo(accounts []domain.CalendarAccount, holds []domain.ProvisionalHold) *fakeHoldRepo {
	m := make(map[string]domain.CalendarAccount)
	for _, a := range accounts {
		m[a.CalendarEmail] = a
	}
	return &fakeHoldRepo{
		accounts: m,
		holds:    append([]domain.ProvisionalHold{}, holds...),
	}
}

func (f *fakeHoldRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeHoldRepo) LockCalendar(ctx context.Context, calendarEmail string) error {
	f.locks++
	return f.lockErr
}

func (f *fakeHoldRepo) GetAccountByCalendar(ctx context.Context, calendarEmail string) (domain.CalendarAccount, error) {
	a, ok := f.accounts[calendarEmail]
	if !ok {
		return domain.CalendarAccount{}, domain.ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeHoldRepo) HasOverlappingHold(ctx context.Context, accountID string, slot domain.Interval, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.holds {
		if h.CalendarAccountID != accountID || h.Status != domain.HoldStatusActive {
			continue
		}
		if !h.ExpiresAt.After(now) {
			continue
		}
		if slot.Overlaps(h.Slot) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeHoldRepo) ListActiveHolds(ctx context.Context, accountID string, now time.Time) ([]domain.ProvisionalHold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ProvisionalHold
	for _, h := range f.holds {
		if h.CalendarAccountID == accountID && h.Status == domain.HoldStatusActive && h.ExpiresAt.After(now) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHoldRepo) CreateHold(ctx context.Context, hold domain.ProvisionalHold) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holds = append(f.holds, hold)
	return nil
}

func (f *fakeHoldRepo) GetHoldForUpdate(ctx context.Context, holdID string) (domain.ProvisionalHold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.holds {
		if h.ID == holdID {
			return h, nil
		}
	}
	return domain.ProvisionalHold{}, domain.ErrHoldNotFound
}

func (f *fakeHoldRepo) MarkConfirmed(ctx context.Context, holdID, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.holds {
		if f.holds[i].ID != holdID {
			continue
		}
		if f.holds[i].Status != domain.HoldStatusActive {
			return domain.ErrInvalidTransition
		}
		f.holds[i].Status = domain.HoldStatusConfirmed
		f.holds[i].ConfirmedEventID = &eventID
		return nil
	}
	return domain.ErrHoldNotFound
}

func (f *fakeHoldRepo) MarkReleased(ctx context.Context, holdID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.holds {
		if f.holds[i].ID != holdID {
			continue
		}
		if f.holds[i].Status != domain.HoldStatusActive {
			return domain.ErrInvalidTransition
		}
		f.holds[i].Status = domain.HoldStatusReleased
		released := at
		f.holds[i].ReleasedAt = &released
		return nil
	}
	return domain.ErrHoldNotFound
}

func (f *fakeHoldRepo) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for i := range f.holds {
		if f.holds[i].Status == domain.HoldStatusActive && !f.holds[i].ExpiresAt.After(now) {
			f.holds[i].Status = domain.HoldStatusExpired
			n++
		}
	}
	return n, nil
}

func (f *fakeHoldRepo) statusOf(holdID string) domain.HoldStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.holds {
		if f.holds[i].ID == holdID {
			return f.holds[i].Status
		}
	}
	return ""
}

func (f *fakeHoldRepo) find(holdID string) *domain.ProvisionalHold {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.holds {
		if f.holds[i].ID == holdID {
			return &f.holds[i]
		}
	}
	return nil
}

type fakeBusySource struct {
	intervals []domain.Interval
	err       error
	calls     int
}

func (f *fakeBusySource) BusyIntervals(ctx context.Context, account domain.CalendarAccount, window domain.Interval) ([]domain.Interval, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.intervals, nil
}

type fakeNotifier struct {
	confirmed []domain.ProvisionalHold
	released  []domain.ProvisionalHold
}

func (f *fakeNotifier) HoldConfirmed(hold domain.ProvisionalHold) {
	f.confirmed = append(f.confirmed, hold)
}

func (f *fakeNotifier) HoldReleased(hold domain.ProvisionalHold) {
	f.released = append(f.released, hold)
}

type fakeAccountRepo struct {
	accounts map[string]*domain.CalendarAccount
}

func newFakeAccountRepo(accounts ...domain.CalendarAccount) *fakeAccountRepo {
	m := make(map[string]*domain.CalendarAccount)
	for i := range accounts {
		a := accounts[i]
		m[a.ID] = &a
	}
	return &fakeAccountRepo{accounts: m}
}

func (f *fakeAccountRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeAccountRepo) CreateAccount(ctx context.Context, account domain.CalendarAccount) error {
	for _, a := range f.accounts {
		if a.CalendarEmail == account.CalendarEmail {
			return domain.ErrDuplicateCalendar
		}
	}
	a := account
	f.accounts[a.ID] = &a
	return nil
}

func (f *fakeAccountRepo) GetAccount(ctx context.Context, id string) (domain.CalendarAccount, error) {
	a, ok := f.accounts[id]
	if !ok {
		return domain.CalendarAccount{}, domain.ErrAccountNotFound
	}
	return *a, nil
}

func (f *fakeAccountRepo) GetAccountForUpdate(ctx context.Context, id string) (domain.CalendarAccount, error) {
	return f.GetAccount(ctx, id)
}

func (f *fakeAccountRepo) ListAccountsByUser(ctx context.Context, userEmail string) ([]domain.CalendarAccount, error) {
	var out []domain.CalendarAccount
	for _, a := range f.accounts {
		if a.UserEmail == userEmail {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) SetActive(ctx context.Context, id string, active bool) error {
	a, ok := f.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.IsActive = active
	return nil
}

func (f *fakeAccountRepo) ClearPrimary(ctx context.Context, userEmail string) error {
	for _, a := range f.accounts {
		if a.UserEmail == userEmail {
			a.IsPrimary = false
		}
	}
	return nil
}

func (f *fakeAccountRepo) SetPrimary(ctx context.Context, id string) error {
	a, ok := f.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.IsPrimary = true
	return nil
}

func (f *fakeAccountRepo) UpdateCredentials(ctx context.Context, id string, credentials []byte) error {
	a, ok := f.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Credentials = credentials
	return nil
}
