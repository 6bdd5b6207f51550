package app

import (
	"context"

	"github.com/tilford/calhold/internal/clock"
	"github.com/tilford/calhold/internal/domain"
)

// AccountRepository is the storage contract for the calendar account registry.
type AccountRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateAccount(ctx context.Context, account domain.CalendarAccount) error
	GetAccount(ctx context.Context, id string) (domain.CalendarAccount, error)
	GetAccountForUpdate(ctx context.Context, id string) (domain.CalendarAccount, error)
	ListAccountsByUser(ctx context.Context, userEmail string) ([]domain.CalendarAccount, error)
	SetActive(ctx context.Context, id string, active bool) error
	ClearPrimary(ctx context.Context, userEmail string) error
	SetPrimary(ctx context.Context, id string) error
	UpdateCredentials(ctx context.Context, id string, credentials []byte) error
}

type AccountService struct {
	repo  AccountRepository
	clock clock.Clock
}

func NewAccountService(repo AccountRepository, clk clock.Clock) *AccountService {
	return &AccountService{
		repo:  repo,
		clock: clk,
	}
}

type ConnectAccountInput struct {
	UserEmail     string
	CalendarEmail string
	Credentials   []byte
	Priority      int
	MakePrimary   bool
}

// ConnectAccount registers a newly authorized calendar for a user. When the
// account is made primary, any previous primary for the same user is demoted
// in the same transaction.
func (s *AccountService) ConnectAccount(ctx context.Context, in ConnectAccountInput) (domain.CalendarAccount, error) {
	if in.UserEmail == "" {
		return domain.CalendarAccount{}, domain.ErrUserEmailRequired
	}
	if in.CalendarEmail == "" {
		return domain.CalendarAccount{}, domain.ErrCalendarRequired
	}

	now := s.clock.Now()
	account := domain.CalendarAccount{
		ID:            newID(),
		UserEmail:     in.UserEmail,
		CalendarEmail: in.CalendarEmail,
		IsPrimary:     in.MakePrimary,
		Priority:      in.Priority,
		IsActive:      true,
		Credentials:   in.Credentials,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if in.MakePrimary {
			if err := s.repo.ClearPrimary(txCtx, in.UserEmail); err != nil {
				return err
			}
		}
		return s.repo.CreateAccount(txCtx, account)
	})
	if err != nil {
		return domain.CalendarAccount{}, err
	}
	return account, nil
}

// DisconnectAccount deactivates a calendar account. Accounts are never hard
// deleted while holds reference them; deactivation just removes them from
// conflict checking and new hold creation.
func (s *AccountService) DisconnectAccount(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	return s.repo.SetActive(ctx, id, false)
}

func (s *AccountService) ListAccounts(ctx context.Context, userEmail string) ([]domain.CalendarAccount, error) {
	if userEmail == "" {
		return nil, domain.ErrUserEmailRequired
	}
	return s.repo.ListAccountsByUser(ctx, userEmail)
}

// MakePrimary promotes the account to the single primary for its user.
func (s *AccountService) MakePrimary(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		account, err := s.repo.GetAccountForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.repo.ClearPrimary(txCtx, account.UserEmail); err != nil {
			return err
		}
		return s.repo.SetPrimary(txCtx, id)
	})
}

// RefreshCredentials replaces the stored credential blob. The account row is
// locked for the duration so concurrent refreshes are serialized per account.
func (s *AccountService) RefreshCredentials(ctx context.Context, id string, credentials []byte) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetAccountForUpdate(txCtx, id); err != nil {
			return err
		}
		return s.repo.UpdateCredentials(txCtx, id, credentials)
	})
}
