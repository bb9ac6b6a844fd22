package service

import (
	"context"
	"fmt"

	"custodial-exchange/internal/core/domain"
	"custodial-exchange/internal/core/ports"
	"custodial-exchange/pkg/apperror"
)

// AccountServiceImpl implements ports.AccountService: the client-facing
// read operations. Reads take no lock; they observe whatever the last
// committed settlement produced.
type AccountServiceImpl struct {
	userRepo  ports.UserRepository
	accessSvc ports.AccessService
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(userRepo ports.UserRepository, accessSvc ports.AccessService) *AccountServiceImpl {
	return &AccountServiceImpl{userRepo: userRepo, accessSvc: accessSvc}
}

// ListAuthorizations returns the currencies the user may trade.
func (s *AccountServiceImpl) ListAuthorizations(ctx context.Context, client *domain.Client, userID int64) (*ports.AuthorizationSummary, error) {
	user, err := s.loadOwnedUser(ctx, client, userID)
	if err != nil {
		return nil, err
	}

	return &ports.AuthorizationSummary{
		UserID:   user.ID,
		Provider: client.Name,
		Symbols:  user.AuthorizedSymbols(),
	}, nil
}

// GetBalances returns the user's non-zero holdings.
func (s *AccountServiceImpl) GetBalances(ctx context.Context, client *domain.Client, userID int64) (*ports.BalanceSummary, error) {
	user, err := s.loadOwnedUser(ctx, client, userID)
	if err != nil {
		return nil, err
	}

	return &ports.BalanceSummary{
		UserID:   user.ID,
		Provider: client.Name,
		Balances: user.NonZeroBalances(),
	}, nil
}

func (s *AccountServiceImpl) loadOwnedUser(ctx context.Context, client *domain.Client, userID int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound(userID)
	}
	if err := s.accessSvc.AuthorizeOwnership(client, user); err != nil {
		return nil, err
	}
	return user, nil
}
