package service

import (
	"context"
	"fmt"
	"time"

	"custodial-exchange/internal/core/domain"
	"custodial-exchange/internal/core/ports"
	"custodial-exchange/pkg/apperror"

	"github.com/rs/zerolog"
)

// ProvisioningServiceImpl implements ports.ProvisioningService: the operator
// surface that creates users, grants per-symbol authorizations, and records
// confirmed incoming payments for the buy workflow to consume.
type ProvisioningServiceImpl struct {
	userRepo   ports.UserRepository
	txRepo     ports.TransactionRepository
	accessSvc  ports.AccessService
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewProvisioningService creates a new ProvisioningServiceImpl.
func NewProvisioningService(
	userRepo ports.UserRepository,
	txRepo ports.TransactionRepository,
	accessSvc ports.AccessService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *ProvisioningServiceImpl {
	return &ProvisioningServiceImpl{
		userRepo:   userRepo,
		txRepo:     txRepo,
		accessSvc:  accessSvc,
		transactor: transactor,
		log:        log,
	}
}

// CreateUser provisions a custodial user owned by the client, with zero
// balances and the given symbols authorized.
func (s *ProvisioningServiceImpl) CreateUser(ctx context.Context, clientID int64, authorized []domain.Symbol) (*domain.User, error) {
	for _, sym := range authorized {
		if !sym.IsAccepted() {
			return nil, apperror.ErrUnknownSymbol(string(sym))
		}
	}

	now := time.Now().UTC()
	user := &domain.User{
		ClientID:  clientID,
		Holdings:  domain.NewHoldings(authorized...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
	}

	s.log.Info().
		Int64("user_id", user.ID).
		Int64("client_id", clientID).
		Msg("user provisioned")

	return user, nil
}

// SetAuthorizations updates per-symbol trading flags under the user lock so
// a concurrent settlement never observes a half-applied grant set.
func (s *ProvisioningServiceImpl) SetAuthorizations(ctx context.Context, clientID, userID int64, grants map[domain.Symbol]bool) (*domain.User, error) {
	for sym := range grants {
		if !sym.IsAccepted() {
			return nil, apperror.ErrUnknownSymbol(string(sym))
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	user, err := s.userRepo.GetByIDForUpdate(ctx, dbTx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound(userID)
	}
	if user.ClientID != clientID {
		return nil, apperror.ErrUnauthorizedClient(clientID, userID)
	}

	for sym, allowed := range grants {
		user.SetAuthorized(sym, allowed)
	}
	if err := s.userRepo.UpdateHoldings(ctx, dbTx, user.ID, user.Holdings); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update holdings: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	return user, nil
}

// RecordPayment journals a confirmed incoming USD payment as a pending
// transaction. The buy workflow later completes it; until then it stays
// incomplete.
func (s *ProvisioningServiceImpl) RecordPayment(ctx context.Context, clientID, userID int64, usdAmount float64) (*domain.Transaction, error) {
	if usdAmount <= 0 {
		return nil, apperror.Validation("usd_amount must be positive")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound(userID)
	}
	if user.ClientID != clientID {
		return nil, apperror.ErrUnauthorizedClient(clientID, userID)
	}

	txn := &domain.Transaction{
		USDAmount: usdAmount,
		UserID:    userID,
		ClientID:  clientID,
		IncTime:   time.Now().UTC(),
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Int64("transaction_id", txn.ID).
		Int64("user_id", userID).
		Float64("usd_amount", usdAmount).
		Msg("incoming payment recorded")

	return txn, nil
}

// ListTransactions returns the client's journal entries with pagination.
func (s *ProvisioningServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, total, nil
}
