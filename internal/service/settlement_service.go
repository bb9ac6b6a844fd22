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

const dedupeTTL = 24 * time.Hour

// SettlementServiceImpl implements ports.SettlementService. Each settlement
// runs inside one database transaction holding the user row lock from first
// read to commit; any failed step rolls back every effect.
type SettlementServiceImpl struct {
	userRepo    ports.UserRepository
	txRepo      ports.TransactionRepository
	dedupeCache ports.DedupeCache
	oracle      ports.PriceOracle
	accessSvc   ports.AccessService
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	userRepo ports.UserRepository,
	txRepo ports.TransactionRepository,
	dedupeCache ports.DedupeCache,
	oracle ports.PriceOracle,
	accessSvc ports.AccessService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		userRepo:    userRepo,
		txRepo:      txRepo,
		dedupeCache: dedupeCache,
		oracle:      oracle,
		accessSvc:   accessSvc,
		transactor:  transactor,
		log:         log,
	}
}

// Buy consumes a pre-confirmed incoming payment and credits the purchased
// currency. The referenced journal entry must exist, match the request, and
// still be pending; completing it is the last mutation before commit.
func (s *SettlementServiceImpl) Buy(ctx context.Context, req ports.BuyRequest) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock target user row for the whole settlement
	user, err := s.userRepo.GetByIDForUpdate(ctx, dbTx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound(req.UserID)
	}
	if err := s.accessSvc.AuthorizeOwnership(req.Client, user); err != nil {
		return nil, err
	}

	// Locate the pending payment: identity, then field match, then
	// completion state. The order lets a caller tell "wrong transaction"
	// from "right transaction, already used".
	txn, err := s.txRepo.GetByIDForUpdate(ctx, dbTx, req.TransactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrTransactionNotFound(req.TransactionID)
	}
	if !txn.MatchesExpectation(req.USDAmount, req.UserID) {
		return nil, apperror.ErrTransactionMismatch(txn.ID)
	}
	if txn.Complete {
		return nil, apperror.ErrAlreadyCompleted(txn.ID)
	}

	if err := s.verifyAuthorized(user, req.Symbol); err != nil {
		return nil, err
	}

	amount, err := s.oracle.ToCrypto(req.USDAmount, req.Symbol)
	if err != nil {
		return nil, err
	}

	user.AdjustBalance(req.Symbol, amount)
	if err := s.userRepo.UpdateHoldings(ctx, dbTx, user.ID, user.Holdings); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update holdings: %w", err))
	}

	now := time.Now().UTC()
	if err := s.txRepo.MarkComplete(ctx, dbTx, txn.ID, now); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark complete: %w", err))
	}
	txn.MarkComplete(now)

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Int64("transaction_id", txn.ID).
		Int64("user_id", user.ID).
		Str("symbol", string(req.Symbol)).
		Float64("usd_amount", req.USDAmount).
		Float64("credited", amount).
		Msg("buy settled")

	return txn, nil
}

// Sell debits the sold currency and records the outgoing USD proceeds as a
// new journal entry, already complete (a sell is self-confirmed). The dedupe
// key rejects replays: checked against the cache first, then authoritatively
// against the journal under the user lock.
func (s *SettlementServiceImpl) Sell(ctx context.Context, req ports.SellRequest) (*domain.Transaction, error) {
	seen, err := s.dedupeCache.Seen(ctx, req.Client.ID, req.DedupeKey)
	if err != nil {
		s.log.Warn().Err(err).Str("dedupe_key", req.DedupeKey).Msg("dedupe cache check failed, falling through to journal")
	} else if seen {
		return nil, apperror.ErrDuplicateSellOrder(req.DedupeKey)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	user, err := s.userRepo.GetByIDForUpdate(ctx, dbTx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound(req.UserID)
	}
	if err := s.accessSvc.AuthorizeOwnership(req.Client, user); err != nil {
		return nil, err
	}

	// Authoritative replay check, race-free under the user lock.
	exists, err := s.txRepo.DedupeKeyExists(ctx, dbTx, req.Client.ID, req.DedupeKey)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("dedupe check: %w", err))
	}
	if exists {
		return nil, apperror.ErrDuplicateSellOrder(req.DedupeKey)
	}

	if err := s.verifyAuthorized(user, req.Symbol); err != nil {
		return nil, err
	}
	if req.Amount > user.Balance(req.Symbol) {
		return nil, apperror.ErrInsufficientBalance(user.ID, string(req.Symbol), req.Amount)
	}

	usd, err := s.oracle.ToUSD(req.Amount, req.Symbol)
	if err != nil {
		return nil, err
	}

	user.AdjustBalance(req.Symbol, -req.Amount)
	if err := s.userRepo.UpdateHoldings(ctx, dbTx, user.ID, user.Holdings); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update holdings: %w", err))
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		USDAmount:    -usd,
		UserID:       user.ID,
		ClientID:     req.Client.ID,
		DedupeKey:    &req.DedupeKey,
		Complete:     true,
		IncTime:      now,
		CompleteTime: &now,
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	// Post-commit: cache the consumed dedupe key (best-effort)
	if err := s.dedupeCache.Mark(ctx, req.Client.ID, req.DedupeKey, dedupeTTL); err != nil {
		s.log.Warn().Err(err).Str("dedupe_key", req.DedupeKey).Msg("failed to cache dedupe key")
	}

	s.log.Info().
		Int64("transaction_id", txn.ID).
		Int64("user_id", user.ID).
		Str("symbol", string(req.Symbol)).
		Float64("sold", req.Amount).
		Float64("usd_proceeds", usd).
		Msg("sell settled")

	return txn, nil
}

// verifyAuthorized checks the symbol is supported and the user may trade it.
// The unknown-symbol check comes before the authorization flag.
func (s *SettlementServiceImpl) verifyAuthorized(user *domain.User, symbol domain.Symbol) error {
	if !symbol.IsAccepted() {
		return apperror.ErrUnknownSymbol(string(symbol))
	}
	if !user.IsAuthorized(symbol) {
		return apperror.ErrUnauthorizedSymbol(user.ID, string(symbol))
	}
	return nil
}
