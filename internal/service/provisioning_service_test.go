package service

import (
	"context"
	"testing"

	"custodial-exchange/internal/core/domain"
	"custodial-exchange/internal/core/ports"
	"custodial-exchange/internal/core/ports/mocks"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type provisioningTestDeps struct {
	svc        *ProvisioningServiceImpl
	userRepo   *mocks.MockUserRepository
	txRepo     *mocks.MockTransactionRepository
	accessSvc  *mocks.MockAccessService
	transactor *mocks.MockDBTransactor
	ctrl       *gomock.Controller
}

func setupProvisioningService(t *testing.T) *provisioningTestDeps {
	ctrl := gomock.NewController(t)
	d := &provisioningTestDeps{
		userRepo:   mocks.NewMockUserRepository(ctrl),
		txRepo:     mocks.NewMockTransactionRepository(ctrl),
		accessSvc:  mocks.NewMockAccessService(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewProvisioningService(
		d.userRepo, d.txRepo, d.accessSvc, d.transactor, zerolog.Nop(),
	)
	return d
}

func TestProvisioningService_CreateUser(t *testing.T) {
	d := setupProvisioningService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.userRepo.EXPECT().Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, user *domain.User) error {
			assert.Equal(t, int64(1), user.ClientID)
			assert.True(t, user.IsAuthorized(domain.SymbolBTC))
			assert.False(t, user.IsAuthorized(domain.SymbolETH))
			assert.Zero(t, user.Balance(domain.SymbolBTC))
			user.ID = 7
			return nil
		})

	user, err := d.svc.CreateUser(ctx, 1, []domain.Symbol{domain.SymbolBTC})
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
}

func TestProvisioningService_CreateUser_UnknownSymbol(t *testing.T) {
	d := setupProvisioningService(t)
	defer d.ctrl.Finish()

	user, err := d.svc.CreateUser(context.Background(), 1, []domain.Symbol{"XRP"})
	assert.Nil(t, user)
	assertAppError(t, err, "TRD_001")
}

func TestProvisioningService_SetAuthorizations(t *testing.T) {
	d := setupProvisioningService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	user := &domain.User{ID: 7, ClientID: 1, Holdings: domain.NewHoldings(domain.SymbolBTC)}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.userRepo.EXPECT().GetByIDForUpdate(ctx, tx, int64(7)).Return(user, nil)
	d.userRepo.EXPECT().UpdateHoldings(ctx, tx, int64(7), gomock.Any()).Return(nil)

	updated, err := d.svc.SetAuthorizations(ctx, 1, 7, map[domain.Symbol]bool{
		domain.SymbolBTC: false,
		domain.SymbolETH: true,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsAuthorized(domain.SymbolBTC))
	assert.True(t, updated.IsAuthorized(domain.SymbolETH))
}

func TestProvisioningService_SetAuthorizations_WrongClient(t *testing.T) {
	d := setupProvisioningService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	user := &domain.User{ID: 7, ClientID: 2, Holdings: domain.NewHoldings()}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.userRepo.EXPECT().GetByIDForUpdate(ctx, tx, int64(7)).Return(user, nil)

	updated, err := d.svc.SetAuthorizations(ctx, 1, 7, map[domain.Symbol]bool{domain.SymbolBTC: true})
	assert.Nil(t, updated)
	assertAppError(t, err, "SEC_002")
}

func TestProvisioningService_RecordPayment(t *testing.T) {
	d := setupProvisioningService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	user := &domain.User{ID: 7, ClientID: 1, Holdings: domain.NewHoldings()}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.userRepo.EXPECT().GetByID(ctx, int64(7)).Return(user, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, txn *domain.Transaction) error {
			assert.Equal(t, 10.00, txn.USDAmount)
			assert.False(t, txn.Complete)
			assert.Nil(t, txn.DedupeKey)
			txn.ID = 42
			return nil
		})

	txn, err := d.svc.RecordPayment(ctx, 1, 7, 10.00)
	require.NoError(t, err)
	assert.Equal(t, int64(42), txn.ID)
	assert.False(t, txn.Complete)
}

func TestProvisioningService_RecordPayment_NonPositive(t *testing.T) {
	d := setupProvisioningService(t)
	defer d.ctrl.Finish()

	txn, err := d.svc.RecordPayment(context.Background(), 1, 7, 0)
	assert.Nil(t, txn)
	assertAppError(t, err, "VAL_001")

	txn, err = d.svc.RecordPayment(context.Background(), 1, 7, -5)
	assert.Nil(t, txn)
	assertAppError(t, err, "VAL_001")
}

func TestProvisioningService_RecordPayment_WrongClient(t *testing.T) {
	d := setupProvisioningService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	user := &domain.User{ID: 7, ClientID: 2, Holdings: domain.NewHoldings()}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.userRepo.EXPECT().GetByID(ctx, int64(7)).Return(user, nil)

	txn, err := d.svc.RecordPayment(ctx, 1, 7, 10)
	assert.Nil(t, txn)
	assertAppError(t, err, "SEC_002")
}

func TestProvisioningService_ListTransactions_ClampsPaging(t *testing.T) {
	d := setupProvisioningService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.txRepo.EXPECT().List(ctx, ports.TransactionListParams{
		ClientID: 1, Page: 1, PageSize: 20,
	}).Return([]domain.Transaction{{ID: 42}}, int64(1), nil)

	txns, total, err := d.svc.ListTransactions(ctx, ports.TransactionListParams{
		ClientID: 1, Page: 0, PageSize: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, txns, 1)
	assert.Equal(t, int64(42), txns[0].ID)
}
