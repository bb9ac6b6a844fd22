package service

import (
	"context"
	"testing"
	"time"

	"custodial-exchange/internal/core/domain"
	"custodial-exchange/internal/core/ports"
	"custodial-exchange/internal/core/ports/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type authTestDeps struct {
	svc        *AuthServiceImpl
	clientRepo *mocks.MockClientRepository
	hashSvc    *mocks.MockHashService
	tokenSvc   *mocks.MockTokenService
	ctrl       *gomock.Controller
}

func setupAuthService(t *testing.T) *authTestDeps {
	ctrl := gomock.NewController(t)
	d := &authTestDeps{
		clientRepo: mocks.NewMockClientRepository(ctrl),
		hashSvc:    mocks.NewMockHashService(ctrl),
		tokenSvc:   mocks.NewMockTokenService(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewAuthService(d.clientRepo, d.hashSvc, d.tokenSvc)
	return d
}

func TestAuthService_Register_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.clientRepo.EXPECT().GetByUsername(ctx, "acme-ops").Return(nil, nil)
	d.hashSvc.EXPECT().Hash("s3cret!").Return("$argon2id$hash", nil)
	d.clientRepo.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, client *domain.Client, key *domain.Key) error {
			assert.Equal(t, "Acme Exchange", client.Name)
			assert.Equal(t, "acme-ops", client.Username)
			assert.Equal(t, "$argon2id$hash", client.PasswordHash)
			assert.Len(t, key.Secret, 64) // 32 random bytes, hex encoded
			client.ID = 5
			return nil
		})

	resp, err := d.svc.Register(ctx, ports.RegisterRequest{
		Username:     "acme-ops",
		Password:     "s3cret!",
		ProviderName: "Acme Exchange",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.ClientID)
	assert.Len(t, resp.APIKey, 64)
}

func TestAuthService_Register_UsernameTaken(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.clientRepo.EXPECT().GetByUsername(ctx, "acme-ops").Return(&domain.Client{ID: 5}, nil)

	resp, err := d.svc.Register(ctx, ports.RegisterRequest{Username: "acme-ops", Password: "x"})
	assert.Nil(t, resp)
	assertAppError(t, err, "AUTH_002")
}

func TestAuthService_Login_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	expiry := time.Now().Add(24 * time.Hour)

	d.clientRepo.EXPECT().GetByUsername(ctx, "acme-ops").Return(&domain.Client{
		ID: 5, Username: "acme-ops", PasswordHash: "$argon2id$hash",
	}, nil)
	d.hashSvc.EXPECT().Verify("s3cret!", "$argon2id$hash").Return(true, nil)
	d.tokenSvc.EXPECT().Generate(int64(5), "acme-ops").Return("jwt-token", expiry, nil)

	token, expiresAt, err := d.svc.Login(ctx, "acme-ops", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
	assert.Equal(t, expiry, expiresAt)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.clientRepo.EXPECT().GetByUsername(ctx, "acme-ops").Return(&domain.Client{
		ID: 5, PasswordHash: "$argon2id$hash",
	}, nil)
	d.hashSvc.EXPECT().Verify("wrong", "$argon2id$hash").Return(false, nil)

	token, _, err := d.svc.Login(ctx, "acme-ops", "wrong")
	assert.Empty(t, token)
	assertAppError(t, err, "AUTH_001")
}

func TestAuthService_Login_UnknownUsername(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.clientRepo.EXPECT().GetByUsername(ctx, "ghost").Return(nil, nil)

	token, _, err := d.svc.Login(ctx, "ghost", "whatever")
	assert.Empty(t, token)
	assertAppError(t, err, "AUTH_001")
}
