package service

import (
	"context"
	"errors"
	"testing"

	"custodial-exchange/internal/core/domain"
	"custodial-exchange/internal/core/ports/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAccessService_Authorize_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clientRepo := mocks.NewMockClientRepository(ctrl)
	svc := NewAccessService(clientRepo)

	ctx := context.Background()
	stored := &domain.Client{ID: 1, Name: "acme-exchange", KeyID: 11}

	clientRepo.EXPECT().GetByID(ctx, int64(1)).Return(stored, nil)
	clientRepo.EXPECT().GetKey(ctx, int64(11)).Return(&domain.Key{ID: 11, Secret: "abc123"}, nil)

	client, err := svc.Authorize(ctx, 1, "abc123")
	require.NoError(t, err)
	assert.Equal(t, stored, client)
}

func TestAccessService_Authorize_WrongKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clientRepo := mocks.NewMockClientRepository(ctrl)
	svc := NewAccessService(clientRepo)

	ctx := context.Background()

	clientRepo.EXPECT().GetByID(ctx, int64(1)).Return(&domain.Client{ID: 1, KeyID: 11}, nil)
	clientRepo.EXPECT().GetKey(ctx, int64(11)).Return(&domain.Key{ID: 11, Secret: "abc123"}, nil)

	client, err := svc.Authorize(ctx, 1, "abc124")
	assert.Nil(t, client)
	assertAppError(t, err, "SEC_001")
}

func TestAccessService_Authorize_UnknownClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clientRepo := mocks.NewMockClientRepository(ctrl)
	svc := NewAccessService(clientRepo)

	ctx := context.Background()
	clientRepo.EXPECT().GetByID(ctx, int64(99)).Return(nil, nil)

	// unknown client and wrong key look identical to the caller
	client, err := svc.Authorize(ctx, 99, "abc123")
	assert.Nil(t, client)
	assertAppError(t, err, "SEC_001")
}

func TestAccessService_Authorize_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clientRepo := mocks.NewMockClientRepository(ctrl)
	svc := NewAccessService(clientRepo)

	ctx := context.Background()
	clientRepo.EXPECT().GetByID(ctx, int64(1)).Return(nil, errors.New("db down"))

	client, err := svc.Authorize(ctx, 1, "abc123")
	assert.Nil(t, client)
	assertAppError(t, err, "SYS_001")
}

func TestAccessService_AuthorizeOwnership(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := NewAccessService(mocks.NewMockClientRepository(ctrl))

	client := &domain.Client{ID: 1}
	owned := &domain.User{ID: 7, ClientID: 1}
	foreign := &domain.User{ID: 8, ClientID: 2}

	assert.NoError(t, svc.AuthorizeOwnership(client, owned))
	assertAppError(t, svc.AuthorizeOwnership(client, foreign), "SEC_002")
}
