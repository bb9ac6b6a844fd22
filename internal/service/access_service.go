package service

import (
	"context"
	"fmt"

	"custodial-exchange/internal/core/domain"
	"custodial-exchange/internal/core/ports"
	"custodial-exchange/pkg/apperror"
)

// AccessServiceImpl implements ports.AccessService.
type AccessServiceImpl struct {
	clientRepo ports.ClientRepository
}

// NewAccessService creates a new AccessServiceImpl.
func NewAccessService(clientRepo ports.ClientRepository) *AccessServiceImpl {
	return &AccessServiceImpl{clientRepo: clientRepo}
}

// Authorize validates the presented API key against the client's stored key.
// The comparison is constant-time; a missing client and a wrong key are
// indistinguishable to the caller.
func (s *AccessServiceImpl) Authorize(ctx context.Context, clientID int64, presentedKey string) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch client: %w", err))
	}
	if client == nil {
		return nil, apperror.ErrInvalidAPIKey()
	}

	key, err := s.clientRepo.GetKey(ctx, client.KeyID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch key: %w", err))
	}
	if key == nil || !key.Matches(presentedKey) {
		return nil, apperror.ErrInvalidAPIKey()
	}

	return client, nil
}

// AuthorizeOwnership verifies the target user belongs to the client.
func (s *AccessServiceImpl) AuthorizeOwnership(client *domain.Client, user *domain.User) error {
	if !client.Owns(user) {
		return apperror.ErrUnauthorizedClient(client.ID, user.ID)
	}
	return nil
}
