package postgres

import (
	"context"
	"testing"
	"time"

	"custodial-exchange/internal/core/domain"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *domain.Client {
	return &domain.Client{
		ID:           1,
		Name:         "Acme Exchange",
		Username:     "acme-ops",
		PasswordHash: "$argon2id$hash",
		KeyID:        11,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func clientColumns() []string {
	return []string{"id", "name", "username", "password_hash", "key_id", "created_at"}
}

func clientRow(c *domain.Client) *pgxmock.Rows {
	return pgxmock.NewRows(clientColumns()).AddRow(
		c.ID, c.Name, c.Username, c.PasswordHash, c.KeyID, c.CreatedAt,
	)
}

func TestClientRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewClientRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)
	c := &domain.Client{Name: "Acme Exchange", Username: "acme-ops", PasswordHash: "$argon2id$hash", CreatedAt: now}
	k := &domain.Key{Secret: "deadbeef", CreatedAt: now}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO keys").
		WithArgs(k.Secret, k.CreatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectQuery("INSERT INTO clients").
		WithArgs(c.Name, c.Username, c.PasswordHash, int64(11), c.CreatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	err = repo.Create(context.Background(), c, k)
	require.NoError(t, err)
	assert.Equal(t, int64(11), k.ID)
	assert.Equal(t, int64(11), c.KeyID)
	assert.Equal(t, int64(1), c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientRepo_Create_KeyInsertFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewClientRepo(mock)
	now := time.Now().UTC()
	c := &domain.Client{Username: "acme-ops", CreatedAt: now}
	k := &domain.Key{Secret: "deadbeef", CreatedAt: now}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO keys").
		WithArgs(k.Secret, k.CreatedAt).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = repo.Create(context.Background(), c, k)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewClientRepo(mock)
	c := newTestClient()

	mock.ExpectQuery("SELECT .+ FROM clients WHERE id").
		WithArgs(c.ID).
		WillReturnRows(clientRow(c))

	result, err := repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, c.Username, result.Username)
	assert.Equal(t, c.KeyID, result.KeyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientRepo_GetByUsername_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewClientRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM clients WHERE username").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows(clientColumns()))

	result, err := repo.GetByUsername(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientRepo_GetKey(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewClientRepo(mock)
	createdAt := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery("SELECT .+ FROM keys WHERE id").
		WithArgs(int64(11)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "secret", "created_at"}).
			AddRow(int64(11), "deadbeef", createdAt))

	key, err := repo.GetKey(context.Background(), 11)
	require.NoError(t, err)
	require.NotNil(t, key)
	assert.Equal(t, "deadbeef", key.Secret)
	assert.NoError(t, mock.ExpectationsWereMet())
}
