package repository

import (
	"context"
	"testing"
	"time"

	"calendar-sync-api/core/database"
	"calendar-sync-api/modules/nylas/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (AccountRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewAccountRepository(database.NewFromSQLx(sqlxDB)), mock
}

func TestUpsertAccount(t *testing.T) {
	repo, mock := newMockRepo(t)

	userID := uuid.New()
	rowID := uuid.New()
	now := time.Now()
	expiry := now.Add(time.Hour)

	mock.ExpectQuery("INSERT INTO nylas_accounts").
		WithArgs(userID, "grant_1", "access-token", &expiry).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(rowID, now, now))

	account, err := repo.UpsertAccount(context.Background(), &entity.NylasAccount{
		UserID:         userID,
		GrantID:        "grant_1",
		AccessToken:    "access-token",
		TokenExpiresAt: &expiry,
	})
	require.NoError(t, err)
	assert.Equal(t, rowID, account.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountByUserID(t *testing.T) {
	repo, mock := newMockRepo(t)

	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM nylas_accounts").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "grant_id", "access_token", "token_expires_at", "created_at", "updated_at"}).
			AddRow(uuid.New(), userID, "grant_1", "access-token", nil, now, now))

	account, err := repo.GetAccountByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, "grant_1", account.GrantID)
	assert.Nil(t, account.TokenExpiresAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountByUserIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	userID := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM nylas_accounts").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "grant_id", "access_token", "token_expires_at", "created_at", "updated_at"}))

	account, err := repo.GetAccountByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, account)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountByGrantID(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM nylas_accounts").
		WithArgs("grant_1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "grant_id", "access_token", "token_expires_at", "created_at", "updated_at"}).
			AddRow(uuid.New(), uuid.New(), "grant_1", "access-token", nil, now, now))

	account, err := repo.GetAccountByGrantID(context.Background(), "grant_1")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, "grant_1", account.GrantID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAccountByUserID(t *testing.T) {
	repo, mock := newMockRepo(t)

	userID := uuid.New()
	mock.ExpectExec("DELETE FROM nylas_accounts").
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteAccountByUserID(context.Background(), userID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAccountByGrantID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM nylas_accounts").
		WithArgs("grant_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteAccountByGrantID(context.Background(), "grant_1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
