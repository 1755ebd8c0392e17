package repository

import (
	"context"
	"database/sql"
	"errors"

	"calendar-sync-api/core/database"
	"calendar-sync-api/core/logger"
	"calendar-sync-api/modules/nylas/entity"

	"github.com/google/uuid"
)

type AccountRepository interface {
	// UpsertAccount writes the account credential keyed by user id. A
	// re-connect overwrites the previous row wholesale.
	UpsertAccount(ctx context.Context, account *entity.NylasAccount) (*entity.NylasAccount, error)

	// GetAccountByUserID returns (nil, nil) when the user has no connected
	// account.
	GetAccountByUserID(ctx context.Context, userID uuid.UUID) (*entity.NylasAccount, error)

	// GetAccountByGrantID resolves the owning account from the provider-side
	// account identifier carried in webhook payloads.
	GetAccountByGrantID(ctx context.Context, grantID string) (*entity.NylasAccount, error)

	DeleteAccountByGrantID(ctx context.Context, grantID string) error
	DeleteAccountByUserID(ctx context.Context, userID uuid.UUID) error
}

type accountRepository struct {
	db database.Database
}

func NewAccountRepository(db database.Database) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) UpsertAccount(ctx context.Context, account *entity.NylasAccount) (*entity.NylasAccount, error) {
	query := `
		INSERT INTO nylas_accounts (id, user_id, grant_id, access_token, token_expires_at, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET grant_id = $2, access_token = $3, token_expires_at = $4, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		account.UserID, account.GrantID, account.AccessToken, account.TokenExpiresAt,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		logger.Error("AccountRepository:UpsertAccount:Error", "error", err, "user_id", account.UserID)
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) GetAccountByUserID(ctx context.Context, userID uuid.UUID) (*entity.NylasAccount, error) {
	var account entity.NylasAccount
	query := `
		SELECT id, user_id, grant_id, access_token, token_expires_at, created_at, updated_at
		FROM nylas_accounts
		WHERE user_id = $1
	`
	err := r.db.GetContext(ctx, &account, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("AccountRepository:GetAccountByUserID:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetAccountByGrantID(ctx context.Context, grantID string) (*entity.NylasAccount, error) {
	var account entity.NylasAccount
	query := `
		SELECT id, user_id, grant_id, access_token, token_expires_at, created_at, updated_at
		FROM nylas_accounts
		WHERE grant_id = $1
	`
	err := r.db.GetContext(ctx, &account, query, grantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("AccountRepository:GetAccountByGrantID:Error", "error", err, "grant_id", grantID)
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) DeleteAccountByGrantID(ctx context.Context, grantID string) error {
	query := `DELETE FROM nylas_accounts WHERE grant_id = $1`
	if err := r.db.ExecContext(ctx, query, grantID); err != nil {
		logger.Error("AccountRepository:DeleteAccountByGrantID:Error", "error", err, "grant_id", grantID)
		return err
	}
	return nil
}

func (r *accountRepository) DeleteAccountByUserID(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM nylas_accounts WHERE user_id = $1`
	if err := r.db.ExecContext(ctx, query, userID); err != nil {
		logger.Error("AccountRepository:DeleteAccountByUserID:Error", "error", err, "user_id", userID)
		return err
	}
	return nil
}
