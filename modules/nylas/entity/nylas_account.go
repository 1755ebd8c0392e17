package entity

import (
	"time"

	"github.com/google/uuid"

	"calendar-sync-api/core/entity"
)

// NylasAccount stores the credential for a user's connected calendar account.
// At most one live row per user: the exchange flow upserts on user_id.
type NylasAccount struct {
	entity.BaseEntity
	UserID         uuid.UUID  `db:"user_id" json:"user_id"`
	GrantID        string     `db:"grant_id" json:"grant_id"`
	AccessToken    string     `db:"access_token" json:"-"`
	TokenExpiresAt *time.Time `db:"token_expires_at" json:"token_expires_at"`
}

func (NylasAccount) TableName() string {
	return "nylas_accounts"
}
