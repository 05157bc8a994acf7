// AngelaMos | 2026
// entity.go

package auth

import (
	"time"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
	PurposeRefresh           Purpose = "refresh"
)

// UserToken is the single active token a user holds for one purpose.
type UserToken struct {
	UserID    string    `db:"user_id"`
	Purpose   Purpose   `db:"purpose"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (t *UserToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *UserToken) Matches(raw string) bool {
	return core.CompareTokenHash(raw, t.TokenHash)
}
