// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

type Repository interface {
	Replace(ctx context.Context, token *UserToken) error
	Find(ctx context.Context, userID string, purpose Purpose) (*UserToken, error)
	DeleteMatching(ctx context.Context, userID string, purpose Purpose, hash string) (bool, error)
	Delete(ctx context.Context, userID string, purpose Purpose) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Replace(ctx context.Context, token *UserToken) error {
	query := `
		INSERT INTO user_tokens (user_id, purpose, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, purpose) DO UPDATE
		SET token_hash = EXCLUDED.token_hash,
		    expires_at = EXCLUDED.expires_at,
		    created_at = NOW()
		RETURNING created_at`

	err := r.db.GetContext(ctx, &token.CreatedAt, query,
		token.UserID,
		string(token.Purpose),
		token.TokenHash,
		token.ExpiresAt,
	)
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("store %s token: %w", token.Purpose, core.ErrNotFound)
		}
		return fmt.Errorf("store %s token: %w", token.Purpose, err)
	}

	return nil
}

func (r *repository) Find(
	ctx context.Context,
	userID string,
	purpose Purpose,
) (*UserToken, error) {
	query := `
		SELECT user_id, purpose, token_hash, expires_at, created_at
		FROM user_tokens
		WHERE user_id = $1 AND purpose = $2`

	var token UserToken
	err := r.db.GetContext(ctx, &token, query, userID, string(purpose))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find %s token: %w", purpose, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s token: %w", purpose, err)
	}

	return &token, nil
}

// DeleteMatching removes the token only if it still carries hash, so two
// concurrent redemptions cannot both succeed.
func (r *repository) DeleteMatching(
	ctx context.Context,
	userID string,
	purpose Purpose,
	hash string,
) (bool, error) {
	query := `
		DELETE FROM user_tokens
		WHERE user_id = $1 AND purpose = $2 AND token_hash = $3`

	result, err := r.db.ExecContext(ctx, query, userID, string(purpose), hash)
	if err != nil {
		return false, fmt.Errorf("consume %s token: %w", purpose, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume %s token: %w", purpose, err)
	}

	return rows == 1, nil
}

func (r *repository) Delete(
	ctx context.Context,
	userID string,
	purpose Purpose,
) error {
	query := `DELETE FROM user_tokens WHERE user_id = $1 AND purpose = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, string(purpose)); err != nil {
		return fmt.Errorf("delete %s token: %w", purpose, err)
	}

	return nil
}

func (r *repository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	return rows, nil
}
