// AngelaMos | 2026
// repository.go

package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

type Repository interface {
	GetByUser(ctx context.Context, userID string) (*Cart, error)
	GetByID(ctx context.Context, id string) (*Cart, error)
	Upsert(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) GetByUser(ctx context.Context, userID string) (*Cart, error) {
	return r.get(ctx, "get cart by user",
		`SELECT id, user_id, items, created_at, updated_at FROM carts WHERE user_id = $1`, userID)
}

func (r *repository) GetByID(ctx context.Context, id string) (*Cart, error) {
	return r.get(ctx, "get cart",
		`SELECT id, user_id, items, created_at, updated_at FROM carts WHERE id = $1`, id)
}

func (r *repository) get(ctx context.Context, op, query, arg string) (*Cart, error) {
	var c Cart
	err := r.db.GetContext(ctx, &c, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

// Upsert writes the whole line list keyed on user. Concurrent writers for
// the same user resolve last-write-wins.
func (r *repository) Upsert(ctx context.Context, c *Cart) error {
	query := `
		INSERT INTO carts (id, user_id, items)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET items = EXCLUDED.items, updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, c.ID, c.UserID, c.Items).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
