// AngelaMos | 2026
// repository.go

package wishlist

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/storefront-api/internal/catalog"
	"github.com/carterperez-dev/storefront-api/internal/core"
)

type Repository interface {
	Remove(ctx context.Context, userID, productID string) (bool, error)
	Add(ctx context.Context, userID, productID string) error
	ListProducts(ctx context.Context, userID string) ([]catalog.Product, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Remove(ctx context.Context, userID, productID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return false, fmt.Errorf("remove wishlist item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove wishlist item: %w", err)
	}
	return rows > 0, nil
}

func (r *repository) Add(ctx context.Context, userID, productID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wishlist_items (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		userID, productID,
	)
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("add wishlist item: %w", core.ErrNotFound)
		}
		return fmt.Errorf("add wishlist item: %w", err)
	}
	return nil
}

func (r *repository) ListProducts(ctx context.Context, userID string) ([]catalog.Product, error) {
	query := `
		SELECT p.id, p.title, p.description, p.bullet_points, p.thumbnail, p.images,
		       p.price_base, p.price_discounted, p.category, p.quantity, p.rating,
		       p.review_count, p.created_at, p.updated_at
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC`

	products := []catalog.Product{}
	if err := r.db.SelectContext(ctx, &products, query, userID); err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return products, nil
}
