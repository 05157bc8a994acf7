// AngelaMos | 2026
// repository.go

package featured

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

type Repository interface {
	List(ctx context.Context) ([]FeaturedProduct, error)
	GetByID(ctx context.Context, id string) (*FeaturedProduct, error)
	Create(ctx context.Context, f *FeaturedProduct) error
	Update(ctx context.Context, f *FeaturedProduct) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]FeaturedProduct, error) {
	query := `
		SELECT id, title, link, link_title, banner, created_at, updated_at
		FROM featured_products
		ORDER BY created_at DESC`

	items := []FeaturedProduct{}
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list featured products: %w", err)
	}
	return items, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*FeaturedProduct, error) {
	query := `
		SELECT id, title, link, link_title, banner, created_at, updated_at
		FROM featured_products
		WHERE id = $1`

	var f FeaturedProduct
	err := r.db.GetContext(ctx, &f, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get featured product: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get featured product: %w", err)
	}
	return &f, nil
}

func (r *repository) Create(ctx context.Context, f *FeaturedProduct) error {
	query := `
		INSERT INTO featured_products (id, title, link, link_title, banner)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, f.ID, f.Title, f.Link, f.LinkTitle, f.Banner).
		Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create featured product: %w", err)
	}
	return nil
}

func (r *repository) Update(ctx context.Context, f *FeaturedProduct) error {
	query := `
		UPDATE featured_products
		SET title = $2, link = $3, link_title = $4, banner = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &f.UpdatedAt, query, f.ID, f.Title, f.Link, f.LinkTitle, f.Banner)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update featured product: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update featured product: %w", err)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM featured_products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete featured product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete featured product: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete featured product: %w", core.ErrNotFound)
	}
	return nil
}
