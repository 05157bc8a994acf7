// AngelaMos | 2026
// repository.go

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

const productColumns = `id, title, description, bullet_points, thumbnail, images,
	price_base, price_discounted, category, quantity, rating, review_count,
	created_at, updated_at`

type ListParams struct {
	core.PageParams
	Category Category
	Search   string
}

type Repository interface {
	List(ctx context.Context, params ListParams) ([]Product, int64, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string, qty int) (StockChange, error)
	Categories(ctx context.Context) ([]Category, error)

	UpsertReview(ctx context.Context, r *Review) error
	RecomputeRating(ctx context.Context, productID string) (RatingSummary, error)
	ListReviews(ctx context.Context, productID string) ([]Review, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, params ListParams) ([]Product, int64, error) {
	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, string(params.Category))
		argIdx++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", argIdx))
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := "SELECT COUNT(*) FROM products WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	products := []Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p Product
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get product: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

// GetByIDs returns the products that exist among ids, in no particular order.
func (r *repository) GetByIDs(ctx context.Context, ids []string) ([]Product, error) {
	products := []Product{}
	if len(ids) == 0 {
		return products, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1::uuid[])`
	if err := r.db.SelectContext(ctx, &products, query, ids); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}

	return products, nil
}

func (r *repository) Create(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (
			id, title, description, bullet_points, thumbnail, images,
			price_base, price_discounted, category, quantity
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.Title,
		p.Description,
		p.BulletPoints,
		p.Thumbnail,
		p.Images,
		p.PriceBase,
		p.PriceDiscounted,
		string(p.Category),
		p.Quantity,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

func (r *repository) Update(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET title = $2, description = $3, bullet_points = $4, thumbnail = $5,
		    images = $6, price_base = $7, price_discounted = $8, category = $9,
		    quantity = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &p.UpdatedAt, query,
		p.ID,
		p.Title,
		p.Description,
		p.BulletPoints,
		p.Thumbnail,
		p.Images,
		p.PriceBase,
		p.PriceDiscounted,
		string(p.Category),
		p.Quantity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update product: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete product: %w", core.ErrNotFound)
	}

	return nil
}

// DecrementStock lowers quantity by qty, clamping at zero, and reports the
// quantity before and after.
func (r *repository) DecrementStock(
	ctx context.Context,
	id string,
	qty int,
) (StockChange, error) {
	query := `
		WITH prev AS (
			SELECT id, quantity FROM products WHERE id = $1 FOR UPDATE
		)
		UPDATE products p
		SET quantity = GREATEST(p.quantity - $2, 0), updated_at = NOW()
		FROM prev
		WHERE p.id = prev.id
		RETURNING prev.quantity AS previous, p.quantity AS remaining`

	var change StockChange
	err := r.db.GetContext(ctx, &change, query, id, qty)
	if errors.Is(err, sql.ErrNoRows) {
		return StockChange{}, fmt.Errorf("decrement stock: %w", core.ErrNotFound)
	}
	if err != nil {
		return StockChange{}, fmt.Errorf("decrement stock: %w", err)
	}

	return change, nil
}

func (r *repository) Categories(ctx context.Context) ([]Category, error) {
	categories := []Category{}
	query := `SELECT DISTINCT category FROM products ORDER BY category`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *repository) UpsertReview(ctx context.Context, rv *Review) error {
	query := `
		INSERT INTO reviews (id, user_id, product_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET rating = EXCLUDED.rating,
		              comment = EXCLUDED.comment,
		              updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		rv.ID,
		rv.UserID,
		rv.ProductID,
		rv.Rating,
		rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("upsert review: %w", core.ErrNotFound)
		}
		return fmt.Errorf("upsert review: %w", err)
	}

	return nil
}

func (r *repository) RecomputeRating(
	ctx context.Context,
	productID string,
) (RatingSummary, error) {
	query := `
		UPDATE products p
		SET rating = agg.rating, review_count = agg.review_count, updated_at = NOW()
		FROM (
			SELECT COALESCE(AVG(rating), 0)::float8 AS rating, COUNT(*)::int AS review_count
			FROM reviews
			WHERE product_id = $1
		) agg
		WHERE p.id = $1
		RETURNING p.rating, p.review_count`

	var summary RatingSummary
	err := r.db.GetContext(ctx, &summary, query, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return RatingSummary{}, fmt.Errorf("recompute rating: %w", core.ErrNotFound)
	}
	if err != nil {
		return RatingSummary{}, fmt.Errorf("recompute rating: %w", err)
	}

	return summary, nil
}

func (r *repository) ListReviews(ctx context.Context, productID string) ([]Review, error) {
	query := `
		SELECT r.id, r.user_id, r.product_id, u.name AS user_name, r.rating,
		       r.comment, r.created_at, r.updated_at
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.updated_at DESC`

	reviews := []Review{}
	if err := r.db.SelectContext(ctx, &reviews, query, productID); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, nil
}
