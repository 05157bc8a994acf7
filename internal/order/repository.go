// AngelaMos | 2026
// repository.go

package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

const orderColumns = `id, user_id, checkout_type, items, shipping, total, currency,
	payment_status, delivery_status, provider_session_id,
	provider_payment_intent_id, provider_customer_id, created_at, updated_at`

type ListParams struct {
	core.PageParams
	Status DeliveryStatus
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context, params ListParams) ([]Order, int64, error)
	UpdateDeliveryStatus(ctx context.Context, id string, status DeliveryStatus) (*Order, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Create fails with ErrDuplicateKey when an order already exists for the
// provider session.
func (r *repository) Create(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, checkout_type, items, shipping, total, currency,
			payment_status, delivery_status, provider_session_id,
			provider_payment_intent_id, provider_customer_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		o.ID,
		o.UserID,
		string(o.CheckoutType),
		o.Items,
		o.Shipping,
		o.Total,
		o.Currency,
		o.PaymentStatus,
		string(o.DeliveryStatus),
		o.ProviderSessionID,
		o.ProviderPaymentIntentID,
		o.ProviderCustomerID,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create order: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create order: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	return r.getOne(ctx, "get order", `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *repository) GetBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	return r.getOne(
		ctx,
		"get order by session",
		`SELECT `+orderColumns+` FROM orders WHERE provider_session_id = $1`,
		sessionID,
	)
}

func (r *repository) getOne(ctx context.Context, op, query, arg string) (*Order, error) {
	var o Order
	err := r.db.GetContext(ctx, &o, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &o, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`

	orders := []Order{}
	if err := r.db.SelectContext(ctx, &orders, query, userID); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *repository) ListAll(ctx context.Context, params ListParams) ([]Order, int64, error) {
	where := "TRUE"
	var args []any
	if params.Status != "" {
		where = "delivery_status = $1"
		args = append(args, string(params.Status))
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM orders WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)+1, len(args)+2)

	args = append(args, params.PageSize, params.Offset())

	orders := []Order{}
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list all orders: %w", err)
	}
	return orders, total, nil
}

func (r *repository) UpdateDeliveryStatus(
	ctx context.Context,
	id string,
	status DeliveryStatus,
) (*Order, error) {
	query := `
		UPDATE orders
		SET delivery_status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + orderColumns

	var o Order
	err := r.db.GetContext(ctx, &o, query, id, string(status))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update delivery status: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update delivery status: %w", err)
	}
	return &o, nil
}
