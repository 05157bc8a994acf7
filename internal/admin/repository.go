// AngelaMos | 2026
// repository.go

package admin

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

const lowStockThreshold = 5

type StatusCount struct {
	Status string `db:"delivery_status" json:"status"`
	Count  int64  `db:"count"           json:"count"`
}

type LowStockProduct struct {
	ID       string `db:"id"       json:"id"`
	Title    string `db:"title"    json:"title"`
	Quantity int    `db:"quantity" json:"quantity"`
}

type StoreStats struct {
	Users          int64             `json:"users"`
	Products       int64             `json:"products"`
	Orders         int64             `json:"orders"`
	Revenue        decimal.Decimal   `json:"revenue"`
	OrdersByStatus []StatusCount     `json:"orders_by_status"`
	LowStock       []LowStockProduct `json:"low_stock"`
}

type StatsRepository interface {
	StoreStats(ctx context.Context) (*StoreStats, error)
}

type statsRepository struct {
	db core.DBTX
}

func NewStatsRepository(db core.DBTX) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) StoreStats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{}

	totals := `
		SELECT
			(SELECT COUNT(*) FROM users)    AS users,
			(SELECT COUNT(*) FROM products) AS products,
			(SELECT COUNT(*) FROM orders)   AS orders,
			(SELECT COALESCE(SUM(total), 0) FROM orders) AS revenue`

	err := r.db.QueryRowxContext(ctx, totals).Scan(
		&stats.Users,
		&stats.Products,
		&stats.Orders,
		&stats.Revenue,
	)
	if err != nil {
		return nil, fmt.Errorf("store totals: %w", err)
	}

	stats.OrdersByStatus = []StatusCount{}
	byStatus := `
		SELECT delivery_status, COUNT(*) AS count
		FROM orders
		GROUP BY delivery_status
		ORDER BY delivery_status`
	if err := r.db.SelectContext(ctx, &stats.OrdersByStatus, byStatus); err != nil {
		return nil, fmt.Errorf("orders by status: %w", err)
	}

	stats.LowStock = []LowStockProduct{}
	lowStock := `
		SELECT id, title, quantity
		FROM products
		WHERE quantity <= $1
		ORDER BY quantity, title
		LIMIT 20`
	if err := r.db.SelectContext(ctx, &stats.LowStock, lowStock, lowStockThreshold); err != nil {
		return nil, fmt.Errorf("low stock products: %w", err)
	}

	return stats, nil
}
