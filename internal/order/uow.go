// AngelaMos | 2026
// uow.go

package order

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/storefront-api/internal/cart"
	"github.com/carterperez-dev/storefront-api/internal/catalog"
	"github.com/carterperez-dev/storefront-api/internal/core"
)

type ProductStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]catalog.Product, error)
	DecrementStock(ctx context.Context, id string, qty int) (catalog.StockChange, error)
}

type CartStore interface {
	GetByID(ctx context.Context, id string) (*cart.Cart, error)
	Delete(ctx context.Context, id string) error
}

// Stores are the repositories bound to one fulfilment transaction.
type Stores struct {
	Orders   Repository
	Products ProductStore
	Carts    CartStore
}

type UnitOfWork interface {
	Within(ctx context.Context, fn func(Stores) error) error
}

type sqlUnitOfWork struct {
	db *sqlx.DB
}

func NewUnitOfWork(db *sqlx.DB) UnitOfWork {
	return &sqlUnitOfWork{db: db}
}

func (u *sqlUnitOfWork) Within(ctx context.Context, fn func(Stores) error) error {
	return core.InTx(ctx, u.db, func(tx *sqlx.Tx) error {
		return fn(Stores{
			Orders:   NewRepository(tx),
			Products: catalog.NewRepository(tx),
			Carts:    cart.NewRepository(tx),
		})
	})
}
