// AngelaMos | 2026
// service.go

package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront-api/internal/catalog"
	"github.com/carterperez-dev/storefront-api/internal/core"
)

type ProductReader interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	GetProducts(ctx context.Context, ids []string) (map[string]*catalog.Product, error)
}

type Service struct {
	repo     Repository
	products ProductReader
}

func NewService(repo Repository, products ProductReader) *Service {
	return &Service{repo: repo, products: products}
}

// AddOrUpdateItem moves the caller's line for productID by delta. Stock is
// not checked here.
func (s *Service) AddOrUpdateItem(
	ctx context.Context,
	p core.Principal,
	productID string,
	delta int,
) (*Cart, error) {
	if err := core.Authorize(p); err != nil {
		return nil, err
	}
	if err := core.ValidateID(productID, "product id"); err != nil {
		return nil, err
	}

	c, err := s.loadOrNew(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	if delta > 0 && !hasLine(c, productID) {
		if _, err := s.products.GetProduct(ctx, productID); err != nil {
			return nil, err
		}
	}

	c.Apply(productID, delta)

	if err := s.repo.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) RemoveItem(ctx context.Context, p core.Principal, productID string) (*Cart, error) {
	if err := core.Authorize(p); err != nil {
		return nil, err
	}
	if err := core.ValidateID(productID, "product id"); err != nil {
		return nil, err
	}

	c, err := s.repo.GetByUser(ctx, p.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("cart")
	}
	if err != nil {
		return nil, err
	}

	if !c.Remove(productID) {
		return nil, core.NotFoundError("cart item")
	}

	if err := s.repo.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Clear(ctx context.Context, p core.Principal) error {
	if err := core.Authorize(p); err != nil {
		return err
	}

	c, err := s.repo.GetByUser(ctx, p.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return s.repo.Delete(ctx, c.ID)
}

// GetCartSummary prices each line at the product's current effective price.
// Lines whose product no longer exists are left out.
func (s *Service) GetCartSummary(ctx context.Context, p core.Principal) (*Summary, error) {
	if err := core.Authorize(p); err != nil {
		return nil, err
	}

	c, err := s.repo.GetByUser(ctx, p.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return emptySummary(""), nil
	}
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return emptySummary(c.ID), nil
	}

	products, err := s.products.GetProducts(ctx, c.ProductIDs())
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ID:         c.ID,
		Products:   make([]SummaryLine, 0, len(c.Items)),
		TotalPrice: decimal.Zero,
	}

	for _, it := range c.Items {
		product, ok := products[it.ProductID]
		if !ok {
			continue
		}

		price := product.EffectivePrice()
		lineTotal := price.Mul(decimal.NewFromInt(int64(it.Quantity)))

		summary.Products = append(summary.Products, SummaryLine{
			ID:         product.ID,
			Title:      product.Title,
			Thumbnail:  product.Thumbnail.URL,
			Price:      price,
			Qty:        it.Quantity,
			TotalPrice: lineTotal,
		})
		summary.TotalQty += it.Quantity
		summary.TotalPrice = summary.TotalPrice.Add(lineTotal)
	}

	if len(summary.Products) == 0 {
		return emptySummary(c.ID), nil
	}

	return summary, nil
}

func (s *Service) loadOrNew(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.repo.GetByUser(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return &Cart{ID: core.NewID(), UserID: userID, Items: Items{}}, nil
	}
	return c, err
}

func hasLine(c *Cart, productID string) bool {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}
