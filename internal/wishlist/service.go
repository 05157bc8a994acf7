// AngelaMos | 2026
// service.go

package wishlist

import (
	"context"
	"errors"

	"github.com/carterperez-dev/storefront-api/internal/catalog"
	"github.com/carterperez-dev/storefront-api/internal/core"
)

type Result string

const (
	Added   Result = "added"
	Removed Result = "removed"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Toggle removes productID from the caller's wishlist if present and adds
// it otherwise.
func (s *Service) Toggle(ctx context.Context, p core.Principal, productID string) (Result, error) {
	if err := core.Authorize(p); err != nil {
		return "", err
	}
	if err := core.ValidateID(productID, "product id"); err != nil {
		return "", err
	}

	removed, err := s.repo.Remove(ctx, p.UserID, productID)
	if err != nil {
		return "", err
	}
	if removed {
		return Removed, nil
	}

	if err := s.repo.Add(ctx, p.UserID, productID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.NotFoundError("product")
		}
		return "", err
	}
	return Added, nil
}

func (s *Service) List(ctx context.Context, p core.Principal) ([]catalog.Product, error) {
	if err := core.Authorize(p); err != nil {
		return nil, err
	}
	return s.repo.ListProducts(ctx, p.UserID)
}
