// AngelaMos | 2026
// service.go

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/media"
)

// Files holds the multipart parts of a product form. Nil fields mean the
// part was not sent.
type Files struct {
	Thumbnail *multipart.FileHeader
	Images    []*multipart.FileHeader
}

type Service struct {
	repo     Repository
	uploader *media.Uploader
	logger   *slog.Logger
}

func NewService(repo Repository, uploader *media.Uploader, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		uploader: uploader,
		logger:   logger,
	}
}

func (s *Service) ListProducts(ctx context.Context, params ListParams) ([]Product, int64, error) {
	if params.Category != "" && !params.Category.Valid() {
		return nil, 0, core.ValidationError(fmt.Sprintf("unknown category %q", params.Category))
	}
	params.Search = strings.TrimSpace(params.Search)

	return s.repo.List(ctx, params)
}

func (s *Service) ListByCategory(
	ctx context.Context,
	category string,
	page core.PageParams,
) ([]Product, int64, error) {
	c := Category(strings.ToLower(category))
	if !c.Valid() {
		return nil, 0, core.ValidationError(fmt.Sprintf("unknown category %q", category))
	}

	return s.repo.List(ctx, ListParams{PageParams: page, Category: c})
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.repo.Categories(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	if err := core.ValidateID(id, "product id"); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("product")
	}
	return p, err
}

// GetProducts loads the products among ids that still exist, keyed by id.
func (s *Service) GetProducts(ctx context.Context, ids []string) (map[string]*Product, error) {
	products, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, nil
}

// AddReview upserts the caller's review and refreshes the product's
// aggregate rating before returning.
func (s *Service) AddReview(
	ctx context.Context,
	p core.Principal,
	req AddReviewRequest,
) (*AddReviewResponse, error) {
	if err := core.Authorize(p); err != nil {
		return nil, err
	}
	if err := core.ValidateID(req.ProductID, "product id"); err != nil {
		return nil, err
	}
	if req.Rating < MinRating || req.Rating > MaxRating {
		return nil, core.ValidationError(
			fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating),
		)
	}

	if _, err := s.GetProduct(ctx, req.ProductID); err != nil {
		return nil, err
	}

	review := &Review{
		ID:        core.NewID(),
		UserID:    p.UserID,
		ProductID: req.ProductID,
		UserName:  p.Name,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}

	if err := s.repo.UpsertReview(ctx, review); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("product")
		}
		return nil, err
	}

	summary, err := s.repo.RecomputeRating(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	return &AddReviewResponse{
		Review:        ToReviewResponse(review),
		RatingSummary: summary,
	}, nil
}

func (s *Service) ListReviews(ctx context.Context, productID string) ([]Review, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListReviews(ctx, productID)
}

func (s *Service) CreateProduct(
	ctx context.Context,
	actor core.Principal,
	req CreateProductRequest,
	files Files,
) (*Product, error) {
	if err := core.Authorize(actor, core.RoleAdmin); err != nil {
		return nil, err
	}

	category := Category(strings.ToLower(req.Category))
	if err := validatePricing(req.PriceBase, req.PriceDiscounted, category); err != nil {
		return nil, err
	}
	if files.Thumbnail == nil {
		return nil, core.ValidationError("thumbnail is required")
	}
	if len(files.Images) > MaxImages {
		return nil, core.ValidationError(fmt.Sprintf("at most %d images are allowed", MaxImages))
	}

	thumb, err := s.uploader.UploadImage(ctx, files.Thumbnail, productFolder)
	if err != nil {
		return nil, err
	}

	images, err := s.uploader.UploadImages(ctx, files.Images, productFolder)
	if err != nil {
		s.uploader.Discard(ctx, thumb)
		return nil, err
	}

	product := &Product{
		ID:              core.NewID(),
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		BulletPoints:    req.BulletPoints,
		Thumbnail:       thumb,
		Images:          images,
		PriceBase:       req.PriceBase,
		PriceDiscounted: req.PriceDiscounted,
		Category:        category,
		Quantity:        req.Quantity,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.uploader.Discard(ctx, product.Assets()...)
		return nil, err
	}

	s.logger.Info("product created", "product_id", product.ID, "by", actor.UserID)

	return product, nil
}

// UpdateProduct applies the fields present in req. A new thumbnail or image
// set replaces the old one, and replaced assets are deleted after the row
// is saved.
func (s *Service) UpdateProduct(
	ctx context.Context,
	actor core.Principal,
	id string,
	req UpdateProductRequest,
	files Files,
) (*Product, error) {
	if err := core.Authorize(actor, core.RoleAdmin); err != nil {
		return nil, err
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	applyUpdate(product, req)
	if err := validatePricing(product.PriceBase, product.PriceDiscounted, product.Category); err != nil {
		return nil, err
	}
	if len(files.Images) > MaxImages {
		return nil, core.ValidationError(fmt.Sprintf("at most %d images are allowed", MaxImages))
	}

	var uploaded, replaced []media.Asset

	if files.Thumbnail != nil {
		thumb, err := s.uploader.UploadImage(ctx, files.Thumbnail, productFolder)
		if err != nil {
			return nil, err
		}
		uploaded = append(uploaded, thumb)
		replaced = append(replaced, product.Thumbnail)
		product.Thumbnail = thumb
	}

	if len(files.Images) > 0 {
		images, err := s.uploader.UploadImages(ctx, files.Images, productFolder)
		if err != nil {
			s.uploader.Discard(ctx, uploaded...)
			return nil, err
		}
		uploaded = append(uploaded, images...)
		replaced = append(replaced, product.Images...)
		product.Images = images
	}

	if err := s.repo.Update(ctx, product); err != nil {
		s.uploader.Discard(ctx, uploaded...)
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("product")
		}
		return nil, err
	}

	s.uploader.Discard(ctx, replaced...)

	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, actor core.Principal, id string) error {
	if err := core.Authorize(actor, core.RoleAdmin); err != nil {
		return err
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NotFoundError("product")
		}
		return err
	}

	s.uploader.Discard(ctx, product.Assets()...)
	s.logger.Info("product deleted", "product_id", id, "by", actor.UserID)

	return nil
}

func applyUpdate(p *Product, req UpdateProductRequest) {
	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.BulletPoints != nil {
		p.BulletPoints = req.BulletPoints
	}
	if req.PriceBase != nil {
		p.PriceBase = *req.PriceBase
	}
	if req.PriceDiscounted != nil {
		p.PriceDiscounted = *req.PriceDiscounted
	}
	if req.Category != nil {
		p.Category = Category(strings.ToLower(*req.Category))
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
}

func validatePricing(base, discounted decimal.Decimal, category Category) error {
	var details []string
	if !base.IsPositive() {
		details = append(details, "price_base must be greater than 0")
	}
	if discounted.IsNegative() {
		details = append(details, "price_discounted must not be negative")
	}
	if !category.Valid() {
		details = append(details, fmt.Sprintf("category must be one of: %s", categoryList()))
	}

	if len(details) > 0 {
		return core.ValidationError("validation failed", details...)
	}
	return nil
}

func categoryList() string {
	names := make([]string, 0, len(Categories))
	for _, c := range Categories {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
