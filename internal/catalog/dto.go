// AngelaMos | 2026
// dto.go

package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront-api/internal/media"
)

type CreateProductRequest struct {
	Title           string          `validate:"required,min=1,max=200"`
	Description     string          `validate:"required,max=5000"`
	BulletPoints    []string        `validate:"max=20,dive,max=300"`
	PriceBase       decimal.Decimal `validate:"-"`
	PriceDiscounted decimal.Decimal `validate:"-"`
	Category        string          `validate:"required"`
	Quantity        int             `validate:"gte=0"`
}

// UpdateProductRequest carries only the fields present in the form.
type UpdateProductRequest struct {
	Title           *string          `validate:"omitempty,min=1,max=200"`
	Description     *string          `validate:"omitempty,max=5000"`
	BulletPoints    []string         `validate:"omitempty,max=20,dive,max=300"`
	PriceBase       *decimal.Decimal `validate:"-"`
	PriceDiscounted *decimal.Decimal `validate:"-"`
	Category        *string          `validate:"omitempty"`
	Quantity        *int             `validate:"omitempty,gte=0"`
}

type AddReviewRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Rating    int    `json:"rating"    validate:"required"`
	Comment   string `json:"comment"   validate:"max=2000"`
}

type PriceResponse struct {
	Base       decimal.Decimal `json:"base"`
	Discounted decimal.Decimal `json:"discounted"`
	Effective  decimal.Decimal `json:"effective"`
}

type ProductResponse struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	BulletPoints []string      `json:"bullet_points"`
	Thumbnail    media.Asset   `json:"thumbnail"`
	Images       media.Assets  `json:"images"`
	Price        PriceResponse `json:"price"`
	Category     Category      `json:"category"`
	Quantity     int           `json:"quantity"`
	Rating       float64       `json:"rating"`
	ReviewCount  int           `json:"review_count"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type ReviewResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	ProductID string    `json:"product_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AddReviewResponse struct {
	Review ReviewResponse `json:"review"`
	RatingSummary
}

func ToProductResponse(p *Product) ProductResponse {
	bullets := []string(p.BulletPoints)
	if bullets == nil {
		bullets = []string{}
	}
	images := p.Images
	if images == nil {
		images = media.Assets{}
	}

	return ProductResponse{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		BulletPoints: bullets,
		Thumbnail:    p.Thumbnail,
		Images:       images,
		Price: PriceResponse{
			Base:       p.PriceBase,
			Discounted: p.PriceDiscounted,
			Effective:  p.EffectivePrice(),
		},
		Category:    p.Category,
		Quantity:    p.Quantity,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToProductResponseList(products []Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, ToProductResponse(&products[i]))
	}
	return out
}

func ToReviewResponse(r *Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		ProductID: r.ProductID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func ToReviewResponseList(reviews []Review) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, ToReviewResponse(&reviews[i]))
	}
	return out
}
