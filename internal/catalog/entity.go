// AngelaMos | 2026
// entity.go

package catalog

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront-api/internal/media"
)

const (
	MaxImages     = 5
	MinRating     = 1
	MaxRating     = 5
	productFolder = "products"
)

type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryFashion     Category = "fashion"
	CategoryHome        Category = "home"
	CategoryBooks       Category = "books"
	CategoryBeauty      Category = "beauty"
	CategorySports      Category = "sports"
	CategoryToys        Category = "toys"
	CategoryGrocery     Category = "grocery"
)

var Categories = []Category{
	CategoryElectronics,
	CategoryFashion,
	CategoryHome,
	CategoryBooks,
	CategoryBeauty,
	CategorySports,
	CategoryToys,
	CategoryGrocery,
}

func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

type Price struct {
	Base       decimal.Decimal `json:"base"`
	Discounted decimal.Decimal `json:"discounted"`
}

// Effective is the discounted price when it is set and below base.
func (p Price) Effective() decimal.Decimal {
	if p.Discounted.IsPositive() && p.Discounted.LessThan(p.Base) {
		return p.Discounted
	}
	return p.Base
}

// MinorUnits converts an amount to integer cents.
func MinorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

type BulletPoints []string

func (b BulletPoints) Value() (driver.Value, error) {
	if b == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(b)
}

func (b *BulletPoints) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*b = nil
		return nil
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	}
	return fmt.Errorf("scan bullet points: unsupported type %T", src)
}

type Product struct {
	ID              string          `db:"id"`
	Title           string          `db:"title"`
	Description     string          `db:"description"`
	BulletPoints    BulletPoints    `db:"bullet_points"`
	Thumbnail       media.Asset     `db:"thumbnail"`
	Images          media.Assets    `db:"images"`
	PriceBase       decimal.Decimal `db:"price_base"`
	PriceDiscounted decimal.Decimal `db:"price_discounted"`
	Category        Category        `db:"category"`
	Quantity        int             `db:"quantity"`
	Rating          float64         `db:"rating"`
	ReviewCount     int             `db:"review_count"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

func (p *Product) Price() Price {
	return Price{Base: p.PriceBase, Discounted: p.PriceDiscounted}
}

func (p *Product) EffectivePrice() decimal.Decimal {
	return p.Price().Effective()
}

// Assets lists every stored object the product references.
func (p *Product) Assets() []media.Asset {
	out := make([]media.Asset, 0, len(p.Images)+1)
	if !p.Thumbnail.IsZero() {
		out = append(out, p.Thumbnail)
	}
	return append(out, p.Images...)
}

type Review struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	ProductID string    `db:"product_id"`
	UserName  string    `db:"user_name"`
	Rating    int       `db:"rating"`
	Comment   string    `db:"comment"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type RatingSummary struct {
	Rating      float64 `db:"rating"       json:"rating"`
	ReviewCount int     `db:"review_count" json:"review_count"`
}

// StockChange reports a decrement. Remaining is clamped at zero, so a
// shortfall shows up as Previous < requested quantity.
type StockChange struct {
	Previous  int `db:"previous"`
	Remaining int `db:"remaining"`
}

func (s StockChange) Shortfall(requested int) int {
	if s.Previous >= requested {
		return 0
	}
	return requested - s.Previous
}
