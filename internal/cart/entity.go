// AngelaMos | 2026
// entity.go

package cart

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const emptyCartMessage = "No items in cart"

type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Items []Item

func (it Items) Value() (driver.Value, error) {
	if it == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(it)
}

func (it *Items) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*it = nil
		return nil
	case []byte:
		return json.Unmarshal(v, it)
	case string:
		return json.Unmarshal([]byte(v), it)
	}
	return fmt.Errorf("scan cart items: unsupported type %T", src)
}

type Cart struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Items     Items     `db:"items"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Apply adds delta to the product's line. A line that drops to zero or below
// is removed, and a new line is only created for a positive delta.
func (c *Cart) Apply(productID string, delta int) {
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		c.Items[i].Quantity += delta
		if c.Items[i].Quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
		return
	}

	if delta > 0 {
		c.Items = append(c.Items, Item{ProductID: productID, Quantity: delta})
	}
}

func (c *Cart) Remove(productID string) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

type SummaryLine struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Thumbnail  string          `json:"thumbnail"`
	Price      decimal.Decimal `json:"price"`
	Qty        int             `json:"qty"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type Summary struct {
	ID         string          `json:"id,omitempty"`
	Empty      bool            `json:"empty"`
	Message    string          `json:"message,omitempty"`
	Products   []SummaryLine   `json:"products"`
	TotalQty   int             `json:"totalQty"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func emptySummary(id string) *Summary {
	return &Summary{
		ID:         id,
		Empty:      true,
		Message:    emptyCartMessage,
		Products:   []SummaryLine{},
		TotalPrice: decimal.Zero,
	}
}
