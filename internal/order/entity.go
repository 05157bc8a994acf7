// AngelaMos | 2026
// entity.go

package order

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/storefront-api/internal/payment"
)

type DeliveryStatus string

const (
	StatusOrdered   DeliveryStatus = "ordered"
	StatusShipped   DeliveryStatus = "shipped"
	StatusDelivered DeliveryStatus = "delivered"
)

var DeliveryStatuses = []DeliveryStatus{StatusOrdered, StatusShipped, StatusDelivered}

func (s DeliveryStatus) Valid() bool {
	return slices.Contains(DeliveryStatuses, s)
}

// Delivery only moves forward. Skipping straight to delivered is allowed.
var validNext = map[DeliveryStatus]map[DeliveryStatus]bool{
	StatusOrdered: {StatusShipped: true, StatusDelivered: true},
	StatusShipped: {StatusDelivered: true},
}

func CanTransition(from, to DeliveryStatus) bool {
	return validNext[from][to]
}

type CheckoutType string

const (
	CheckoutCart    CheckoutType = "checkout"
	CheckoutInstant CheckoutType = "instant-checkout"
)

// State names a step of the checkout flow. States are only emitted as log
// fields and span events.
type State string

const (
	StateCartBuilt        State = "CART_BUILT"
	StateSessionCreated   State = "SESSION_CREATED"
	StatePaymentConfirmed State = "PAYMENT_CONFIRMED"
	StateOrderFulfilled   State = "ORDER_FULFILLED"
	StatePaymentFailed    State = "PAYMENT_FAILED"
)

type Line struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Thumbnail string          `json:"thumbnail,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Lines []Line

func (l Lines) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *Lines) Scan(src any) error {
	return scanJSON(src, l)
}

func (l Lines) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range l {
		total = total.Add(line.Total())
	}
	return total
}

type Shipping payment.Address

func (s Shipping) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *Shipping) Scan(src any) error {
	return scanJSON(src, s)
}

type Order struct {
	ID                      string          `db:"id"`
	UserID                  string          `db:"user_id"`
	CheckoutType            CheckoutType    `db:"checkout_type"`
	Items                   Lines           `db:"items"`
	Shipping                Shipping        `db:"shipping"`
	Total                   decimal.Decimal `db:"total"`
	Currency                string          `db:"currency"`
	PaymentStatus           string          `db:"payment_status"`
	DeliveryStatus          DeliveryStatus  `db:"delivery_status"`
	ProviderSessionID       string          `db:"provider_session_id"`
	ProviderPaymentIntentID string          `db:"provider_payment_intent_id"`
	ProviderCustomerID      string          `db:"provider_customer_id"`
	CreatedAt               time.Time       `db:"created_at"`
	UpdatedAt               time.Time       `db:"updated_at"`
}

func scanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	}
	return fmt.Errorf("scan order json: unsupported type %T", src)
}
