// AngelaMos | 2026
// dto.go

package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartCheckoutRequest struct {
	CartID string `json:"cart_id" validate:"required"`
}

type InstantCheckoutRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

type UpdateStatusRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	Status  string `json:"status"  validate:"required"`
}

type LineResponse struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Thumbnail string          `json:"thumbnail,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

type OrderResponse struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	CheckoutType   CheckoutType    `json:"checkout_type"`
	Items          []LineResponse  `json:"items"`
	Shipping       Shipping        `json:"shipping"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	PaymentStatus  string          `json:"payment_status"`
	DeliveryStatus DeliveryStatus  `json:"delivery_status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func ToOrderResponse(o *Order) OrderResponse {
	items := make([]LineResponse, 0, len(o.Items))
	for _, l := range o.Items {
		items = append(items, LineResponse{
			ProductID: l.ProductID,
			Title:     l.Title,
			Thumbnail: l.Thumbnail,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Total:     l.Total(),
		})
	}

	return OrderResponse{
		ID:             o.ID,
		UserID:         o.UserID,
		CheckoutType:   o.CheckoutType,
		Items:          items,
		Shipping:       o.Shipping,
		Total:          o.Total,
		Currency:       o.Currency,
		PaymentStatus:  o.PaymentStatus,
		DeliveryStatus: o.DeliveryStatus,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func ToOrderResponseList(orders []Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToOrderResponse(&orders[i]))
	}
	return out
}
