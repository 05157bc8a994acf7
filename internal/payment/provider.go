// AngelaMos | 2026
// provider.go

package payment

import (
	"context"
)

const (
	EventCheckoutSessionCompleted = "checkout.session.completed"

	PaymentStatusPaid              = "paid"
	PaymentStatusNoPaymentRequired = "no_payment_required"
	PaymentStatusUnpaid            = "unpaid"
)

type Customer struct {
	ID       string
	Email    string
	Name     string
	Metadata map[string]string
}

type LineItem struct {
	Name       string
	ImageURL   string
	UnitAmount int64
	Quantity   int64
}

type SessionParams struct {
	CustomerID       string
	SuccessURL       string
	CancelURL        string
	Currency         string
	AllowedCountries []string
	Lines            []LineItem
}

type Session struct {
	ID  string `json:"session_id"`
	URL string `json:"url"`
}

type Address struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// CompletedSession is the subset of a finished hosted checkout the order
// flow reads.
type CompletedSession struct {
	ID              string
	CustomerID      string
	CustomerEmail   string
	PaymentIntentID string
	PaymentStatus   string
	Currency        string
	AmountTotal     int64
	Shipping        Address
}

func (s *CompletedSession) Settled() bool {
	return s.PaymentStatus == PaymentStatusPaid ||
		s.PaymentStatus == PaymentStatusNoPaymentRequired
}

type Event struct {
	ID      string
	Type    string
	Session *CompletedSession
}

type Provider interface {
	CreateCustomer(
		ctx context.Context,
		email, name string,
		metadata map[string]string,
	) (*Customer, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error)
	// ParseWebhook verifies the signature header against the raw payload
	// before decoding it.
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
