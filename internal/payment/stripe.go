// AngelaMos | 2026
// stripe.go

package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/carterperez-dev/storefront-api/internal/config"
	"github.com/carterperez-dev/storefront-api/internal/core"
)

type StripeProvider struct {
	api           *client.API
	configured    bool
	webhookSecret string
}

func NewStripeProvider(cfg config.StripeConfig) *StripeProvider {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &StripeProvider{
		api:           api,
		configured:    cfg.SecretKey != "",
		webhookSecret: cfg.WebhookSecret,
	}
}

func (p *StripeProvider) CreateCustomer(
	ctx context.Context,
	email, name string,
	metadata map[string]string,
) (*Customer, error) {
	if !p.configured {
		return nil, core.ConfigurationError("stripe secret key")
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	c, err := p.api.Customers.New(params)
	if err != nil {
		return nil, core.UpstreamError("stripe", err)
	}

	return toCustomer(c), nil
}

func (p *StripeProvider) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	if !p.configured {
		return nil, core.ConfigurationError("stripe secret key")
	}

	params := &stripe.CustomerParams{}
	params.Context = ctx

	c, err := p.api.Customers.Get(id, params)
	if err != nil {
		return nil, core.UpstreamError("stripe", err)
	}

	return toCustomer(c), nil
}

func (p *StripeProvider) CreateCheckoutSession(
	ctx context.Context,
	sp SessionParams,
) (*Session, error) {
	if !p.configured {
		return nil, core.ConfigurationError("stripe secret key")
	}

	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(sp.Lines))
	for _, l := range sp.Lines {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(l.Name),
		}
		if l.ImageURL != "" {
			product.Images = stripe.StringSlice([]string{l.ImageURL})
		}

		lines = append(lines, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(strings.ToLower(sp.Currency)),
				UnitAmount:  stripe.Int64(l.UnitAmount),
				ProductData: product,
			},
			Quantity: stripe.Int64(l.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		Customer:           stripe.String(sp.CustomerID),
		SuccessURL:         stripe.String(sp.SuccessURL),
		CancelURL:          stripe.String(sp.CancelURL),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(sp.AllowedCountries),
		},
		LineItems: lines,
	}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, core.UpstreamError("stripe", err)
	}

	return &Session{ID: s.ID, URL: s.URL}, nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, core.SignatureError("missing webhook signature")
	}
	if p.webhookSecret == "" {
		return nil, core.ConfigurationError("stripe webhook secret")
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, core.SignatureError("invalid webhook signature")
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}
	if out.Type != EventCheckoutSessionCompleted || event.Data == nil {
		return out, nil
	}

	session, err := decodeSession(event.Data.Raw)
	if err != nil {
		return nil, core.ValidationError(fmt.Sprintf("malformed checkout session: %v", err))
	}
	out.Session = session

	return out, nil
}

type rawAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type rawSession struct {
	ID              string `json:"id"`
	Customer        string `json:"customer"`
	PaymentIntent   string `json:"payment_intent"`
	PaymentStatus   string `json:"payment_status"`
	Currency        string `json:"currency"`
	AmountTotal     int64  `json:"amount_total"`
	CustomerDetails *struct {
		Email   string      `json:"email"`
		Name    string      `json:"name"`
		Address *rawAddress `json:"address"`
	} `json:"customer_details"`
	ShippingDetails *struct {
		Name    string      `json:"name"`
		Address *rawAddress `json:"address"`
	} `json:"shipping_details"`
}

func decodeSession(raw json.RawMessage) (*CompletedSession, error) {
	var rs rawSession
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, err
	}
	if rs.ID == "" {
		return nil, fmt.Errorf("session id is empty")
	}

	s := &CompletedSession{
		ID:              rs.ID,
		CustomerID:      rs.Customer,
		PaymentIntentID: rs.PaymentIntent,
		PaymentStatus:   rs.PaymentStatus,
		Currency:        rs.Currency,
		AmountTotal:     rs.AmountTotal,
	}

	var addr *rawAddress
	if rs.CustomerDetails != nil {
		s.CustomerEmail = rs.CustomerDetails.Email
		s.Shipping.Name = rs.CustomerDetails.Name
		addr = rs.CustomerDetails.Address
	}
	if rs.ShippingDetails != nil && rs.ShippingDetails.Address != nil {
		s.Shipping.Name = rs.ShippingDetails.Name
		addr = rs.ShippingDetails.Address
	}
	if addr != nil {
		s.Shipping.Line1 = addr.Line1
		s.Shipping.Line2 = addr.Line2
		s.Shipping.City = addr.City
		s.Shipping.State = addr.State
		s.Shipping.PostalCode = addr.PostalCode
		s.Shipping.Country = addr.Country
	}

	return s, nil
}

func toCustomer(c *stripe.Customer) *Customer {
	return &Customer{
		ID:       c.ID,
		Email:    c.Email,
		Name:     c.Name,
		Metadata: c.Metadata,
	}
}

var _ Provider = (*StripeProvider)(nil)
