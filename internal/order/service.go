// AngelaMos | 2026
// service.go

package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/storefront-api/internal/cart"
	"github.com/carterperez-dev/storefront-api/internal/catalog"
	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/notify"
	"github.com/carterperez-dev/storefront-api/internal/payment"
)

const tracerScope = "storefront-api/order"

const (
	metaType    = "type"
	metaUserID  = "userId"
	metaCartID  = "cartId"
	metaProduct = "product"
)

type CartReader interface {
	GetByID(ctx context.Context, id string) (*cart.Cart, error)
}

type ProductReader interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	GetProducts(ctx context.Context, ids []string) (map[string]*catalog.Product, error)
}

type CheckoutConfig struct {
	SuccessURL       string
	CancelURL        string
	Currency         string
	AllowedCountries []string
}

// Source selects what is being bought: a whole cart or a single product.
type Source struct {
	CartID    string
	ProductID string
}

type productSnapshot struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Thumbnail string          `json:"thumbnail,omitempty"`
	Price     decimal.Decimal `json:"price"`
}

type checkoutMetadata struct {
	Type    CheckoutType
	UserID  string
	CartID  string
	Product *productSnapshot
}

type Service struct {
	orders   Repository
	carts    CartReader
	products ProductReader
	provider payment.Provider
	uow      UnitOfWork
	dedup    EventDeduper
	notifier notify.Notifier
	checkout CheckoutConfig
	logger   *slog.Logger
}

type Deps struct {
	Orders   Repository
	Carts    CartReader
	Products ProductReader
	Provider payment.Provider
	UoW      UnitOfWork
	Dedup    EventDeduper
	Notifier notify.Notifier
	Checkout CheckoutConfig
	Logger   *slog.Logger
}

func NewService(d Deps) *Service {
	if d.Checkout.Currency == "" {
		d.Checkout.Currency = "usd"
	}
	return &Service{
		orders:   d.Orders,
		carts:    d.Carts,
		products: d.Products,
		provider: d.Provider,
		uow:      d.UoW,
		dedup:    d.Dedup,
		notifier: d.Notifier,
		checkout: d.Checkout,
		logger:   d.Logger,
	}
}

// CreateCheckoutSession registers a provider customer carrying the metadata
// needed at fulfilment and opens a hosted checkout. No order exists until
// the provider confirms payment.
func (s *Service) CreateCheckoutSession(
	ctx context.Context,
	p core.Principal,
	src Source,
) (*payment.Session, error) {
	ctx, span := core.StartSpan(ctx, tracerScope, "order.CreateCheckoutSession",
		attribute.String("user.id", p.UserID),
	)
	defer span.End()

	if err := core.Authorize(p); err != nil {
		return nil, err
	}

	lines, meta, err := s.buildCheckout(ctx, p, src)
	if err != nil {
		return nil, err
	}

	if s.checkout.SuccessURL == "" || s.checkout.CancelURL == "" {
		return nil, core.ConfigurationError("checkout redirect urls")
	}

	s.transition(ctx, StateCartBuilt, "checkout_type", string(meta.Type), "lines", len(lines))

	encoded, err := encodeMetadata(meta)
	if err != nil {
		return nil, err
	}

	customer, err := s.provider.CreateCustomer(ctx, p.Email, p.Name, encoded)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payment.SessionParams{
		CustomerID:       customer.ID,
		SuccessURL:       s.checkout.SuccessURL,
		CancelURL:        s.checkout.CancelURL,
		Currency:         s.checkout.Currency,
		AllowedCountries: s.checkout.AllowedCountries,
		Lines:            lines,
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	s.transition(ctx, StateSessionCreated, "session_id", session.ID, "user_id", p.UserID)

	return session, nil
}

func (s *Service) buildCheckout(
	ctx context.Context,
	p core.Principal,
	src Source,
) ([]payment.LineItem, checkoutMetadata, error) {
	switch {
	case src.CartID != "":
		return s.buildCartCheckout(ctx, p, src.CartID)
	case src.ProductID != "":
		return s.buildInstantCheckout(ctx, p, src.ProductID)
	}
	return nil, checkoutMetadata{}, core.ValidationError("cart_id or product_id is required")
}

func (s *Service) buildCartCheckout(
	ctx context.Context,
	p core.Principal,
	cartID string,
) ([]payment.LineItem, checkoutMetadata, error) {
	if err := core.ValidateID(cartID, "cart id"); err != nil {
		return nil, checkoutMetadata{}, err
	}

	c, err := s.carts.GetByID(ctx, cartID)
	if errors.Is(err, core.ErrNotFound) || (err == nil && c.UserID != p.UserID) {
		return nil, checkoutMetadata{}, core.NotFoundError("cart")
	}
	if err != nil {
		return nil, checkoutMetadata{}, err
	}
	if c.IsEmpty() {
		return nil, checkoutMetadata{}, core.ValidationError("cart is empty")
	}

	products, err := s.products.GetProducts(ctx, c.ProductIDs())
	if err != nil {
		return nil, checkoutMetadata{}, err
	}

	lines := make([]payment.LineItem, 0, len(c.Items))
	for _, it := range c.Items {
		product, ok := products[it.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, lineItem(product, it.Quantity))
	}
	if len(lines) == 0 {
		return nil, checkoutMetadata{}, core.ValidationError("cart has no purchasable items")
	}

	return lines, checkoutMetadata{Type: CheckoutCart, UserID: p.UserID, CartID: c.ID}, nil
}

func (s *Service) buildInstantCheckout(
	ctx context.Context,
	p core.Principal,
	productID string,
) ([]payment.LineItem, checkoutMetadata, error) {
	if err := core.ValidateID(productID, "product id"); err != nil {
		return nil, checkoutMetadata{}, err
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, checkoutMetadata{}, err
	}

	meta := checkoutMetadata{
		Type:   CheckoutInstant,
		UserID: p.UserID,
		Product: &productSnapshot{
			ID:        product.ID,
			Title:     product.Title,
			Thumbnail: product.Thumbnail.URL,
			Price:     product.EffectivePrice(),
		},
	}

	return []payment.LineItem{lineItem(product, 1)}, meta, nil
}

// HandlePaymentWebhook verifies and applies one provider event. The
// signature is checked before anything is read or written.
func (s *Service) HandlePaymentWebhook(ctx context.Context, signature string, payload []byte) error {
	event, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}

	ctx, span := core.StartSpan(ctx, tracerScope, "order.HandlePaymentWebhook",
		attribute.String("event.id", event.ID),
		attribute.String("event.type", event.Type),
	)
	defer span.End()

	if event.Type != payment.EventCheckoutSessionCompleted || event.Session == nil {
		s.logger.Debug("webhook event ignored", "event_id", event.ID, "type", event.Type)
		return nil
	}

	// The provider has already charged the customer; a client disconnect
	// must not abort fulfilment or strand the claim.
	ctx = context.WithoutCancel(ctx)

	claimed, err := s.dedup.Claim(ctx, event.ID)
	if err != nil {
		s.logger.Warn("event dedup unavailable, relying on session uniqueness",
			"event_id", event.ID, "error", err)
	} else if !claimed {
		s.logger.Info("duplicate webhook event skipped", "event_id", event.ID)
		return nil
	}

	if err := s.fulfil(ctx, event.Session); err != nil {
		core.SetSpanError(ctx, err)
		if claimed {
			if relErr := s.dedup.Release(ctx, event.ID); relErr != nil {
				s.logger.Warn("event claim release failed", "event_id", event.ID, "error", relErr)
			}
		}
		return err
	}

	if claimed {
		if err := s.dedup.Complete(ctx, event.ID); err != nil {
			s.logger.Warn("event claim completion failed", "event_id", event.ID, "error", err)
		}
	}

	return nil
}

func (s *Service) fulfil(ctx context.Context, session *payment.CompletedSession) error {
	if !session.Settled() {
		s.transition(ctx, StatePaymentFailed,
			"session_id", session.ID, "payment_status", session.PaymentStatus)
		return nil
	}

	if existing, err := s.orders.GetBySessionID(ctx, session.ID); err == nil {
		s.logger.Info("session already fulfilled", "session_id", session.ID, "order_id", existing.ID)
		return nil
	} else if !errors.Is(err, core.ErrNotFound) {
		return err
	}

	customer, err := s.provider.GetCustomer(ctx, session.CustomerID)
	if err != nil {
		return err
	}

	meta, err := decodeMetadata(customer.Metadata)
	if err != nil {
		return err
	}

	s.transition(ctx, StatePaymentConfirmed,
		"session_id", session.ID, "user_id", meta.UserID, "checkout_type", string(meta.Type))

	currency := session.Currency
	if currency == "" {
		currency = s.checkout.Currency
	}

	o := &Order{
		ID:                      core.NewID(),
		UserID:                  meta.UserID,
		CheckoutType:            meta.Type,
		Shipping:                Shipping(session.Shipping),
		Currency:                strings.ToLower(currency),
		PaymentStatus:           session.PaymentStatus,
		DeliveryStatus:          StatusOrdered,
		ProviderSessionID:       session.ID,
		ProviderPaymentIntentID: session.PaymentIntentID,
		ProviderCustomerID:      customer.ID,
	}

	err = s.uow.Within(ctx, func(st Stores) error {
		switch meta.Type {
		case CheckoutCart:
			return s.fulfilCart(ctx, st, o, meta.CartID)
		default:
			return s.fulfilInstant(ctx, st, o, meta.Product)
		}
	})
	if errors.Is(err, core.ErrDuplicateKey) {
		s.logger.Info("session fulfilled concurrently", "session_id", session.ID)
		return nil
	}
	if err != nil {
		return err
	}

	if charged := catalog.MinorUnits(o.Total); charged != session.AmountTotal {
		s.logger.Warn("order total differs from amount charged",
			"order_id", o.ID,
			"session_id", session.ID,
			"order_total_minor", charged,
			"amount_charged_minor", session.AmountTotal,
		)
		core.AddSpanEvent(ctx, "order.amount_mismatch")
	}

	s.transition(ctx, StateOrderFulfilled,
		"order_id", o.ID, "session_id", session.ID, "total", o.Total.StringFixed(2))

	s.sendConfirmation(ctx, o, customer, session.CustomerEmail)

	return nil
}

func (s *Service) fulfilCart(ctx context.Context, st Stores, o *Order, cartID string) error {
	c, err := st.Carts.GetByID(ctx, cartID)
	if errors.Is(err, core.ErrNotFound) {
		return core.NotFoundError("cart")
	}
	if err != nil {
		return err
	}

	products, err := st.Products.GetByIDs(ctx, c.ProductIDs())
	if err != nil {
		return err
	}
	byID := make(map[string]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, it := range c.Items {
		product, ok := byID[it.ProductID]
		if !ok {
			s.logger.Warn("cart product missing at fulfilment",
				"cart_id", c.ID, "product_id", it.ProductID)
			continue
		}
		o.Items = append(o.Items, Line{
			ProductID: product.ID,
			Title:     product.Title,
			Thumbnail: product.Thumbnail.URL,
			UnitPrice: product.EffectivePrice(),
			Quantity:  it.Quantity,
		})
	}
	o.Total = o.Items.Total()

	if err := st.Orders.Create(ctx, o); err != nil {
		return err
	}

	for _, line := range o.Items {
		if err := s.decrementStock(ctx, st, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}

	return st.Carts.Delete(ctx, c.ID)
}

func (s *Service) fulfilInstant(
	ctx context.Context,
	st Stores,
	o *Order,
	snapshot *productSnapshot,
) error {
	o.Items = Lines{{
		ProductID: snapshot.ID,
		Title:     snapshot.Title,
		Thumbnail: snapshot.Thumbnail,
		UnitPrice: snapshot.Price,
		Quantity:  1,
	}}
	o.Total = o.Items.Total()

	if err := st.Orders.Create(ctx, o); err != nil {
		return err
	}

	return s.decrementStock(ctx, st, snapshot.ID, 1)
}

// decrementStock clamps at zero. A shortfall or a vanished product is
// logged and does not fail fulfilment.
func (s *Service) decrementStock(ctx context.Context, st Stores, productID string, qty int) error {
	change, err := st.Products.DecrementStock(ctx, productID, qty)
	if errors.Is(err, core.ErrNotFound) {
		s.logger.Warn("stock decrement skipped, product missing", "product_id", productID)
		return nil
	}
	if err != nil {
		return err
	}

	if short := change.Shortfall(qty); short > 0 {
		s.logger.Warn("stock shortfall at fulfilment",
			"product_id", productID,
			"requested", qty,
			"available", change.Previous,
			"shortfall", short,
		)
	}
	return nil
}

func (s *Service) sendConfirmation(
	ctx context.Context,
	o *Order,
	customer *payment.Customer,
	fallbackEmail string,
) {
	to := customer.Email
	if to == "" {
		to = fallbackEmail
	}
	if to == "" || s.notifier == nil {
		return
	}

	lines := make([]notify.OrderLine, 0, len(o.Items))
	for _, l := range o.Items {
		lines = append(lines, notify.OrderLine{
			Title:    l.Title,
			Quantity: l.Quantity,
			Total:    l.Total().StringFixed(2),
		})
	}

	msg := notify.OrderConfirmationEmail(to, customer.Name, o.ID, o.Total.StringFixed(2), o.Currency, lines)
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Warn("order confirmation not queued", "order_id", o.ID, "error", err)
	}
}

func (s *Service) UpdateOrderStatus(
	ctx context.Context,
	actor core.Principal,
	orderID string,
	status string,
) (*Order, error) {
	if err := core.Authorize(actor, core.RoleAdmin); err != nil {
		return nil, err
	}
	if err := core.ValidateID(orderID, "order id"); err != nil {
		return nil, err
	}

	next := DeliveryStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, core.ValidationError(fmt.Sprintf("invalid status %q", status),
			"status must be one of: ordered, shipped, delivered")
	}

	current, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("order")
	}
	if err != nil {
		return nil, err
	}

	if !CanTransition(current.DeliveryStatus, next) {
		return nil, core.ValidationError(
			fmt.Sprintf("cannot move order from %s to %s", current.DeliveryStatus, next),
			"delivery status only advances: ordered, shipped, delivered",
		)
	}

	o, err := s.orders.UpdateDeliveryStatus(ctx, orderID, next)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("order")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status updated",
		"order_id", o.ID, "from", current.DeliveryStatus, "status", next, "by", actor.UserID)

	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, p core.Principal) ([]Order, error) {
	if err := core.Authorize(p); err != nil {
		return nil, err
	}
	return s.orders.ListByUser(ctx, p.UserID)
}

// GetOrder returns an order to its owner or an admin. Anyone else sees
// NotFound.
func (s *Service) GetOrder(ctx context.Context, p core.Principal, id string) (*Order, error) {
	if err := core.Authorize(p); err != nil {
		return nil, err
	}
	if err := core.ValidateID(id, "order id"); err != nil {
		return nil, err
	}

	o, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) || (err == nil && o.UserID != p.UserID && !p.IsAdmin()) {
		return nil, core.NotFoundError("order")
	}
	return o, err
}

func (s *Service) ListAllOrders(
	ctx context.Context,
	actor core.Principal,
	params ListParams,
) ([]Order, int64, error) {
	if err := core.Authorize(actor, core.RoleAdmin); err != nil {
		return nil, 0, err
	}
	if params.Status != "" && !params.Status.Valid() {
		return nil, 0, core.ValidationError(fmt.Sprintf("invalid status %q", params.Status))
	}
	return s.orders.ListAll(ctx, params)
}

func (s *Service) transition(ctx context.Context, state State, args ...any) {
	core.AddSpanEvent(ctx, string(state))
	s.logger.Info("checkout state", append([]any{"state", string(state)}, args...)...)
}

func lineItem(p *catalog.Product, qty int) payment.LineItem {
	return payment.LineItem{
		Name:       p.Title,
		ImageURL:   p.Thumbnail.URL,
		UnitAmount: catalog.MinorUnits(p.EffectivePrice()),
		Quantity:   int64(qty),
	}
}

func encodeMetadata(m checkoutMetadata) (map[string]string, error) {
	out := map[string]string{
		metaType:   string(m.Type),
		metaUserID: m.UserID,
	}
	if m.CartID != "" {
		out[metaCartID] = m.CartID
	}
	if m.Product != nil {
		raw, err := json.Marshal(m.Product)
		if err != nil {
			return nil, fmt.Errorf("encode product snapshot: %w", err)
		}
		out[metaProduct] = string(raw)
	}
	return out, nil
}

func decodeMetadata(md map[string]string) (checkoutMetadata, error) {
	m := checkoutMetadata{
		Type:   CheckoutType(md[metaType]),
		UserID: md[metaUserID],
		CartID: md[metaCartID],
	}

	if !core.IsValidID(m.UserID) {
		return m, core.ValidationError("checkout metadata has no valid user")
	}

	switch m.Type {
	case CheckoutCart:
		if !core.IsValidID(m.CartID) {
			return m, core.ValidationError("checkout metadata has no valid cart")
		}
	case CheckoutInstant:
		var snap productSnapshot
		if err := json.Unmarshal([]byte(md[metaProduct]), &snap); err != nil || !core.IsValidID(snap.ID) {
			return m, core.ValidationError("checkout metadata has no valid product")
		}
		m.Product = &snap
	default:
		return m, core.ValidationError(fmt.Sprintf("unknown checkout type %q", m.Type))
	}

	return m, nil
}
