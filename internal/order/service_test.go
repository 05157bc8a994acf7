// AngelaMos | 2026
// service_test.go

package order

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront-api/internal/cart"
	"github.com/carterperez-dev/storefront-api/internal/catalog"
	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/media"
	"github.com/carterperez-dev/storefront-api/internal/notify"
	"github.com/carterperez-dev/storefront-api/internal/payment"
)

type fakeOrders struct {
	mu   sync.Mutex
	rows map[string]*Order
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{rows: map[string]*Order{}}
}

func (f *fakeOrders) Create(_ context.Context, o *Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rows {
		if existing.ProviderSessionID == o.ProviderSessionID {
			return core.ErrDuplicateKey
		}
	}
	cp := *o
	f.rows[o.ID] = &cp
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.rows[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeOrders) GetBySessionID(_ context.Context, sessionID string) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.rows {
		if o.ProviderSessionID == sessionID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeOrders) ListByUser(_ context.Context, userID string) ([]Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Order{}
	for _, o := range f.rows {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrders) ListAll(_ context.Context, _ ListParams) ([]Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Order{}
	for _, o := range f.rows {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrders) UpdateDeliveryStatus(
	_ context.Context,
	id string,
	status DeliveryStatus,
) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.rows[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	o.DeliveryStatus = status
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeProducts struct {
	rows     map[string]*catalog.Product
	stock    map[string]int
	requests map[string]int
}

func newFakeProducts(products ...catalog.Product) *fakeProducts {
	f := &fakeProducts{
		rows:     map[string]*catalog.Product{},
		stock:    map[string]int{},
		requests: map[string]int{},
	}
	for i := range products {
		p := products[i]
		f.rows[p.ID] = &p
		f.stock[p.ID] = p.Quantity
	}
	return f
}

func (f *fakeProducts) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	if p, ok := f.rows[id]; ok {
		return p, nil
	}
	return nil, core.NotFoundError("product")
}

func (f *fakeProducts) GetProducts(_ context.Context, ids []string) (map[string]*catalog.Product, error) {
	out := map[string]*catalog.Product{}
	for _, id := range ids {
		if p, ok := f.rows[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeProducts) GetByIDs(_ context.Context, ids []string) ([]catalog.Product, error) {
	out := []catalog.Product{}
	for _, id := range ids {
		if p, ok := f.rows[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProducts) DecrementStock(_ context.Context, id string, qty int) (catalog.StockChange, error) {
	prev, ok := f.stock[id]
	if !ok {
		return catalog.StockChange{}, core.ErrNotFound
	}
	f.requests[id] += qty
	f.stock[id] = max(prev-qty, 0)
	return catalog.StockChange{Previous: prev, Remaining: f.stock[id]}, nil
}

type fakeCarts struct {
	rows    map[string]*cart.Cart
	deleted []string
}

func (f *fakeCarts) GetByID(_ context.Context, id string) (*cart.Cart, error) {
	if c, ok := f.rows[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeCarts) Delete(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.rows, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeUoW struct {
	stores Stores
	calls  int
}

func (u *fakeUoW) Within(_ context.Context, fn func(Stores) error) error {
	u.calls++
	return fn(u.stores)
}

type fakeProvider struct {
	customers      map[string]*payment.Customer
	sessions       []payment.SessionParams
	event          *payment.Event
	parseCalled    int
	beforeCustomer func(ctx context.Context) error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{customers: map[string]*payment.Customer{}}
}

func (f *fakeProvider) CreateCustomer(
	_ context.Context,
	email, name string,
	metadata map[string]string,
) (*payment.Customer, error) {
	c := &payment.Customer{ID: "cus_1", Email: email, Name: name, Metadata: metadata}
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeProvider) GetCustomer(ctx context.Context, id string) (*payment.Customer, error) {
	if f.beforeCustomer != nil {
		if err := f.beforeCustomer(ctx); err != nil {
			return nil, err
		}
	}
	if c, ok := f.customers[id]; ok {
		return c, nil
	}
	return nil, core.NotFoundError("customer")
}

func (f *fakeProvider) CreateCheckoutSession(
	_ context.Context,
	params payment.SessionParams,
) (*payment.Session, error) {
	f.sessions = append(f.sessions, params)
	return &payment.Session{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil
}

func (f *fakeProvider) ParseWebhook(_ []byte, signature string) (*payment.Event, error) {
	f.parseCalled++
	if signature != "valid" {
		return nil, core.SignatureError("webhook signature verification failed")
	}
	return f.event, nil
}

type memDeduper struct {
	claimed map[string]bool
}

func (d *memDeduper) Claim(_ context.Context, id string) (bool, error) {
	if d.claimed[id] {
		return false, nil
	}
	d.claimed[id] = true
	return true, nil
}

func (d *memDeduper) Complete(_ context.Context, id string) error {
	d.claimed[id] = true
	return nil
}

func (d *memDeduper) Release(_ context.Context, id string) error {
	delete(d.claimed, id)
	return nil
}

type recordingNotifier struct {
	sent []notify.Message
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	n.sent = append(n.sent, msg)
	return nil
}

type fixture struct {
	svc      *Service
	orders   *fakeOrders
	products *fakeProducts
	carts    *fakeCarts
	uow      *fakeUoW
	provider *fakeProvider
	notifier *recordingNotifier
	buyer    core.Principal
	cartID   string
	productA string
	productB string
}

func newFixture(t *testing.T, checkout CheckoutConfig) *fixture {
	t.Helper()

	buyer := core.Principal{
		UserID: core.NewID(),
		Email:  "buyer@example.com",
		Name:   "Buyer",
		Role:   core.RoleUser,
	}
	productA := catalog.Product{
		ID:        core.NewID(),
		Title:     "Widget A",
		Thumbnail: media.Asset{URL: "https://cdn.example/a.jpg"},
		PriceBase: decimal.NewFromInt(10),
		Quantity:  10,
	}
	productB := catalog.Product{
		ID:              core.NewID(),
		Title:           "Widget B",
		PriceBase:       decimal.NewFromInt(8),
		PriceDiscounted: decimal.NewFromInt(5),
		Quantity:        10,
	}
	cartID := core.NewID()

	f := &fixture{
		orders:   newFakeOrders(),
		products: newFakeProducts(productA, productB),
		carts: &fakeCarts{rows: map[string]*cart.Cart{
			cartID: {
				ID:     cartID,
				UserID: buyer.UserID,
				Items: cart.Items{
					{ProductID: productA.ID, Quantity: 2},
					{ProductID: productB.ID, Quantity: 1},
				},
			},
		}},
		provider: newFakeProvider(),
		notifier: &recordingNotifier{},
		buyer:    buyer,
		cartID:   cartID,
		productA: productA.ID,
		productB: productB.ID,
	}
	f.uow = &fakeUoW{stores: Stores{Orders: f.orders, Products: f.products, Carts: f.carts}}

	f.svc = NewService(Deps{
		Orders:   f.orders,
		Carts:    f.carts,
		Products: f.products,
		Provider: f.provider,
		UoW:      f.uow,
		Dedup:    &memDeduper{claimed: map[string]bool{}},
		Notifier: f.notifier,
		Checkout: checkout,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

func defaultCheckout() CheckoutConfig {
	return CheckoutConfig{
		SuccessURL: "https://shop.example/success",
		CancelURL:  "https://shop.example/cancel",
		Currency:   "usd",
	}
}

func (f *fixture) completedEvent(eventID string) *payment.Event {
	return &payment.Event{
		ID:   eventID,
		Type: payment.EventCheckoutSessionCompleted,
		Session: &payment.CompletedSession{
			ID:            "cs_test_1",
			CustomerID:    "cus_1",
			PaymentStatus: payment.PaymentStatusPaid,
			Currency:      "usd",
			AmountTotal:   2500,
		},
	}
}

func TestCartCheckoutFulfilment(t *testing.T) {
	f := newFixture(t, defaultCheckout())
	ctx := t.Context()

	session, err := f.svc.CreateCheckoutSession(ctx, f.buyer, Source{CartID: f.cartID})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)

	require.Len(t, f.provider.sessions, 1)
	lines := f.provider.sessions[0].Lines
	require.Len(t, lines, 2)
	assert.Equal(t, int64(1000), lines[0].UnitAmount)
	assert.Equal(t, int64(2), lines[0].Quantity)
	assert.Equal(t, int64(500), lines[1].UnitAmount)

	meta := f.provider.customers["cus_1"].Metadata
	assert.Equal(t, string(CheckoutCart), meta[metaType])
	assert.Equal(t, f.buyer.UserID, meta[metaUserID])
	assert.Equal(t, f.cartID, meta[metaCartID])
	assert.Equal(t, 0, f.orders.count(), "no order before payment")

	f.provider.event = f.completedEvent("evt_1")
	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, "valid", []byte(`{}`)))

	orders, err := f.svc.ListOrders(ctx, f.buyer)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.True(t, decimal.NewFromInt(25).Equal(o.Total), "total %s", o.Total)
	assert.Equal(t, StatusOrdered, o.DeliveryStatus)
	assert.Equal(t, CheckoutCart, o.CheckoutType)
	assert.Equal(t, []string{f.cartID}, f.carts.deleted)
	assert.Equal(t, 8, f.products.stock[f.productA])
	assert.Equal(t, 9, f.products.stock[f.productB])

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "buyer@example.com", f.notifier.sent[0].To)
	assert.Equal(t, notify.KindOrderConfirmation, f.notifier.sent[0].Kind)
}

func TestInstantCheckoutFulfilment(t *testing.T) {
	f := newFixture(t, defaultCheckout())
	ctx := t.Context()

	_, err := f.svc.CreateCheckoutSession(ctx, f.buyer, Source{ProductID: f.productB})
	require.NoError(t, err)
	require.Len(t, f.provider.sessions[0].Lines, 1)
	assert.Equal(t, int64(1), f.provider.sessions[0].Lines[0].Quantity)

	f.provider.event = f.completedEvent("evt_instant")
	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, "valid", nil))

	orders, err := f.svc.ListOrders(ctx, f.buyer)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, CheckoutInstant, orders[0].CheckoutType)
	assert.True(t, decimal.NewFromInt(5).Equal(orders[0].Total))
	assert.Equal(t, 9, f.products.stock[f.productB])
	assert.Empty(t, f.carts.deleted)
}

func TestWebhookSignatureCheckedFirst(t *testing.T) {
	for _, sig := range []string{"", "t=1,v1=bad"} {
		f := newFixture(t, defaultCheckout())
		f.provider.event = f.completedEvent("evt_1")

		err := f.svc.HandlePaymentWebhook(t.Context(), sig, []byte(`{}`))
		require.ErrorIs(t, err, core.ErrSignature)
		assert.Equal(t, 0, f.uow.calls)
		assert.Equal(t, 0, f.orders.count())
	}
}

func TestWebhookReplayCreatesOneOrder(t *testing.T) {
	f := newFixture(t, defaultCheckout())
	ctx := t.Context()

	_, err := f.svc.CreateCheckoutSession(ctx, f.buyer, Source{CartID: f.cartID})
	require.NoError(t, err)

	f.provider.event = f.completedEvent("evt_1")
	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, "valid", nil))
	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, "valid", nil))

	f.provider.event = f.completedEvent("evt_2")
	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, "valid", nil))

	assert.Equal(t, 1, f.orders.count())
	assert.Equal(t, 8, f.products.stock[f.productA])
	assert.Len(t, f.notifier.sent, 1)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	f := newFixture(t, defaultCheckout())
	f.provider.event = &payment.Event{ID: "evt_x", Type: "customer.created"}

	require.NoError(t, f.svc.HandlePaymentWebhook(t.Context(), "valid", nil))
	assert.Equal(t, 0, f.uow.calls)
}

func TestWebhookUnpaidSessionCreatesNoOrder(t *testing.T) {
	f := newFixture(t, defaultCheckout())
	ctx := t.Context()

	_, err := f.svc.CreateCheckoutSession(ctx, f.buyer, Source{CartID: f.cartID})
	require.NoError(t, err)

	event := f.completedEvent("evt_1")
	event.Session.PaymentStatus = payment.PaymentStatusUnpaid
	f.provider.event = event

	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, "valid", nil))
	assert.Equal(t, 0, f.orders.count())
	assert.Empty(t, f.carts.deleted)
}

func TestCheckoutRequiresRedirectURLs(t *testing.T) {
	f := newFixture(t, CheckoutConfig{Currency: "usd"})

	_, err := f.svc.CreateCheckoutSession(t.Context(), f.buyer, Source{CartID: f.cartID})
	require.ErrorIs(t, err, core.ErrConfiguration)
	assert.Empty(t, f.provider.sessions)
}

func TestCheckoutNotFound(t *testing.T) {
	f := newFixture(t, defaultCheckout())
	ctx := t.Context()

	_, err := f.svc.CreateCheckoutSession(ctx, f.buyer, Source{CartID: core.NewID()})
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.svc.CreateCheckoutSession(ctx, f.buyer, Source{ProductID: core.NewID()})
	require.ErrorIs(t, err, core.ErrNotFound)

	stranger := core.Principal{UserID: core.NewID(), Role: core.RoleUser}
	_, err = f.svc.CreateCheckoutSession(ctx, stranger, Source{CartID: f.cartID})
	require.ErrorIs(t, err, core.ErrNotFound)

	assert.Empty(t, f.provider.sessions)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t, defaultCheckout())
	f.carts.rows[f.cartID].Items = nil

	_, err := f.svc.CreateCheckoutSession(t.Context(), f.buyer, Source{CartID: f.cartID})
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestCheckoutRequiresAuthentication(t *testing.T) {
	f := newFixture(t, defaultCheckout())

	_, err := f.svc.CreateCheckoutSession(t.Context(), core.Principal{}, Source{CartID: f.cartID})
	require.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(t, defaultCheckout())
	ctx := t.Context()
	admin := core.Principal{UserID: core.NewID(), Role: core.RoleAdmin}

	o := &Order{ID: core.NewID(), UserID: f.buyer.UserID, ProviderSessionID: "cs_1", DeliveryStatus: StatusOrdered}
	require.NoError(t, f.orders.Create(ctx, o))

	updated, err := f.svc.UpdateOrderStatus(ctx, admin, o.ID, "Shipped")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, updated.DeliveryStatus)

	_, err = f.svc.UpdateOrderStatus(ctx, admin, o.ID, "cancelled")
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.svc.UpdateOrderStatus(ctx, f.buyer, o.ID, "delivered")
	require.ErrorIs(t, err, core.ErrForbidden)

	_, err = f.svc.UpdateOrderStatus(ctx, admin, core.NewID(), "delivered")
	require.ErrorIs(t, err, core.ErrNotFound)

	updated, err = f.svc.UpdateOrderStatus(ctx, admin, o.ID, "delivered")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, updated.DeliveryStatus)

	for _, back := range []string{"ordered", "shipped", "delivered"} {
		_, err = f.svc.UpdateOrderStatus(ctx, admin, o.ID, back)
		require.ErrorIs(t, err, core.ErrInvalidInput, back)

		stored, err := f.orders.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusDelivered, stored.DeliveryStatus, "rejected move to %s left order unchanged", back)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to DeliveryStatus
		ok       bool
	}{
		{StatusOrdered, StatusShipped, true},
		{StatusOrdered, StatusDelivered, true},
		{StatusShipped, StatusDelivered, true},
		{StatusOrdered, StatusOrdered, false},
		{StatusShipped, StatusOrdered, false},
		{StatusDelivered, StatusShipped, false},
		{StatusDelivered, StatusOrdered, false},
		{StatusDelivered, StatusDelivered, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to))
		})
	}
}

func useRedisDeduper(t *testing.T, f *fixture) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	f.svc.dedup = NewRedisDeduper(rdb)
	return mr
}

func TestWebhookRetryAfterAbortedDelivery(t *testing.T) {
	f := newFixture(t, defaultCheckout())
	mr := useRedisDeduper(t, f)

	_, err := f.svc.CreateCheckoutSession(t.Context(), f.buyer, Source{CartID: f.cartID})
	require.NoError(t, err)
	f.provider.event = f.completedEvent("evt_1")

	reqCtx, cancel := context.WithCancel(t.Context())
	f.provider.beforeCustomer = func(context.Context) error {
		cancel()
		f.provider.beforeCustomer = nil
		return context.Canceled
	}

	err = f.svc.HandlePaymentWebhook(reqCtx, "valid", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, mr.Exists(eventKeyPrefix+"evt_1"), "failed delivery must release its claim")
	assert.Equal(t, 0, f.orders.count())

	require.NoError(t, f.svc.HandlePaymentWebhook(t.Context(), "valid", nil))
	assert.Equal(t, 1, f.orders.count())
	assert.Equal(t, []string{f.cartID}, f.carts.deleted)

	marker, err := mr.Get(eventKeyPrefix + "evt_1")
	require.NoError(t, err)
	assert.Equal(t, eventDone, marker)
	assert.Equal(t, eventDoneTTL, mr.TTL(eventKeyPrefix+"evt_1"))

	require.NoError(t, f.svc.HandlePaymentWebhook(t.Context(), "valid", nil))
	assert.Equal(t, 1, f.orders.count())
}

func TestWebhookFulfilsAfterClientDisconnect(t *testing.T) {
	f := newFixture(t, defaultCheckout())
	useRedisDeduper(t, f)

	_, err := f.svc.CreateCheckoutSession(t.Context(), f.buyer, Source{CartID: f.cartID})
	require.NoError(t, err)
	f.provider.event = f.completedEvent("evt_1")

	reqCtx, cancel := context.WithCancel(t.Context())
	f.provider.beforeCustomer = func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	}

	require.NoError(t, f.svc.HandlePaymentWebhook(reqCtx, "valid", nil))
	assert.Equal(t, 1, f.orders.count())
}

func TestWebhookStaleClaimLapses(t *testing.T) {
	f := newFixture(t, defaultCheckout())
	mr := useRedisDeduper(t, f)
	ctx := t.Context()

	_, err := f.svc.CreateCheckoutSession(ctx, f.buyer, Source{CartID: f.cartID})
	require.NoError(t, err)
	f.provider.event = f.completedEvent("evt_1")

	claimed, err := f.svc.dedup.Claim(ctx, "evt_1")
	require.NoError(t, err)
	require.True(t, claimed)
	assert.Equal(t, eventProcessingTTL, mr.TTL(eventKeyPrefix+"evt_1"))

	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, "valid", nil))
	assert.Equal(t, 0, f.orders.count(), "in-flight claim skips the redelivery")

	mr.FastForward(eventProcessingTTL + time.Second)

	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, "valid", nil))
	assert.Equal(t, 1, f.orders.count())
}

func TestWebhookAmountMismatchIsLogged(t *testing.T) {
	f := newFixture(t, defaultCheckout())
	ctx := t.Context()
	var logs bytes.Buffer
	f.svc.logger = slog.New(slog.NewTextHandler(&logs, nil))

	_, err := f.svc.CreateCheckoutSession(ctx, f.buyer, Source{CartID: f.cartID})
	require.NoError(t, err)

	event := f.completedEvent("evt_1")
	event.Session.AmountTotal = 1500
	f.provider.event = event

	require.NoError(t, f.svc.HandlePaymentWebhook(ctx, "valid", nil))
	assert.Equal(t, 1, f.orders.count())
	assert.Contains(t, logs.String(), "order total differs from amount charged")
	assert.Contains(t, logs.String(), "order_total_minor=2500")
	assert.Contains(t, logs.String(), "amount_charged_minor=1500")
}

func TestWebhookMatchingAmountNotFlagged(t *testing.T) {
	f := newFixture(t, defaultCheckout())
	var logs bytes.Buffer
	f.svc.logger = slog.New(slog.NewTextHandler(&logs, nil))

	_, err := f.svc.CreateCheckoutSession(t.Context(), f.buyer, Source{CartID: f.cartID})
	require.NoError(t, err)
	f.provider.event = f.completedEvent("evt_1")

	require.NoError(t, f.svc.HandlePaymentWebhook(t.Context(), "valid", nil))
	assert.NotContains(t, logs.String(), "order total differs")
}

func TestGetOrderVisibility(t *testing.T) {
	f := newFixture(t, defaultCheckout())
	ctx := t.Context()

	o := &Order{ID: core.NewID(), UserID: f.buyer.UserID, ProviderSessionID: "cs_1"}
	require.NoError(t, f.orders.Create(ctx, o))

	got, err := f.svc.GetOrder(ctx, f.buyer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	stranger := core.Principal{UserID: core.NewID(), Role: core.RoleUser}
	_, err = f.svc.GetOrder(ctx, stranger, o.ID)
	require.ErrorIs(t, err, core.ErrNotFound)

	admin := core.Principal{UserID: core.NewID(), Role: core.RoleAdmin}
	_, err = f.svc.GetOrder(ctx, admin, o.ID)
	require.NoError(t, err)
}

func TestMetadataRoundTrip(t *testing.T) {
	in := checkoutMetadata{
		Type:   CheckoutInstant,
		UserID: core.NewID(),
		Product: &productSnapshot{
			ID:    core.NewID(),
			Title: "Lamp",
			Price: decimal.RequireFromString("19.99"),
		},
	}

	encoded, err := encodeMetadata(in)
	require.NoError(t, err)

	out, err := decodeMetadata(encoded)
	require.NoError(t, err)
	assert.Equal(t, in.UserID, out.UserID)
	assert.Equal(t, in.Product.ID, out.Product.ID)
	assert.True(t, in.Product.Price.Equal(out.Product.Price))

	_, err = decodeMetadata(map[string]string{metaType: "bogus", metaUserID: core.NewID()})
	require.ErrorIs(t, err, core.ErrInvalidInput)
}
