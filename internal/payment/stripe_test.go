// AngelaMos | 2026
// stripe_test.go

package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront-api/internal/config"
	"github.com/carterperez-dev/storefront-api/internal/core"
)

const testWebhookSecret = "whsec_test_secret"

const completedPayload = `{
  "id": "evt_123",
  "object": "event",
  "type": "checkout.session.completed",
  "data": {
    "object": {
      "id": "cs_test_1",
      "object": "checkout.session",
      "customer": "cus_1",
      "payment_intent": "pi_1",
      "payment_status": "paid",
      "currency": "usd",
      "amount_total": 2500,
      "customer_details": {"email": "a@x.com", "name": "A"},
      "shipping_details": {
        "name": "A Buyer",
        "address": {"line1": "1 Main St", "city": "Springfield", "postal_code": "12345", "country": "US"}
      }
    }
  }
}`

func sign(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	_, err := fmt.Fprintf(mac, "%d.%s", ts, payload)
	require.NoError(t, err)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func newTestProvider() *StripeProvider {
	return NewStripeProvider(config.StripeConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
	})
}

func TestParseWebhookDecodesCompletedSession(t *testing.T) {
	p := newTestProvider()
	payload := []byte(completedPayload)

	event, err := p.ParseWebhook(payload, sign(t, payload, testWebhookSecret))
	require.NoError(t, err)

	assert.Equal(t, "evt_123", event.ID)
	assert.Equal(t, EventCheckoutSessionCompleted, event.Type)
	require.NotNil(t, event.Session)
	assert.Equal(t, "cs_test_1", event.Session.ID)
	assert.Equal(t, "cus_1", event.Session.CustomerID)
	assert.Equal(t, "pi_1", event.Session.PaymentIntentID)
	assert.Equal(t, int64(2500), event.Session.AmountTotal)
	assert.True(t, event.Session.Settled())
	assert.Equal(t, "A Buyer", event.Session.Shipping.Name)
	assert.Equal(t, "Springfield", event.Session.Shipping.City)
}

func TestParseWebhookRejectsBadSignatures(t *testing.T) {
	p := newTestProvider()
	payload := []byte(completedPayload)

	tests := []struct {
		name      string
		signature string
	}{
		{"missing", ""},
		{"garbage", "not-a-signature"},
		{"wrong secret", sign(t, payload, "whsec_other")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseWebhook(payload, tt.signature)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrSignature)
		})
	}
}

func TestParseWebhookWithoutSecretIsConfigurationError(t *testing.T) {
	p := NewStripeProvider(config.StripeConfig{SecretKey: "sk_test_123"})

	_, err := p.ParseWebhook([]byte(completedPayload), "t=1,v1=abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestUnconfiguredProviderRefusesCalls(t *testing.T) {
	p := NewStripeProvider(config.StripeConfig{})

	_, err := p.CreateCheckoutSession(t.Context(), SessionParams{})
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = p.CreateCustomer(t.Context(), "a@x.com", "A", nil)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestOtherEventsCarryNoSession(t *testing.T) {
	p := newTestProvider()
	payload := []byte(`{"id":"evt_9","object":"event","type":"payment_intent.created","data":{"object":{"id":"pi_9"}}}`)

	event, err := p.ParseWebhook(payload, sign(t, payload, testWebhookSecret))
	require.NoError(t, err)
	assert.Equal(t, "payment_intent.created", event.Type)
	assert.Nil(t, event.Session)
}
