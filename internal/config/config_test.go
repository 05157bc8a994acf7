// AngelaMos | 2026
// config_test.go

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/storefront")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STRIPE_SUCCESS_URL", "https://shop.example/success")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 15*time.Minute, c.JWT.AccessTokenExpire)
	assert.Equal(t, "usd", c.Stripe.Currency)
	assert.Equal(t, "https://shop.example/success", c.Stripe.SuccessURL)
	assert.Empty(t, c.Stripe.CancelURL, "redirect urls are checked per checkout, not at startup")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "local", c.Storage.Driver)
	assert.Equal(t, time.Hour, c.Storage.SweepMaxAge)
	assert.Greater(t, c.Storage.SweepMaxAge, c.Server.WriteTimeout)
	assert.Equal(t, []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining",
		"X-RateLimit-Reset", "Retry-After"}, c.CORS.ExposedHeaders)
	assert.True(t, c.IsDevelopment())
}

func TestLoadListsFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KAFKA_BROKERS", " k1:9092 , k2:9092,,k3:9092")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example,https://admin.shop.example")
	t.Setenv("STRIPE_ALLOWED_COUNTRIES", "US,CA")

	c, err := load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092", "k3:9092"}, c.Kafka.Brokers)
	assert.Equal(t, []string{"https://shop.example", "https://admin.shop.example"}, c.CORS.AllowedOrigins)
	assert.Equal(t, []string{"US", "CA"}, c.Stripe.AllowedCountries)
}

func TestEnvKeyValue(t *testing.T) {
	key, val := envKeyValue("KAFKA_BROKERS", "a:1,b:2")
	assert.Equal(t, "kafka.brokers", key)
	assert.Equal(t, []string{"a:1", "b:2"}, val)

	key, val = envKeyValue("KAFKA_TOPIC", "a,b")
	assert.Equal(t, "kafka.topic", key)
	assert.Equal(t, "a,b", val)

	key, _ = envKeyValue("HOME", "/root")
	assert.Empty(t, key)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database", map[string]string{"DATABASE_URL": ""}},
		{"unknown storage driver", map[string]string{"STORAGE_DRIVER": "s3"}},
		{"gcs without bucket", map[string]string{"STORAGE_DRIVER": "gcs"}},
		{"sendgrid without key", map[string]string{"MAIL_PROVIDER": "sendgrid"}},
		{"kafka without brokers", map[string]string{"NOTIFY_DRIVER": "kafka"}},
		{"sweep age inside request window", map[string]string{"STORAGE_SWEEP_MAX_AGE": "10s"}},
		{"insecure cookie in production", map[string]string{
			"ENVIRONMENT":   "production",
			"COOKIE_SECURE": "false",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := load("")
			assert.Error(t, err)
		})
	}
}

func TestServerAddress(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	assert.Equal(t, "127.0.0.1:8080", s.Address())
}
