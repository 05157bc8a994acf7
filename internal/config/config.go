// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	Cookie    CookieConfig    `koanf:"cookie"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Stripe    StripeConfig    `koanf:"stripe"`
	Storage   StorageConfig   `koanf:"storage"`
	Mail      MailConfig      `koanf:"mail"`
	Notify    NotifyConfig    `koanf:"notify"`
	Kafka     KafkaConfig     `koanf:"kafka"`
	Links     LinksConfig     `koanf:"links"`
	Google    GoogleConfig    `koanf:"google"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	DrainDelay      time.Duration `koanf:"drain_delay"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path"`
	PublicKeyPath      string        `koanf:"public_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
}

type CookieConfig struct {
	Domain   string `koanf:"domain"`
	Secure   bool   `koanf:"secure"`
	SameSite string `koanf:"same_site"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	ExposedHeaders   []string `koanf:"exposed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type StripeConfig struct {
	SecretKey        string   `koanf:"secret_key"`
	WebhookSecret    string   `koanf:"webhook_secret"`
	SuccessURL       string   `koanf:"success_url"`
	CancelURL        string   `koanf:"cancel_url"`
	Currency         string   `koanf:"currency"`
	AllowedCountries []string `koanf:"allowed_countries"`
}

type StorageConfig struct {
	Driver          string        `koanf:"driver"`
	Bucket          string        `koanf:"bucket"`
	CredentialsFile string        `koanf:"credentials_file"`
	PublicBaseURL   string        `koanf:"public_base_url"`
	LocalDir        string        `koanf:"local_dir"`
	TempDir         string        `koanf:"temp_dir"`
	SweepInterval   time.Duration `koanf:"sweep_interval"`
	SweepMaxAge     time.Duration `koanf:"sweep_max_age"`
	MaxUploadBytes  int64         `koanf:"max_upload_bytes"`
}

type MailConfig struct {
	Provider    string `koanf:"provider"`
	APIKey      string `koanf:"api_key"`
	FromAddress string `koanf:"from_address"`
	FromName    string `koanf:"from_name"`
}

type NotifyConfig struct {
	Driver      string        `koanf:"driver"`
	Workers     int           `koanf:"workers"`
	QueueSize   int           `koanf:"queue_size"`
	MaxAttempts int           `koanf:"max_attempts"`
	RetryDelay  time.Duration `koanf:"retry_delay"`
}

type KafkaConfig struct {
	Brokers         []string `koanf:"brokers"`
	Topic           string   `koanf:"topic"`
	GroupID         string   `koanf:"group_id"`
	DeadLetterTopic string   `koanf:"dead_letter_topic"`
}

type LinksConfig struct {
	VerificationURL  string `koanf:"verification_url"`
	ResetPasswordURL string `koanf:"reset_password_url"`
	SignInURL        string `koanf:"sign_in_url"`
}

type GoogleConfig struct {
	ClientID        string `koanf:"client_id"`
	ClientSecret    string `koanf:"client_secret"`
	RedirectURL     string `koanf:"redirect_url"`
	SuccessRedirect string `koanf:"success_redirect"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envKeyValue), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Storefront API",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",
		"server.drain_delay":      "5s",
		"server.max_body_bytes":   1 << 20,

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"jwt.access_token_expire":  "15m",
		"jwt.refresh_token_expire": "168h",
		"jwt.issuer":               "storefront-api",
		"jwt.audience":             "storefront-clients",
		"jwt.private_key_path":     "keys/private.pem",
		"jwt.public_key_path":      "keys/public.pem",

		"cookie.secure":    true,
		"cookie.same_site": "lax",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.exposed_headers": []string{
			"X-Request-ID",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
			"Retry-After",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "storefront-api",

		"stripe.currency":          "usd",
		"stripe.allowed_countries": []string{"US", "CA", "GB"},

		"storage.driver":           "local",
		"storage.public_base_url":  "https://storage.googleapis.com",
		"storage.local_dir":        "uploads",
		"storage.temp_dir":         "tmp",
		"storage.sweep_interval":   "10m",
		"storage.sweep_max_age":    "1h",
		"storage.max_upload_bytes": 10 << 20,

		"mail.provider":     "log",
		"mail.from_address": "no-reply@localhost",
		"mail.from_name":    "Storefront",

		"notify.driver":       "inline",
		"notify.workers":      2,
		"notify.queue_size":   256,
		"notify.max_attempts": 3,
		"notify.retry_delay":  "2s",

		"kafka.topic":             "storefront.notifications",
		"kafka.group_id":          "storefront-notifier",
		"kafka.dead_letter_topic": "storefront.notifications.dead",

		"links.verification_url":   "http://localhost:3000/verify",
		"links.reset_password_url": "http://localhost:3000/reset-password",
		"links.sign_in_url":        "http://localhost:3000/sign-in",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_PRIVATE_KEY_PATH":        "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":         "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"JWT_REFRESH_TOKEN_EXPIRE":    "jwt.refresh_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"COOKIE_DOMAIN":               "cookie.domain",
	"COOKIE_SECURE":               "cookie.secure",
	"COOKIE_SAME_SITE":            "cookie.same_site",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"STRIPE_SECRET_KEY":           "stripe.secret_key",
	"STRIPE_WEBHOOK_SECRET":       "stripe.webhook_secret",
	"STRIPE_SUCCESS_URL":          "stripe.success_url",
	"STRIPE_CANCEL_URL":           "stripe.cancel_url",
	"STRIPE_CURRENCY":             "stripe.currency",
	"STORAGE_DRIVER":              "storage.driver",
	"GCS_BUCKET":                  "storage.bucket",
	"GCS_CREDENTIALS_FILE":        "storage.credentials_file",
	"STORAGE_PUBLIC_BASE_URL":     "storage.public_base_url",
	"STORAGE_LOCAL_DIR":           "storage.local_dir",
	"STORAGE_TEMP_DIR":            "storage.temp_dir",
	"STORAGE_MAX_UPLOAD_BYTES":    "storage.max_upload_bytes",
	"MAIL_PROVIDER":               "mail.provider",
	"MAIL_API_KEY":                "mail.api_key",
	"MAIL_FROM_ADDRESS":           "mail.from_address",
	"MAIL_FROM_NAME":              "mail.from_name",
	"NOTIFY_DRIVER":               "notify.driver",
	"NOTIFY_WORKERS":              "notify.workers",
	"NOTIFY_MAX_ATTEMPTS":         "notify.max_attempts",
	"KAFKA_BROKERS":               "kafka.brokers",
	"CORS_ALLOWED_ORIGINS":        "cors.allowed_origins",
	"CORS_EXPOSED_HEADERS":        "cors.exposed_headers",
	"STRIPE_ALLOWED_COUNTRIES":    "stripe.allowed_countries",
	"STORAGE_SWEEP_MAX_AGE":       "storage.sweep_max_age",
	"KAFKA_TOPIC":                 "kafka.topic",
	"KAFKA_GROUP_ID":              "kafka.group_id",
	"KAFKA_DEAD_LETTER_TOPIC":     "kafka.dead_letter_topic",
	"VERIFICATION_URL":            "links.verification_url",
	"RESET_PASSWORD_URL":          "links.reset_password_url",
	"SIGN_IN_URL":                 "links.sign_in_url",
	"GOOGLE_CLIENT_ID":            "google.client_id",
	"GOOGLE_CLIENT_SECRET":        "google.client_secret",
	"GOOGLE_REDIRECT_URL":         "google.redirect_url",
	"GOOGLE_SUCCESS_REDIRECT":     "google.success_redirect",
}

// Keys whose env values are comma-separated lists.
var envListKeys = map[string]struct{}{
	"kafka.brokers":            {},
	"cors.allowed_origins":     {},
	"cors.exposed_headers":     {},
	"stripe.allowed_countries": {},
}

func envKeyValue(key, value string) (string, any) {
	mapped, ok := envKeyMap[key]
	if !ok {
		return "", nil
	}
	if _, isList := envListKeys[mapped]; isList {
		return mapped, splitList(value)
	}
	return mapped, value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.PrivateKeyPath == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH is required")
	}

	if c.JWT.PublicKeyPath == "" {
		return fmt.Errorf("JWT_PUBLIC_KEY_PATH is required")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
		if !c.Cookie.Secure {
			return fmt.Errorf("COOKIE_SECURE must be true in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	// A spooled upload lives at most as long as its request.
	if c.Storage.SweepMaxAge <= c.Server.WriteTimeout {
		return fmt.Errorf(
			"storage.sweep_max_age (%s) must exceed server.write_timeout (%s)",
			c.Storage.SweepMaxAge, c.Server.WriteTimeout,
		)
	}

	switch c.Storage.Driver {
	case "local":
	case "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for the gcs storage driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Mail.Provider {
	case "log":
	case "sendgrid", "postmark":
		if c.Mail.APIKey == "" {
			return fmt.Errorf("MAIL_API_KEY is required for %s", c.Mail.Provider)
		}
	default:
		return fmt.Errorf("unknown mail provider %q", c.Mail.Provider)
	}

	switch c.Notify.Driver {
	case "inline":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required for the kafka notify driver")
		}
	default:
		return fmt.Errorf("unknown notify driver %q", c.Notify.Driver)
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (g *GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RedirectURL != ""
}
