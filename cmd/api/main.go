// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/storefront-api/internal/admin"
	"github.com/carterperez-dev/storefront-api/internal/auth"
	"github.com/carterperez-dev/storefront-api/internal/cart"
	"github.com/carterperez-dev/storefront-api/internal/catalog"
	"github.com/carterperez-dev/storefront-api/internal/config"
	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/featured"
	"github.com/carterperez-dev/storefront-api/internal/health"
	"github.com/carterperez-dev/storefront-api/internal/media"
	"github.com/carterperez-dev/storefront-api/internal/middleware"
	"github.com/carterperez-dev/storefront-api/internal/migrations"
	"github.com/carterperez-dev/storefront-api/internal/notify"
	"github.com/carterperez-dev/storefront-api/internal/order"
	"github.com/carterperez-dev/storefront-api/internal/payment"
	"github.com/carterperez-dev/storefront-api/internal/server"
	"github.com/carterperez-dev/storefront-api/internal/user"
	"github.com/carterperez-dev/storefront-api/internal/wishlist"
)

const (
	apiPrefix            = "/api/v1"
	tokenCleanupInterval = time.Hour
	sensitiveRequests    = 10
	sensitiveBurst       = 5
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrate := flag.Bool("migrate", false, "apply database migrations and exit")
	generateKeys := flag.Bool("generate-keys", false, "write a new ES256 key pair to the configured paths and exit")
	flag.Parse()

	if err := run(*configPath, *migrate, *generateKeys); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen,gocyclo // bootstrap code is inherently verbose
func run(configPath string, migrateOnly, generateKeys bool) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)
	core.SetDebug(!cfg.IsProduction())

	if generateKeys {
		if err := auth.GenerateKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath); err != nil {
			return err
		}
		logger.Info("key pair written",
			"private", cfg.JWT.PrivateKeyPath,
			"public", cfg.JWT.PublicKeyPath,
		)
		return nil
	}

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}()
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if migrateOnly {
		return migrations.Apply(ctx, db.DB, logger)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}()
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	store, closeStore, err := media.NewStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("asset store close error", "error", err)
		}
	}()

	uploader, err := media.NewUploader(store, cfg.Storage.TempDir, cfg.Storage.MaxUploadBytes, logger)
	if err != nil {
		return err
	}

	notifier, closeNotifier, err := setupNotifier(cfg, logger)
	if err != nil {
		return err
	}

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, uploader, logger)
	userHandler := user.NewHandler(userSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authRepo,
		jwtManager,
		userSvc,
		redis.Client,
		notifier,
		auth.Links{
			VerificationURL:  cfg.Links.VerificationURL,
			ResetPasswordURL: cfg.Links.ResetPasswordURL,
			SignInURL:        cfg.Links.SignInURL,
		},
		logger,
	)
	googleAuth := auth.NewGoogleAuth(cfg.Google, authSvc)
	authHandler := auth.NewHandler(authSvc, googleAuth, cfg.Cookie)

	catalogRepo := catalog.NewRepository(db.DB)
	catalogSvc := catalog.NewService(catalogRepo, uploader, logger)
	catalogHandler := catalog.NewHandler(catalogSvc)

	featuredSvc := featured.NewService(featured.NewRepository(db.DB), uploader, logger)
	featuredHandler := featured.NewHandler(featuredSvc)

	cartRepo := cart.NewRepository(db.DB)
	cartSvc := cart.NewService(cartRepo, catalogSvc)
	cartHandler := cart.NewHandler(cartSvc)

	wishlistSvc := wishlist.NewService(wishlist.NewRepository(db.DB))
	wishlistHandler := wishlist.NewHandler(wishlistSvc)

	orderSvc := order.NewService(order.Deps{
		Orders:   order.NewRepository(db.DB),
		Carts:    cartRepo,
		Products: catalogSvc,
		Provider: payment.NewStripeProvider(cfg.Stripe),
		UoW:      order.NewUnitOfWork(db.DB),
		Dedup:    order.NewRedisDeduper(redis.Client),
		Notifier: notifier,
		Checkout: order.CheckoutConfig{
			SuccessURL:       cfg.Stripe.SuccessURL,
			CancelURL:        cfg.Stripe.CancelURL,
			Currency:         cfg.Stripe.Currency,
			AllowedCountries: cfg.Stripe.AllowedCountries,
		},
		Logger: logger,
	})
	orderHandler := order.NewHandler(orderSvc)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db, Critical: true},
		health.Dependency{Name: "redis", Checker: redis, Critical: true},
		health.Dependency{Name: "assets", Checker: store},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Store:      admin.NewStatsRepository(db.DB),
		Logger:     logger,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen:   true,
			BypassFunc: middleware.BypassPaths(apiPrefix + order.WebhookPath),
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(middleware.MaxBodySize(
		cfg.Server.MaxBodyBytes,
		middleware.IsMultipart,
		middleware.BypassPaths(apiPrefix+order.WebhookPath),
	))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	if local, ok := store.(*media.LocalStore); ok {
		router.Handle("/uploads/*", http.StripPrefix("/uploads/",
			http.FileServer(http.Dir(local.Root())),
		))
	}

	authenticator := middleware.Authenticator(authSvc)
	adminOnly := middleware.RequireAdmin
	sensitive := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:    middleware.PerMinute(sensitiveRequests, sensitiveBurst),
		KeyFunc:  middleware.KeyByIPAndEndpoint,
		FailOpen: true,
	}).Handler

	router.Route(apiPrefix, func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			authHandler.RegisterRoutes(r, authenticator, sensitive)
			userHandler.RegisterRoutes(r, authenticator, adminOnly)
		})

		catalogHandler.RegisterRoutes(r, authenticator, adminOnly)
		featuredHandler.RegisterRoutes(r, authenticator, adminOnly)
		cartHandler.RegisterRoutes(r, authenticator)
		wishlistHandler.RegisterRoutes(r, authenticator)
		orderHandler.RegisterRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	go authSvc.StartTokenCleanup(ctx, tokenCleanupInterval)
	go media.NewSweeper(cfg.Storage.TempDir, cfg.Storage.SweepMaxAge, logger).
		Run(ctx, cfg.Storage.SweepInterval)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		closeNotifier()
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+cfg.Server.DrainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, cfg.Server.DrainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	closeNotifier()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	logger.Info("application stopped")
	return nil
}

// setupNotifier picks the in-process worker pool or the Kafka queue drained
// by cmd/notifier.
func setupNotifier(cfg *config.Config, logger *slog.Logger) (notify.Notifier, func(), error) {
	switch cfg.Notify.Driver {
	case "kafka":
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, nil, fmt.Errorf("notify driver kafka: %w", core.ConfigurationError("kafka brokers"))
		}
		publisher := notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info("notifications queued to kafka", "topic", cfg.Kafka.Topic)
		return publisher, func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}, nil
	default:
		mailer, err := notify.NewMailer(cfg.Mail, logger)
		if err != nil {
			return nil, nil, err
		}
		dispatcher := notify.NewDispatcher(mailer, notify.DispatcherConfig{
			Workers:     cfg.Notify.Workers,
			QueueSize:   cfg.Notify.QueueSize,
			MaxAttempts: cfg.Notify.MaxAttempts,
			RetryDelay:  cfg.Notify.RetryDelay,
		}, logger)
		dispatcher.Start()
		logger.Info("notifications delivered inline",
			"provider", cfg.Mail.Provider,
			"workers", cfg.Notify.Workers,
		)
		return dispatcher, dispatcher.Close, nil
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
