// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/carterperez-dev/storefront-api/internal/config"
	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/notify"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("notifier error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
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

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if cfg.Log.Format != "json" {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	slog.SetDefault(logger)

	if len(cfg.Kafka.Brokers) == 0 {
		return core.ConfigurationError("kafka brokers")
	}

	mailer, err := notify.NewMailer(cfg.Mail, logger)
	if err != nil {
		return err
	}

	consumer := notify.NewConsumer(notify.ConsumerConfig{
		Brokers:         cfg.Kafka.Brokers,
		Topic:           cfg.Kafka.Topic,
		GroupID:         cfg.Kafka.GroupID,
		DeadLetterTopic: cfg.Kafka.DeadLetterTopic,
		MaxAttempts:     cfg.Notify.MaxAttempts,
		RetryDelay:      cfg.Notify.RetryDelay,
	}, mailer, logger)

	logger.Info("notifier consuming",
		"topic", cfg.Kafka.Topic,
		"group_id", cfg.Kafka.GroupID,
		"dead_letter_topic", cfg.Kafka.DeadLetterTopic,
		"provider", cfg.Mail.Provider,
	)

	if err := consumer.Run(ctx); err != nil {
		return err
	}

	logger.Info("notifier stopped")
	return nil
}
