// AngelaMos | 2026
// kafka.go

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes messages to a topic consumed by cmd/notifier.
type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Notify(ctx context.Context, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(msg.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

type ConsumerConfig struct {
	Brokers         []string
	Topic           string
	GroupID         string
	DeadLetterTopic string
	MaxAttempts     int
	RetryDelay      time.Duration
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer sends queued messages and commits each offset only after the send
// succeeded, giving at-least-once delivery. A message that still fails after
// MaxAttempts is copied to the dead letter topic and committed so it cannot
// stall its partition.
type Consumer struct {
	r      messageReader
	dead   messageWriter
	mailer Mailer
	cfg    ConsumerConfig
	logger *slog.Logger
}

func NewConsumer(cfg ConsumerConfig, mailer Mailer, logger *slog.Logger) *Consumer {
	c := &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.Brokers,
			GroupID:        cfg.GroupID,
			Topic:          cfg.Topic,
			MinBytes:       1,
			MaxBytes:       10e6,
			CommitInterval: 0,
		}),
		mailer: mailer,
		cfg:    cfg,
		logger: logger,
	}

	if cfg.DeadLetterTopic != "" {
		c.dead = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.DeadLetterTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		}
	}

	return c
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.close()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := c.handle(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := c.r.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit message: %w", err)
		}
	}
}

// handle returns an error only when the message must stay uncommitted.
func (c *Consumer) handle(ctx context.Context, m kafka.Message) error {
	var msg Message
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		c.logger.Error("discarding malformed notification",
			"offset", m.Offset,
			"partition", m.Partition,
			"error", err,
		)
		return c.deadLetter(ctx, m, "malformed payload")
	}

	err := Deliver(ctx, c.mailer, msg, c.cfg.MaxAttempts, c.cfg.RetryDelay, c.logger)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	c.logger.Error("notification undeliverable, skipping",
		"kind", msg.Kind,
		"to", msg.To,
		"offset", m.Offset,
		"partition", m.Partition,
		"error", err,
	)
	return c.deadLetter(ctx, m, err.Error())
}

func (c *Consumer) deadLetter(ctx context.Context, m kafka.Message, reason string) error {
	if c.dead == nil {
		return nil
	}

	headers := append(slices.Clone(m.Headers),
		kafka.Header{Key: "dead-letter-reason", Value: []byte(reason)},
		kafka.Header{Key: "source-topic", Value: []byte(m.Topic)},
		kafka.Header{Key: "source-offset", Value: []byte(strconv.FormatInt(m.Offset, 10))},
	)

	err := c.dead.WriteMessages(ctx, kafka.Message{
		Key:     m.Key,
		Value:   m.Value,
		Time:    time.Now(),
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("dead-letter notification: %w", err)
	}
	return nil
}

func (c *Consumer) close() {
	_ = c.r.Close()
	if c.dead != nil {
		_ = c.dead.Close()
	}
}
