// AngelaMos | 2026
// dispatcher.go

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrQueueFull = errors.New("notification queue full")
	ErrClosed    = errors.New("notification dispatcher closed")
)

const sendTimeout = 15 * time.Second

type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	RetryDelay  time.Duration
}

// Dispatcher delivers messages from an in-memory queue with a small worker
// pool. Failed sends are retried with linear backoff.
type Dispatcher struct {
	mailer Mailer
	cfg    DispatcherConfig
	logger *slog.Logger

	mu     sync.RWMutex
	queue  chan Message
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(mailer Mailer, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	return &Dispatcher{
		mailer: mailer,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan Message, cfg.QueueSize),
	}
}

func (d *Dispatcher) Start() {
	for range d.cfg.Workers {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for msg := range d.queue {
				_ = Deliver(context.Background(), d.mailer, msg, d.cfg.MaxAttempts, d.cfg.RetryDelay, d.logger) //nolint:errcheck // logged in Deliver
			}
		}()
	}
}

func (d *Dispatcher) Notify(_ context.Context, msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}

	select {
	case d.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits until queued ones are sent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func Deliver(
	ctx context.Context,
	mailer Mailer,
	msg Message,
	maxAttempts int,
	retryDelay time.Duration,
	logger *slog.Logger,
) error {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		lastErr = mailer.Send(sendCtx, msg)
		cancel()

		if lastErr == nil {
			logger.Debug("email sent", "kind", msg.Kind, "to", msg.To, "attempt", attempt)
			return nil
		}

		logger.Warn("email send failed",
			"kind", msg.Kind,
			"to", msg.To,
			"attempt", attempt,
			"error", lastErr,
		)

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay * time.Duration(attempt)):
			}
		}
	}

	logger.Error("email dropped after retries", "kind", msg.Kind, "to", msg.To)
	return fmt.Errorf("deliver %s: %w", msg.Kind, lastErr)
}
