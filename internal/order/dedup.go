// AngelaMos | 2026
// dedup.go

package order

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	eventKeyPrefix     = "webhook:event:"
	eventProcessingTTL = 5 * time.Minute
	eventDoneTTL       = 48 * time.Hour

	eventProcessing = "processing"
	eventDone       = "done"
)

// EventDeduper claims provider event ids so a redelivered event is skipped
// while the first delivery is being processed or after it succeeded.
// A claim that is never completed lapses after a short window so a crash
// mid-fulfilment does not swallow the provider's retries.
type EventDeduper interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Complete(ctx context.Context, eventID string) error
	Release(ctx context.Context, eventID string) error
}

type RedisDeduper struct {
	rdb           *redis.Client
	processingTTL time.Duration
	doneTTL       time.Duration
}

func NewRedisDeduper(rdb *redis.Client) *RedisDeduper {
	return &RedisDeduper{
		rdb:           rdb,
		processingTTL: eventProcessingTTL,
		doneTTL:       eventDoneTTL,
	}
}

func (d *RedisDeduper) Claim(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, eventKeyPrefix+eventID, eventProcessing, d.processingTTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim event: %w", err)
	}
	return ok, nil
}

func (d *RedisDeduper) Complete(ctx context.Context, eventID string) error {
	if err := d.rdb.Set(ctx, eventKeyPrefix+eventID, eventDone, d.doneTTL).Err(); err != nil {
		return fmt.Errorf("complete event: %w", err)
	}
	return nil
}

func (d *RedisDeduper) Release(ctx context.Context, eventID string) error {
	if err := d.rdb.Del(ctx, eventKeyPrefix+eventID).Err(); err != nil {
		return fmt.Errorf("release event: %w", err)
	}
	return nil
}
