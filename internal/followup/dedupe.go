package followup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oomavera/agency/internal/leads"
)

// Deduper suppresses duplicate follow-up scheduling for the same phone
// within a short horizon, e.g. a visitor resubmitting the same form.
type Deduper interface {
	// FirstSchedule returns true when no follow-up was recently scheduled
	// for the phone, claiming the slot as a side effect.
	FirstSchedule(ctx context.Context, phone string) (bool, error)
}

// RedisDeduper claims scheduling slots with SET NX under a TTL.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper builds a deduper over an existing Redis client.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) FirstSchedule(ctx context.Context, phone string) (bool, error) {
	key := fmt.Sprintf("followup:sched:%s", leads.DigitsOnly(phone))
	ok, err := d.client.SetNX(ctx, key, "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("followup: dedupe claim: %w", err)
	}
	return ok, nil
}

// NoopDeduper always allows scheduling. Used when Redis is not configured.
type NoopDeduper struct{}

func (NoopDeduper) FirstSchedule(context.Context, string) (bool, error) { return true, nil }
