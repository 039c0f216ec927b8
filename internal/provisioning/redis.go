package provisioning

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hearthhq/hearth/internal/domain/model"
)

// RedisDispatcher pushes provisioning jobs onto a Redis list consumed by
// the edge workers (BRPOP on the same key).
type RedisDispatcher struct {
	client *redis.Client
	queue  string
	logger *zap.Logger
}

// NewRedisDispatcher creates a RedisDispatcher publishing to the given
// list key.
func NewRedisDispatcher(client *redis.Client, queue string, logger *zap.Logger) *RedisDispatcher {
	return &RedisDispatcher{client: client, queue: queue, logger: logger}
}

// Dispatch enqueues one job. The caller treats failures as best-effort:
// they are surfaced for logging but never roll back verification state.
func (d *RedisDispatcher) Dispatch(ctx context.Context, claim *model.Claim, kind string) error {
	payload, err := json.Marshal(NewJob(claim, kind))
	if err != nil {
		return fmt.Errorf("marshal provisioning job: %w", err)
	}

	if err := d.client.LPush(ctx, d.queue, payload).Err(); err != nil {
		return fmt.Errorf("enqueue provisioning job: %w", err)
	}

	d.logger.Info("provisioning job enqueued",
		zap.String("hostname", claim.Hostname),
		zap.String("kind", kind),
		zap.String("queue", d.queue),
	)
	return nil
}
