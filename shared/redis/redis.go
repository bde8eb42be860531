package redis

import (
	"context"
	"encoding/json"
	"time"

	"genai-customer-service/backend/pkg/config"

	"github.com/redis/go-redis/v9"
)

// EscalationQueue publishes escalation context bundles for human-agent tooling.
// Agents consume with BRPOP on the configured queue key.
type EscalationQueue struct {
	client *redis.Client
	key    string
}

// NewEscalationQueue creates a queue backed by the configured Redis instance
func NewEscalationQueue() *EscalationQueue {
	cfg := config.Get()
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: "", // no password by default
		DB:       0,  // use default DB
	})
	return &EscalationQueue{client: client, key: cfg.Redis.EscalationQueue}
}

// Push enqueues an escalation bundle as JSON
func (q *EscalationQueue) Push(ctx context.Context, bundle interface{}) error {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Pop dequeues the next escalation bundle, blocking up to timeout
func (q *EscalationQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		return "", err
	}
	// BRPOP returns [key, value]
	return res[1], nil
}

// Ping checks connectivity to Redis
func (q *EscalationQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}
