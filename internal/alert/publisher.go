package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/safestreets/safemap/internal/models"
)

//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks

const alertQueueKey = "incident_alerts"

// IncidentEvent is the payload fanned out when a new incident is reported.
type IncidentEvent struct {
	Incident   *models.Incident `json:"incident"`
	ReportedAt time.Time        `json:"reported_at"`
}

// Publisher enqueues incident events for asynchronous delivery.
type Publisher interface {
	Publish(ctx context.Context, event IncidentEvent) error
}

// RedisPublisher implements Publisher over a Redis list queue.
type RedisPublisher struct {
	redisClient *redis.Client
}

// NewRedisPublisher creates a RedisPublisher.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{redisClient: client}
}

// Publish pushes the event onto the alert queue.
func (p *RedisPublisher) Publish(ctx context.Context, event IncidentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal incident event: %w", err)
	}

	if err := p.redisClient.LPush(ctx, alertQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish incident event to Redis: %w", err)
	}
	return nil
}
