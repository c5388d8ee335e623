package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/emberapp/ember-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const globalChannel = "ember.events"

// RedisPublisher fans engine events out over Redis pub/sub: once on a global
// channel and once per member on ember.user.<id>, which the notification
// gateway subscribes to.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, globalChannel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	for _, userID := range event.UserIDs {
		if err := p.client.Publish(ctx, userChannel(userID), body).Err(); err != nil {
			return fmt.Errorf("failed to publish user event: %w", err)
		}
	}
	return nil
}

func userChannel(userID int) string {
	return fmt.Sprintf("ember.user.%d", userID)
}
