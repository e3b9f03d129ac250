package events

import (
	"context"
	"encoding/json"
	"fmt"

	"agrimandi-auction-service/internal/ports/outbound"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// FirehoseChannel carries every event regardless of auction, for
// dashboards and reporting consumers that want the full stream
const FirehoseChannel = "auction:events"

// RedisPublisher delivers lifecycle events over Redis pub/sub. Each event
// goes to the per-auction channel and the firehose channel.
type RedisPublisher struct {
	client *redis.Client
	logger zerolog.Logger
}

type RedisPublisherParams struct {
	RedisClient *redis.Client
	Logger      zerolog.Logger
}

// NewRedisPublisher creates a new Redis event publisher
func NewRedisPublisher(params RedisPublisherParams) *RedisPublisher {
	return &RedisPublisher{
		client: params.RedisClient,
		logger: params.Logger.With().Str("component", "redis_publisher").Logger(),
	}
}

// Publish delivers an event to the auction channel and the firehose
func (p *RedisPublisher) Publish(ctx context.Context, event outbound.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := fmt.Sprintf("auction:%s", event.AuctionID.String())
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	if err := p.client.Publish(ctx, FirehoseChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to firehose: %w", err)
	}

	p.logger.Debug().
		Str("event_type", string(event.Type)).
		Str("auction_id", event.AuctionID.String()).
		Msg("Event published")

	return nil
}
