// Package commands bridges the engine's inbound services onto Redis
// pub/sub. Frontends publish commands on one channel and observe the
// outcome through the lifecycle event channels, which keeps the engine
// free of any HTTP surface.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"agrimandi-auction-service/internal/ports/inbound"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Channel carries inbound commands for the engine
const Channel = "auction:commands"

// Op identifies the operation a command requests
type Op string

const (
	OpPlaceBid       Op = "place_bid"
	OpAttachPayment  Op = "attach_payment"
	OpConfirmPayment Op = "confirm_payment"
)

// Command is the wire envelope: an operation name and its request payload
type Command struct {
	Op   Op              `json:"op"`
	Data json.RawMessage `json:"data"`
}

// Consumer subscribes to the command channel and dispatches each message
// to the matching service. Commands are fire-and-forget: rejections are
// logged here and accepted operations announce themselves through the
// event publisher.
type Consumer struct {
	client      *redis.Client
	bids        inbound.BidService
	settlements inbound.SettlementService
	logger      zerolog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

type ConsumerParams struct {
	RedisClient *redis.Client
	Bids        inbound.BidService
	Settlements inbound.SettlementService
	Logger      zerolog.Logger
}

// NewConsumer creates a new command consumer
func NewConsumer(params ConsumerParams) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		client:      params.RedisClient,
		bids:        params.Bids,
		settlements: params.Settlements,
		logger:      params.Logger.With().Str("component", "command_consumer").Logger(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins consuming commands
func (c *Consumer) Start() {
	c.logger.Info().Str("channel", Channel).Msg("Starting command consumer")

	c.wg.Add(1)
	go c.consumeLoop()
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	c.logger.Info().Msg("Stopping command consumer")
	c.cancel()
	c.wg.Wait()
}

func (c *Consumer) consumeLoop() {
	defer c.wg.Done()

	pubsub := c.client.Subscribe(c.ctx, Channel)
	defer pubsub.Close()

	messages := pubsub.Channel()
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				c.logger.Info().Msg("Command channel closed")
				return
			}
			if err := c.Handle(c.ctx, []byte(msg.Payload)); err != nil {
				c.logger.Warn().Err(err).Msg("Command rejected")
			}
		case <-c.ctx.Done():
			c.logger.Info().Msg("Command loop stopped")
			return
		}
	}
}

// Handle decodes and dispatches a single command payload
func (c *Consumer) Handle(ctx context.Context, payload []byte) error {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("malformed command: %w", err)
	}

	switch cmd.Op {
	case OpPlaceBid:
		var req inbound.PlaceBidRequest
		if err := json.Unmarshal(cmd.Data, &req); err != nil {
			return fmt.Errorf("malformed %s request: %w", cmd.Op, err)
		}
		_, err := c.bids.PlaceBid(ctx, req)
		return err

	case OpAttachPayment:
		var req inbound.AttachPaymentRequest
		if err := json.Unmarshal(cmd.Data, &req); err != nil {
			return fmt.Errorf("malformed %s request: %w", cmd.Op, err)
		}
		_, err := c.settlements.AttachPaymentDetails(ctx, req)
		return err

	case OpConfirmPayment:
		var req inbound.ConfirmPaymentRequest
		if err := json.Unmarshal(cmd.Data, &req); err != nil {
			return fmt.Errorf("malformed %s request: %w", cmd.Op, err)
		}
		_, err := c.settlements.ConfirmPayment(ctx, req)
		return err

	default:
		return fmt.Errorf("unknown command op %q", cmd.Op)
	}
}
