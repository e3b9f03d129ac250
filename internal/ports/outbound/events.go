package outbound

import (
	"context"

	"github.com/google/uuid"
)

// EventType represents the type of event being published
type EventType string

const (
	EventTypeAuctionCreated   EventType = "auction.created"
	EventTypeAuctionApproved  EventType = "auction.approved"
	EventTypeAuctionRejected  EventType = "auction.rejected"
	EventTypeBidPlaced        EventType = "bid.placed"
	EventTypeAuctionClosed    EventType = "auction.closed"
	EventTypePaymentCompleted EventType = "payment.completed"
	EventTypePaymentFailed    EventType = "payment.failed"
)

// Event is the state-change hook exposed to notification and reporting
// collaborators. Consumers are read-only; the engine never accepts writes
// back through this path.
type Event struct {
	Type      EventType              `json:"type"`
	AuctionID uuid.UUID              `json:"auction_id"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

// EventPublisher defines the interface for publishing lifecycle events
type EventPublisher interface {
	// Publish delivers an event to all subscribers of the auction channel
	Publish(ctx context.Context, event Event) error
}
