package bid

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid represents a trader's offer on an auction. Bids are append-only:
// once recorded they are never edited or deleted.
type Bid struct {
	ID        uuid.UUID       `json:"id"`
	AuctionID uuid.UUID       `json:"auction_id"`
	TraderID  uuid.UUID       `json:"trader_id"`
	Amount    decimal.Decimal `json:"amount"`
	PlacedAt  time.Time       `json:"placed_at"`
}

// New builds a bid for the given auction and trader
func New(auctionID, traderID uuid.UUID, amount decimal.Decimal) *Bid {
	return &Bid{
		ID:        uuid.New(),
		AuctionID: auctionID,
		TraderID:  traderID,
		Amount:    amount,
		PlacedAt:  time.Now(),
	}
}
