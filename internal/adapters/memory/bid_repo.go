package memory

import (
	"context"
	"sort"

	"agrimandi-auction-service/internal/domain/auction"
	"agrimandi-auction-service/internal/domain/bid"
	"agrimandi-auction-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BidRepo is the in-memory append-only bid ledger
type BidRepo struct {
	store *Store
}

// GetByAuctionID retrieves all bids for an auction, highest first
func (r *BidRepo) GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ledger := r.store.bids[auctionID]
	out := make([]*bid.Bid, 0, len(ledger))
	for _, b := range ledger {
		copy := b
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].PlacedAt.Before(out[j].PlacedAt)
	})
	return out, nil
}

// GetHighestBid retrieves the winning candidate for an auction
func (r *BidRepo) GetHighestBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	winning, ok := r.store.highestBidLocked(auctionID)
	if !ok {
		return nil, shared.ErrNoBidsFound
	}
	return &winning, nil
}

// ListByTrader retrieves a trader's bids across auctions, newest first
func (r *BidRepo) ListByTrader(ctx context.Context, traderID uuid.UUID) ([]*bid.Bid, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*bid.Bid
	for _, ledger := range r.store.bids {
		for _, b := range ledger {
			if b.TraderID == traderID {
				copy := b
				out = append(out, &copy)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PlacedAt.After(out[j].PlacedAt)
	})
	return out, nil
}

// AppendWithHighestBid atomically appends a bid and raises the cached
// highest bid. The store lock spans re-validation, append and cache
// update, the in-memory equivalent of the db adapter's transaction.
func (r *BidRepo) AppendWithHighestBid(ctx context.Context, newBid *bid.Bid, expectedHighest decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.auctions[newBid.AuctionID]
	if !ok {
		return shared.ErrAuctionNotFound
	}

	if a.Status != auction.StatusActive {
		return shared.ErrAuctionNotActive
	}
	if !a.EndTime.After(newBid.PlacedAt) {
		return shared.ErrAuctionExpired
	}
	if !a.CurrentHighestBid.Equal(expectedHighest) {
		return shared.ErrBidConflict
	}
	if newBid.Amount.LessThanOrEqual(a.CurrentHighestBid) || newBid.Amount.LessThanOrEqual(a.BasePrice) {
		return shared.ErrBidTooLow
	}

	r.store.bids[newBid.AuctionID] = append(r.store.bids[newBid.AuctionID], *newBid)
	a.UpdateHighestBid(newBid.Amount)
	r.store.auctions[a.ID] = a

	return nil
}
