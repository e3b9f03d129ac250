// Package memory provides concurrency-safe in-memory implementations of
// the outbound repositories. They honor the same sentinel errors and
// atomicity contracts as the postgres adapter, which makes them usable
// both standalone and as test doubles for the app layer.
package memory

import (
	"sync"

	"agrimandi-auction-service/internal/domain/auction"
	"agrimandi-auction-service/internal/domain/bid"
	"agrimandi-auction-service/internal/domain/settlement"
	"agrimandi-auction-service/internal/domain/shared"

	"github.com/google/uuid"
)

// Store holds all in-memory state behind a single mutex. Bid commits and
// settlement pair creation take the write lock for their whole critical
// section, mirroring the transactional guarantees of the db adapter.
type Store struct {
	mu           sync.RWMutex
	auctions     map[uuid.UUID]auction.Auction
	bids         map[uuid.UUID][]bid.Bid // auctionID -> ledger, append order
	transactions map[uuid.UUID]settlement.Transaction
	payments     map[uuid.UUID]settlement.Payment // paymentID -> payment
	users        map[uuid.UUID]shared.User
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		auctions:     make(map[uuid.UUID]auction.Auction),
		bids:         make(map[uuid.UUID][]bid.Bid),
		transactions: make(map[uuid.UUID]settlement.Transaction),
		payments:     make(map[uuid.UUID]settlement.Payment),
		users:        make(map[uuid.UUID]shared.User),
	}
}

// AuctionRepo returns the auction repository view of the store
func (s *Store) AuctionRepo() *AuctionRepo { return &AuctionRepo{store: s} }

// BidRepo returns the bid ledger view of the store
func (s *Store) BidRepo() *BidRepo { return &BidRepo{store: s} }

// SettlementRepo returns the settlement repository view of the store
func (s *Store) SettlementRepo() *SettlementRepo { return &SettlementRepo{store: s} }

// UserRepo returns the user repository view of the store
func (s *Store) UserRepo() *UserRepo { return &UserRepo{store: s} }

// highestBidLocked returns the ledger max for an auction; callers must
// hold at least the read lock.
func (s *Store) highestBidLocked(auctionID uuid.UUID) (bid.Bid, bool) {
	ledger := s.bids[auctionID]
	if len(ledger) == 0 {
		return bid.Bid{}, false
	}
	winning := ledger[0]
	for _, b := range ledger[1:] {
		if b.Amount.GreaterThan(winning.Amount) ||
			(b.Amount.Equal(winning.Amount) && b.PlacedAt.Before(winning.PlacedAt)) {
			winning = b
		}
	}
	return winning, true
}

// paymentForAuctionLocked finds the payment for an auction; callers must
// hold at least the read lock.
func (s *Store) paymentForAuctionLocked(auctionID uuid.UUID) (settlement.Payment, bool) {
	for _, p := range s.payments {
		if p.AuctionID == auctionID {
			return p, true
		}
	}
	return settlement.Payment{}, false
}
