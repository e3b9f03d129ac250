package bid

import (
	"time"

	"agrimandi-auction-service/internal/domain/auction"
	"agrimandi-auction-service/internal/domain/shared"

	"github.com/shopspring/decimal"
)

// Policy holds the configurable bidding rules
type Policy struct {
	// MinIncrement is the step bids must be a multiple of.
	// A zero step disables the increment check.
	MinIncrement decimal.Decimal
}

// Validator is the pure accept/reject decision for a proposed bid.
// It has no side effects; callers must re-run it against a freshly
// read auction row inside the commit path, since the snapshot may be
// stale by the time the bid is persisted.
type Validator struct {
	policy Policy
}

// NewValidator creates a validator with the given bidding policy
func NewValidator(policy Policy) *Validator {
	return &Validator{policy: policy}
}

// Validate checks a proposed amount against an auction snapshot.
// Checks run in a fixed order so callers get stable rejection reasons:
// status, expiry, price floor, increment.
func (v *Validator) Validate(snapshot *auction.Auction, amount decimal.Decimal, now time.Time) error {
	if !snapshot.IsActive() {
		return shared.ErrAuctionNotActive
	}
	if snapshot.IsExpired(now) {
		// Guards the window between the end time passing and the
		// sweeper actually closing the auction.
		return shared.ErrAuctionExpired
	}
	if amount.LessThanOrEqual(snapshot.CurrentHighestBid) || amount.LessThanOrEqual(snapshot.BasePrice) {
		return shared.ErrBidTooLow
	}
	if !v.policy.MinIncrement.IsZero() {
		if amount.Sign() <= 0 || !amount.Mod(v.policy.MinIncrement).IsZero() {
			return shared.ErrInvalidIncrement
		}
	}
	return nil
}
