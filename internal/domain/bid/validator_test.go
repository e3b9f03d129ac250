package bid

import (
	"testing"
	"time"

	"agrimandi-auction-service/internal/domain/auction"
	"agrimandi-auction-service/internal/domain/shared"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func snapshot(status auction.Status, basePrice, highest int64, endTime time.Time) *auction.Auction {
	return &auction.Auction{
		Status:            status,
		BasePrice:         decimal.NewFromInt(basePrice),
		CurrentHighestBid: decimal.NewFromInt(highest),
		EndTime:           endTime,
	}
}

func TestValidator_Validate(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	validator := NewValidator(Policy{MinIncrement: decimal.NewFromInt(10)})

	tests := []struct {
		name     string
		snapshot *auction.Auction
		amount   int64
		want     error
	}{
		{
			name:     "accepted",
			snapshot: snapshot(auction.StatusActive, 1000, 1000, future),
			amount:   1010,
			want:     nil,
		},
		{
			name:     "pending_auction",
			snapshot: snapshot(auction.StatusPending, 1000, 1000, future),
			amount:   1010,
			want:     shared.ErrAuctionNotActive,
		},
		{
			name:     "closed_auction",
			snapshot: snapshot(auction.StatusClosed, 1000, 1000, future),
			amount:   1010,
			want:     shared.ErrAuctionNotActive,
		},
		{
			name:     "completed_auction",
			snapshot: snapshot(auction.StatusCompleted, 1000, 1000, future),
			amount:   1010,
			want:     shared.ErrAuctionNotActive,
		},
		{
			name:     "expired_but_not_yet_swept",
			snapshot: snapshot(auction.StatusActive, 1000, 1000, now.Add(-time.Second)),
			amount:   1010,
			want:     shared.ErrAuctionExpired,
		},
		{
			name:     "below_current_highest",
			snapshot: snapshot(auction.StatusActive, 1000, 1050, future),
			amount:   1040,
			want:     shared.ErrBidTooLow,
		},
		{
			name:     "equal_to_current_highest",
			snapshot: snapshot(auction.StatusActive, 1000, 1050, future),
			amount:   1050,
			want:     shared.ErrBidTooLow,
		},
		{
			name:     "equal_to_base_price",
			snapshot: snapshot(auction.StatusActive, 1000, 1000, future),
			amount:   1000,
			want:     shared.ErrBidTooLow,
		},
		{
			name:     "not_a_multiple_of_increment",
			snapshot: snapshot(auction.StatusActive, 1000, 1000, future),
			amount:   1013,
			want:     shared.ErrInvalidIncrement,
		},
		{
			name:     "too_low_takes_precedence_over_increment",
			snapshot: snapshot(auction.StatusActive, 1000, 1050, future),
			amount:   1005,
			want:     shared.ErrBidTooLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate(tt.snapshot, decimal.NewFromInt(tt.amount), now)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestValidator_IncrementDisabled(t *testing.T) {
	now := time.Now()
	validator := NewValidator(Policy{MinIncrement: decimal.Zero})

	s := snapshot(auction.StatusActive, 1000, 1000, now.Add(time.Hour))
	assert.NoError(t, validator.Validate(s, decimal.NewFromInt(1013), now))
}

func TestValidator_HasNoSideEffects(t *testing.T) {
	now := time.Now()
	validator := NewValidator(Policy{MinIncrement: decimal.NewFromInt(10)})

	s := snapshot(auction.StatusActive, 1000, 1050, now.Add(time.Hour))
	before := *s

	_ = validator.Validate(s, decimal.NewFromInt(1005), now)
	assert.Equal(t, before, *s)
}
