package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"agrimandi-auction-service/internal/domain/auction"
	"agrimandi-auction-service/internal/domain/bid"
	"agrimandi-auction-service/internal/domain/settlement"
	"agrimandi-auction-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedActiveAuction(t *testing.T, store *Store, basePrice int64) *auction.Auction {
	t.Helper()
	a := &auction.Auction{
		ID:                uuid.New(),
		FarmerID:          uuid.New(),
		Variety:           "Rashi",
		QuantityKg:        decimal.NewFromInt(100),
		QualityGrade:      "A",
		BasePrice:         decimal.NewFromInt(basePrice),
		CurrentHighestBid: decimal.NewFromInt(basePrice),
		EndTime:           time.Now().Add(time.Hour),
		Status:            auction.StatusActive,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	require.NoError(t, store.AuctionRepo().Create(context.Background(), a))
	return a
}

// Many goroutines commit against the same expected highest; exactly one
// may win per expected value.
func TestAppendWithHighestBid_Linearizes(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	a := seedActiveAuction(t, store, 1000)

	const contenders = 20
	var wg sync.WaitGroup
	results := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := bid.New(a.ID, uuid.New(), decimal.NewFromInt(int64(1010+i)))
			results[i] = store.BidRepo().AppendWithHighestBid(ctx, b, decimal.NewFromInt(1000))
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range results {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, shared.ErrBidConflict)
		}
	}
	assert.Equal(t, 1, won)

	ledger, err := store.BidRepo().GetByAuctionID(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, ledger, 1)

	got, err := store.AuctionRepo().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentHighestBid.Equal(ledger[0].Amount))
}

func TestAppendWithHighestBid_TieBreaksOnTime(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	a := seedActiveAuction(t, store, 1000)

	earlier := bid.New(a.ID, uuid.New(), decimal.NewFromInt(1010))
	require.NoError(t, store.BidRepo().AppendWithHighestBid(ctx, earlier, decimal.NewFromInt(1000)))

	winning, err := store.BidRepo().GetHighestBid(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, earlier.ID, winning.ID)
}

func TestCreatePair_EnforcesOnePerAuction(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	auctionID := uuid.New()

	pair := func() (*settlement.Transaction, *settlement.Payment) {
		return &settlement.Transaction{
				ID:            uuid.New(),
				AuctionID:     auctionID,
				FinalAmount:   decimal.NewFromInt(1020),
				PaymentStatus: settlement.TransactionPending,
				Date:          time.Now(),
			}, &settlement.Payment{
				ID:        uuid.New(),
				AuctionID: auctionID,
				Amount:    decimal.NewFromInt(1020),
				Status:    settlement.PaymentPending,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}
	}

	txn, pay := pair()
	require.NoError(t, store.SettlementRepo().CreatePair(ctx, txn, pay))

	txn2, pay2 := pair()
	assert.ErrorIs(t, store.SettlementRepo().CreatePair(ctx, txn2, pay2), shared.ErrTransactionExists)
}
