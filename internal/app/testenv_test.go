package app

import (
	"context"
	"testing"
	"time"

	"agrimandi-auction-service/internal/adapters/events"
	"agrimandi-auction-service/internal/adapters/memory"
	"agrimandi-auction-service/internal/domain/auction"
	"agrimandi-auction-service/internal/domain/bid"
	"agrimandi-auction-service/internal/domain/shared"
	"agrimandi-auction-service/internal/ports/inbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// testEnv wires the services against the in-memory adapters
type testEnv struct {
	store      *memory.Store
	publisher  *events.MemoryPublisher
	recorder   *SettlementRecorder
	lifecycle  *LifecycleService
	bids       *BidService
	settlement *SettlementService

	farmer *shared.User
	trader *shared.User
	admin  *shared.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	publisher := events.NewMemoryPublisher()
	logger := zerolog.Nop()

	recorder := NewSettlementRecorder(SettlementRecorderParams{
		BidRepo:        store.BidRepo(),
		SettlementRepo: store.SettlementRepo(),
		Logger:         logger,
	})

	lifecycle := NewLifecycleService(LifecycleServiceParams{
		AuctionRepo: store.AuctionRepo(),
		BidRepo:     store.BidRepo(),
		UserRepo:    store.UserRepo(),
		Recorder:    recorder,
		Publisher:   publisher,
		Logger:      logger,
	})

	bids := NewBidService(BidServiceParams{
		BidRepo:     store.BidRepo(),
		AuctionRepo: store.AuctionRepo(),
		UserRepo:    store.UserRepo(),
		Validator:   bid.NewValidator(bid.Policy{MinIncrement: decimal.NewFromInt(10)}),
		Publisher:   publisher,
		Logger:      logger,
	})

	settlementSvc := NewSettlementService(SettlementServiceParams{
		SettlementRepo: store.SettlementRepo(),
		BidRepo:        store.BidRepo(),
		UserRepo:       store.UserRepo(),
		Lifecycle:      lifecycle,
		Publisher:      publisher,
		Logger:         logger,
	})

	env := &testEnv{
		store:      store,
		publisher:  publisher,
		recorder:   recorder,
		lifecycle:  lifecycle,
		bids:       bids,
		settlement: settlementSvc,
	}

	env.farmer = env.addUser(t, "Ramesh", shared.RoleFarmer, true)
	env.trader = env.addUser(t, "Suresh", shared.RoleTrader, true)
	env.admin = env.addUser(t, "Admin", shared.RoleAdmin, true)

	return env
}

func (e *testEnv) addUser(t *testing.T, name string, role shared.Role, approved bool) *shared.User {
	t.Helper()
	u := &shared.User{
		ID:        uuid.New(),
		Name:      name,
		Role:      role,
		Approved:  approved,
		CreatedAt: time.Now(),
	}
	require.NoError(t, e.store.UserRepo().Create(context.Background(), u))
	return u
}

// newActiveAuction creates and approves an auction with the given base
// price, ending an hour from now
func (e *testEnv) newActiveAuction(t *testing.T, basePrice int64) *auction.Auction {
	t.Helper()
	return e.newActiveAuctionEnding(t, basePrice, time.Now().Add(time.Hour))
}

func (e *testEnv) newActiveAuctionEnding(t *testing.T, basePrice int64, endTime time.Time) *auction.Auction {
	t.Helper()
	ctx := context.Background()

	a, err := e.lifecycle.CreateAuction(ctx, inbound.CreateAuctionRequest{
		FarmerID:     e.farmer.ID,
		Variety:      "Rashi",
		QuantityKg:   decimal.NewFromInt(500),
		QualityGrade: "A",
		BasePrice:    decimal.NewFromInt(basePrice),
		Location:     "Shivamogga APMC",
		EndTime:      time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)

	a, err = e.lifecycle.Approve(ctx, inbound.ApproveRequest{
		AuctionID: a.ID,
		AdminID:   e.admin.ID,
	})
	require.NoError(t, err)

	// Rewrite the end time directly so tests can build already-expired
	// active auctions, which CreateAuction rightly refuses
	if !endTime.Equal(a.EndTime) {
		a.EndTime = endTime
		require.NoError(t, e.store.AuctionRepo().Update(ctx, a))
	}

	return a
}

// placeBid is a shorthand for a valid trader bid
func (e *testEnv) placeBid(t *testing.T, auctionID uuid.UUID, amount int64) *bid.Bid {
	t.Helper()
	b, err := e.bids.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		AuctionID: auctionID,
		TraderID:  e.trader.ID,
		Amount:    decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	return b
}
