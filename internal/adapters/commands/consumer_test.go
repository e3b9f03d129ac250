package commands

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"agrimandi-auction-service/internal/adapters/events"
	"agrimandi-auction-service/internal/adapters/memory"
	"agrimandi-auction-service/internal/app"
	"agrimandi-auction-service/internal/domain/auction"
	"agrimandi-auction-service/internal/domain/bid"
	"agrimandi-auction-service/internal/domain/settlement"
	"agrimandi-auction-service/internal/domain/shared"
	"agrimandi-auction-service/internal/ports/inbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type consumerEnv struct {
	store     *memory.Store
	lifecycle *app.LifecycleService
	bids      *app.BidService
	consumer  *Consumer
	farmer    *shared.User
	trader    *shared.User
	admin     *shared.User
}

func newConsumerEnv(t *testing.T) *consumerEnv {
	t.Helper()

	store := memory.NewStore()
	logger := zerolog.Nop()
	publisher := events.NewMemoryPublisher()

	recorder := app.NewSettlementRecorder(app.SettlementRecorderParams{
		BidRepo:        store.BidRepo(),
		SettlementRepo: store.SettlementRepo(),
		Logger:         logger,
	})
	lifecycle := app.NewLifecycleService(app.LifecycleServiceParams{
		AuctionRepo: store.AuctionRepo(),
		BidRepo:     store.BidRepo(),
		UserRepo:    store.UserRepo(),
		Recorder:    recorder,
		Publisher:   publisher,
		Logger:      logger,
	})
	bids := app.NewBidService(app.BidServiceParams{
		BidRepo:     store.BidRepo(),
		AuctionRepo: store.AuctionRepo(),
		UserRepo:    store.UserRepo(),
		Validator:   bid.NewValidator(bid.Policy{MinIncrement: decimal.NewFromInt(10)}),
		Publisher:   publisher,
		Logger:      logger,
	})
	settlements := app.NewSettlementService(app.SettlementServiceParams{
		SettlementRepo: store.SettlementRepo(),
		BidRepo:        store.BidRepo(),
		UserRepo:       store.UserRepo(),
		Lifecycle:      lifecycle,
		Publisher:      publisher,
		Logger:         logger,
	})

	// Handle is driven directly, no Redis connection needed
	consumer := NewConsumer(ConsumerParams{
		Bids:        bids,
		Settlements: settlements,
		Logger:      logger,
	})

	env := &consumerEnv{store: store, lifecycle: lifecycle, bids: bids, consumer: consumer}
	env.farmer = env.addUser(t, shared.RoleFarmer)
	env.trader = env.addUser(t, shared.RoleTrader)
	env.admin = env.addUser(t, shared.RoleAdmin)
	return env
}

func (e *consumerEnv) addUser(t *testing.T, role shared.Role) *shared.User {
	t.Helper()
	u := &shared.User{ID: uuid.New(), Name: string(role), Role: role, Approved: true, CreatedAt: time.Now()}
	require.NoError(t, e.store.UserRepo().Create(context.Background(), u))
	return u
}

func (e *consumerEnv) activeAuction(t *testing.T, basePrice int64) *auction.Auction {
	t.Helper()
	ctx := context.Background()

	a, err := e.lifecycle.CreateAuction(ctx, inbound.CreateAuctionRequest{
		FarmerID:     e.farmer.ID,
		Variety:      "Rashi",
		QuantityKg:   decimal.NewFromInt(200),
		QualityGrade: "A",
		BasePrice:    decimal.NewFromInt(basePrice),
		Location:     "Sirsi APMC",
		EndTime:      time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)

	a, err = e.lifecycle.Approve(ctx, inbound.ApproveRequest{AuctionID: a.ID, AdminID: e.admin.ID})
	require.NoError(t, err)
	return a
}

func command(t *testing.T, op Op, req interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	payload, err := json.Marshal(Command{Op: op, Data: data})
	require.NoError(t, err)
	return payload
}

func TestHandle_PlaceBid(t *testing.T) {
	env := newConsumerEnv(t)
	ctx := context.Background()
	a := env.activeAuction(t, 1000)

	payload := command(t, OpPlaceBid, inbound.PlaceBidRequest{
		AuctionID: a.ID,
		TraderID:  env.trader.ID,
		Amount:    decimal.NewFromInt(1010),
	})
	require.NoError(t, env.consumer.Handle(ctx, payload))

	ledger, err := env.bids.GetBids(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.True(t, ledger[0].Amount.Equal(decimal.NewFromInt(1010)))
}

func TestHandle_RejectedBidSurfacesError(t *testing.T) {
	env := newConsumerEnv(t)
	ctx := context.Background()
	a := env.activeAuction(t, 1000)

	payload := command(t, OpPlaceBid, inbound.PlaceBidRequest{
		AuctionID: a.ID,
		TraderID:  env.trader.ID,
		Amount:    decimal.NewFromInt(900),
	})
	assert.ErrorIs(t, env.consumer.Handle(ctx, payload), shared.ErrBidTooLow)

	ledger, err := env.bids.GetBids(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestHandle_ConfirmPayment(t *testing.T) {
	env := newConsumerEnv(t)
	ctx := context.Background()
	a := env.activeAuction(t, 1000)

	_, err := env.bids.PlaceBid(ctx, inbound.PlaceBidRequest{
		AuctionID: a.ID,
		TraderID:  env.trader.ID,
		Amount:    decimal.NewFromInt(1010),
	})
	require.NoError(t, err)
	_, err = env.lifecycle.Close(ctx, a.ID)
	require.NoError(t, err)

	pay, err := env.store.SettlementRepo().GetPaymentByAuctionID(ctx, a.ID)
	require.NoError(t, err)

	attach := command(t, OpAttachPayment, inbound.AttachPaymentRequest{
		AuctionID: a.ID,
		TraderID:  env.trader.ID,
		Method:    settlement.MethodUPI,
	})
	require.NoError(t, env.consumer.Handle(ctx, attach))

	confirm := command(t, OpConfirmPayment, inbound.ConfirmPaymentRequest{
		PaymentID: pay.ID,
		CallerID:  env.farmer.ID,
		Status:    settlement.PaymentCompleted,
	})
	require.NoError(t, env.consumer.Handle(ctx, confirm))

	pay, err = env.store.SettlementRepo().GetPaymentByAuctionID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, settlement.PaymentCompleted, pay.Status)
	assert.Equal(t, settlement.MethodUPI, pay.Method)

	got, err := env.lifecycle.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, auction.StatusCompleted, got.Status)
}

func TestHandle_BadInput(t *testing.T) {
	env := newConsumerEnv(t)
	ctx := context.Background()

	assert.Error(t, env.consumer.Handle(ctx, []byte("not json")))
	assert.Error(t, env.consumer.Handle(ctx, command(t, Op("cancel_auction"), struct{}{})))

	malformed, err := json.Marshal(Command{Op: OpPlaceBid, Data: json.RawMessage(`{"amount": "not-a-number"}`)})
	require.NoError(t, err)
	assert.Error(t, env.consumer.Handle(ctx, malformed))
}
