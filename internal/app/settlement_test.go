package app

import (
	"context"
	"testing"

	"agrimandi-auction-service/internal/domain/auction"
	"agrimandi-auction-service/internal/domain/settlement"
	"agrimandi-auction-service/internal/domain/shared"
	"agrimandi-auction-service/internal/ports/inbound"
	"agrimandi-auction-service/internal/ports/outbound"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closeWithWinner drives an auction through bidding and closure and hands
// back the resulting payment
func closeWithWinner(t *testing.T, env *testEnv, basePrice, winningBid int64) *settlement.Payment {
	t.Helper()
	ctx := context.Background()

	a := env.newActiveAuction(t, basePrice)
	env.placeBid(t, a.ID, winningBid)

	_, err := env.lifecycle.Close(ctx, a.ID)
	require.NoError(t, err)

	pay, err := env.settlement.GetPayment(ctx, a.ID)
	require.NoError(t, err)
	return pay
}

func TestSettlementRecorder_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.newActiveAuction(t, 1000)
	env.placeBid(t, a.ID, 1010)
	_, err := env.lifecycle.Close(ctx, a.ID)
	require.NoError(t, err)

	closed, err := env.lifecycle.GetAuction(ctx, a.ID)
	require.NoError(t, err)

	winning, created, err := env.recorder.Record(ctx, closed)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, winning)

	payments, err := env.settlement.ListTraderPayments(ctx, env.trader.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestAttachPaymentDetails(t *testing.T) {
	ctx := context.Background()

	t.Run("winning_trader_attaches_method", func(t *testing.T) {
		env := newTestEnv(t)
		pay := closeWithWinner(t, env, 1000, 1020)

		updated, err := env.settlement.AttachPaymentDetails(ctx, inbound.AttachPaymentRequest{
			AuctionID: pay.AuctionID,
			TraderID:  env.trader.ID,
			Method:    settlement.MethodUPI,
			Notes:     "will transfer by Friday",
		})
		require.NoError(t, err)
		assert.Equal(t, settlement.MethodUPI, updated.Method)
		assert.Equal(t, "will transfer by Friday", updated.Notes)
		assert.Equal(t, settlement.PaymentPending, updated.Status)
	})

	t.Run("rejects_invalid_method", func(t *testing.T) {
		env := newTestEnv(t)
		pay := closeWithWinner(t, env, 1000, 1020)

		_, err := env.settlement.AttachPaymentDetails(ctx, inbound.AttachPaymentRequest{
			AuctionID: pay.AuctionID,
			TraderID:  env.trader.ID,
			Method:    settlement.Method("cheque"),
		})
		assert.ErrorIs(t, err, shared.ErrInvalidPayMethod)
	})

	t.Run("rejects_non_winning_trader", func(t *testing.T) {
		env := newTestEnv(t)
		pay := closeWithWinner(t, env, 1000, 1020)
		rival := env.addUser(t, "Ganesh", shared.RoleTrader, true)

		_, err := env.settlement.AttachPaymentDetails(ctx, inbound.AttachPaymentRequest{
			AuctionID: pay.AuctionID,
			TraderID:  rival.ID,
			Method:    settlement.MethodCash,
		})
		assert.ErrorIs(t, err, shared.ErrNotWinningTrader)
	})

	t.Run("rejects_settled_payment", func(t *testing.T) {
		env := newTestEnv(t)
		pay := closeWithWinner(t, env, 1000, 1020)

		_, err := env.settlement.ConfirmPayment(ctx, inbound.ConfirmPaymentRequest{
			PaymentID: pay.ID,
			CallerID:  env.farmer.ID,
			Status:    settlement.PaymentCompleted,
		})
		require.NoError(t, err)

		_, err = env.settlement.AttachPaymentDetails(ctx, inbound.AttachPaymentRequest{
			AuctionID: pay.AuctionID,
			TraderID:  env.trader.ID,
			Method:    settlement.MethodBankTransfer,
		})
		assert.ErrorIs(t, err, shared.ErrPaymentSettled)
	})
}

func TestConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("farmer_completes_payment", func(t *testing.T) {
		env := newTestEnv(t)
		pay := closeWithWinner(t, env, 1000, 1020)

		confirmed, err := env.settlement.ConfirmPayment(ctx, inbound.ConfirmPaymentRequest{
			PaymentID: pay.ID,
			CallerID:  env.farmer.ID,
			Status:    settlement.PaymentCompleted,
		})
		require.NoError(t, err)
		assert.Equal(t, settlement.PaymentCompleted, confirmed.Status)
		require.NotNil(t, confirmed.PaidAt)

		// Audit record flips to paid and the auction completes
		txn, err := env.store.SettlementRepo().GetTransactionByAuctionID(ctx, pay.AuctionID)
		require.NoError(t, err)
		assert.Equal(t, settlement.TransactionPaid, txn.PaymentStatus)

		a, err := env.lifecycle.GetAuction(ctx, pay.AuctionID)
		require.NoError(t, err)
		assert.Equal(t, auction.StatusCompleted, a.Status)

		assert.Len(t, env.publisher.EventsOfType(outbound.EventTypePaymentCompleted), 1)
	})

	t.Run("admin_fails_payment", func(t *testing.T) {
		env := newTestEnv(t)
		pay := closeWithWinner(t, env, 1000, 1020)

		failed, err := env.settlement.ConfirmPayment(ctx, inbound.ConfirmPaymentRequest{
			PaymentID: pay.ID,
			CallerID:  env.admin.ID,
			Status:    settlement.PaymentFailed,
		})
		require.NoError(t, err)
		assert.Equal(t, settlement.PaymentFailed, failed.Status)
		assert.Nil(t, failed.PaidAt)

		// Failure does not touch the transaction or the auction
		txn, err := env.store.SettlementRepo().GetTransactionByAuctionID(ctx, pay.AuctionID)
		require.NoError(t, err)
		assert.Equal(t, settlement.TransactionPending, txn.PaymentStatus)

		a, err := env.lifecycle.GetAuction(ctx, pay.AuctionID)
		require.NoError(t, err)
		assert.Equal(t, auction.StatusClosed, a.Status)

		assert.Len(t, env.publisher.EventsOfType(outbound.EventTypePaymentFailed), 1)
	})

	t.Run("rejects_unrelated_farmer", func(t *testing.T) {
		env := newTestEnv(t)
		pay := closeWithWinner(t, env, 1000, 1020)
		other := env.addUser(t, "Umesh", shared.RoleFarmer, true)

		_, err := env.settlement.ConfirmPayment(ctx, inbound.ConfirmPaymentRequest{
			PaymentID: pay.ID,
			CallerID:  other.ID,
			Status:    settlement.PaymentCompleted,
		})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("rejects_pending_as_target_status", func(t *testing.T) {
		env := newTestEnv(t)
		pay := closeWithWinner(t, env, 1000, 1020)

		_, err := env.settlement.ConfirmPayment(ctx, inbound.ConfirmPaymentRequest{
			PaymentID: pay.ID,
			CallerID:  env.farmer.ID,
			Status:    settlement.PaymentPending,
		})
		assert.ErrorIs(t, err, shared.ErrPaymentStatus)
	})

	t.Run("rejects_double_confirmation", func(t *testing.T) {
		env := newTestEnv(t)
		pay := closeWithWinner(t, env, 1000, 1020)

		_, err := env.settlement.ConfirmPayment(ctx, inbound.ConfirmPaymentRequest{
			PaymentID: pay.ID,
			CallerID:  env.farmer.ID,
			Status:    settlement.PaymentCompleted,
		})
		require.NoError(t, err)

		_, err = env.settlement.ConfirmPayment(ctx, inbound.ConfirmPaymentRequest{
			PaymentID: pay.ID,
			CallerID:  env.farmer.ID,
			Status:    settlement.PaymentFailed,
		})
		assert.ErrorIs(t, err, shared.ErrPaymentSettled)
	})
}

func TestListPayments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := closeWithWinner(t, env, 1000, 1020)
	second := closeWithWinner(t, env, 2000, 2100)

	trader, err := env.settlement.ListTraderPayments(ctx, env.trader.ID)
	require.NoError(t, err)
	assert.Len(t, trader, 2)

	farmer, err := env.settlement.ListFarmerPayments(ctx, env.farmer.ID)
	require.NoError(t, err)
	assert.Len(t, farmer, 2)

	amounts := []decimal.Decimal{first.Amount, second.Amount}
	assert.True(t, amounts[0].Equal(decimal.NewFromInt(1020)))
	assert.True(t, amounts[1].Equal(decimal.NewFromInt(2100)))
}
