package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agrimandi-auction-service/internal/domain/auction"
	"agrimandi-auction-service/internal/domain/bid"
	"agrimandi-auction-service/internal/domain/settlement"
	"agrimandi-auction-service/internal/domain/shared"
	"agrimandi-auction-service/internal/ports/inbound"
	"agrimandi-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SettlementRecorder creates the Transaction/Payment pair when an auction
// closes with a winning bid. Record is idempotent: an existing payment for
// the auction makes it a silent no-op, which is what lets racing closers
// and retried sweeps share one code path.
type SettlementRecorder struct {
	bidRepo        outbound.BidRepository
	settlementRepo outbound.SettlementRepository
	logger         zerolog.Logger
}

type SettlementRecorderParams struct {
	BidRepo        outbound.BidRepository
	SettlementRepo outbound.SettlementRepository
	Logger         zerolog.Logger
}

// NewSettlementRecorder creates a new settlement recorder
func NewSettlementRecorder(params SettlementRecorderParams) *SettlementRecorder {
	return &SettlementRecorder{
		bidRepo:        params.BidRepo,
		settlementRepo: params.SettlementRepo,
		logger:         params.Logger.With().Str("component", "settlement_recorder").Logger(),
	}
}

// Record creates the settlement pair for a closed auction. It returns the
// winning bid (nil when the ledger is empty) and whether records were
// created by this call.
func (r *SettlementRecorder) Record(ctx context.Context, a *auction.Auction) (*bid.Bid, bool, error) {
	existing, err := r.settlementRepo.GetPaymentByAuctionID(ctx, a.ID)
	if err != nil && !errors.Is(err, shared.ErrPaymentNotFound) {
		return nil, false, fmt.Errorf("settlement idempotency check: %w", err)
	}
	if existing != nil {
		r.logger.Debug().Str("auction_id", a.ID.String()).Str("payment_id", existing.ID.String()).Msg("Settlement already recorded, skipping")
		return nil, false, nil
	}

	winning, err := r.bidRepo.GetHighestBid(ctx, a.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNoBidsFound) {
			r.logger.Info().Str("auction_id", a.ID.String()).Msg("No bids, no settlement records created")
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("winning bid lookup: %w", err)
	}

	now := time.Now()
	txn := &settlement.Transaction{
		ID:            uuid.New(),
		AuctionID:     a.ID,
		FarmerID:      a.FarmerID,
		TraderID:      winning.TraderID,
		FinalAmount:   winning.Amount,
		PaymentStatus: settlement.TransactionPending,
		Date:          now,
	}
	pay := &settlement.Payment{
		ID:        uuid.New(),
		AuctionID: a.ID,
		TraderID:  winning.TraderID,
		FarmerID:  a.FarmerID,
		Amount:    winning.Amount,
		Status:    settlement.PaymentPending,
		Reference: fmt.Sprintf("PAY-%s", uuid.New().String()),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.settlementRepo.CreatePair(ctx, txn, pay); err != nil {
		return winning, false, fmt.Errorf("%w: %v", shared.ErrSettlementFailed, err)
	}

	r.logger.Info().
		Str("auction_id", a.ID.String()).
		Str("transaction_id", txn.ID.String()).
		Str("payment_id", pay.ID.String()).
		Str("winner_id", winning.TraderID.String()).
		Str("amount", winning.Amount.String()).
		Msg("Settlement records created")

	return winning, true, nil
}

// SettlementService implements the post-closure payment operations used by
// the payment confirmation collaborator.
type SettlementService struct {
	settlementRepo outbound.SettlementRepository
	bidRepo        outbound.BidRepository
	userRepo       outbound.UserRepository
	lifecycle      inbound.LifecycleService
	publisher      outbound.EventPublisher
	logger         zerolog.Logger
}

type SettlementServiceParams struct {
	SettlementRepo outbound.SettlementRepository
	BidRepo        outbound.BidRepository
	UserRepo       outbound.UserRepository
	Lifecycle      inbound.LifecycleService
	Publisher      outbound.EventPublisher
	Logger         zerolog.Logger
}

// NewSettlementService creates a new settlement service
func NewSettlementService(params SettlementServiceParams) *SettlementService {
	return &SettlementService{
		settlementRepo: params.SettlementRepo,
		bidRepo:        params.BidRepo,
		userRepo:       params.UserRepo,
		lifecycle:      params.Lifecycle,
		publisher:      params.Publisher,
		logger:         params.Logger.With().Str("component", "settlement_service").Logger(),
	}
}

// AttachPaymentDetails lets the winning trader pick a payment method and
// leave notes on the pending payment
func (s *SettlementService) AttachPaymentDetails(ctx context.Context, req inbound.AttachPaymentRequest) (*settlement.Payment, error) {
	if !req.Method.IsValid() {
		return nil, shared.ErrInvalidPayMethod
	}

	winning, err := s.bidRepo.GetHighestBid(ctx, req.AuctionID)
	if err != nil {
		if errors.Is(err, shared.ErrNoBidsFound) {
			return nil, shared.ErrNotWinningTrader
		}
		return nil, err
	}
	if winning.TraderID != req.TraderID {
		s.logger.Warn().
			Str("auction_id", req.AuctionID.String()).
			Str("trader_id", req.TraderID.String()).
			Msg("Payment details attempted by non-winning trader")
		return nil, shared.ErrNotWinningTrader
	}

	pay, err := s.settlementRepo.GetPaymentByAuctionID(ctx, req.AuctionID)
	if err != nil {
		return nil, err
	}
	if pay.IsSettled() {
		return nil, shared.ErrPaymentSettled
	}

	pay.Method = req.Method
	pay.Notes = req.Notes
	pay.UpdatedAt = time.Now()
	if err := s.settlementRepo.UpdatePayment(ctx, pay); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("payment_id", pay.ID.String()).
		Str("auction_id", pay.AuctionID.String()).
		Str("method", string(pay.Method)).
		Msg("Payment details attached")

	return pay, nil
}

// ConfirmPayment transitions a payment to completed or failed. Completion
// flips the audit record to paid and moves the auction to completed.
func (s *SettlementService) ConfirmPayment(ctx context.Context, req inbound.ConfirmPaymentRequest) (*settlement.Payment, error) {
	if req.Status != settlement.PaymentCompleted && req.Status != settlement.PaymentFailed {
		return nil, shared.ErrPaymentStatus
	}

	pay, err := s.settlementRepo.GetPaymentByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}

	caller, err := s.userRepo.GetByID(ctx, req.CallerID)
	if err != nil {
		return nil, shared.ErrUserNotFound
	}
	// Only the farmer being paid, or an admin, may confirm
	if caller.Role != shared.RoleAdmin && caller.ID != pay.FarmerID {
		return nil, shared.ErrForbidden
	}

	if pay.IsSettled() {
		return nil, shared.ErrPaymentSettled
	}

	now := time.Now()
	if req.Status == settlement.PaymentCompleted {
		pay.Complete(now)
	} else {
		pay.Fail()
	}

	if err := s.settlementRepo.UpdatePayment(ctx, pay); err != nil {
		return nil, err
	}

	eventType := outbound.EventTypePaymentFailed
	if req.Status == settlement.PaymentCompleted {
		eventType = outbound.EventTypePaymentCompleted

		if err := s.settlementRepo.SetTransactionStatus(ctx, pay.AuctionID, settlement.TransactionPaid); err != nil {
			s.logger.Error().Err(err).Str("auction_id", pay.AuctionID.String()).Msg("Failed to flip transaction to paid")
		}
		if err := s.lifecycle.MarkPaid(ctx, pay.AuctionID); err != nil {
			s.logger.Error().Err(err).Str("auction_id", pay.AuctionID.String()).Msg("Failed to mark auction completed after payment")
		}
	}

	s.logger.Info().
		Str("payment_id", pay.ID.String()).
		Str("auction_id", pay.AuctionID.String()).
		Str("status", string(pay.Status)).
		Msg("Payment status updated")

	if s.publisher != nil {
		event := outbound.Event{
			Type:      eventType,
			AuctionID: pay.AuctionID,
			Data: map[string]interface{}{
				"payment_id": pay.ID.String(),
				"reference":  pay.Reference,
				"amount":     pay.Amount.String(),
			},
			Timestamp: now.Unix(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error().Err(err).Str("payment_id", pay.ID.String()).Msg("Failed to publish payment event")
		}
	}

	return pay, nil
}

// GetPayment retrieves the payment for an auction
func (s *SettlementService) GetPayment(ctx context.Context, auctionID uuid.UUID) (*settlement.Payment, error) {
	return s.settlementRepo.GetPaymentByAuctionID(ctx, auctionID)
}

// ListTraderPayments retrieves a trader's payments
func (s *SettlementService) ListTraderPayments(ctx context.Context, traderID uuid.UUID) ([]*settlement.Payment, error) {
	return s.settlementRepo.ListPaymentsByTrader(ctx, traderID)
}

// ListFarmerPayments retrieves a farmer's payments
func (s *SettlementService) ListFarmerPayments(ctx context.Context, farmerID uuid.UUID) ([]*settlement.Payment, error) {
	return s.settlementRepo.ListPaymentsByFarmer(ctx, farmerID)
}
