package app

import (
	"context"
	"time"

	"agrimandi-auction-service/internal/domain/bid"
	"agrimandi-auction-service/internal/domain/shared"
	"agrimandi-auction-service/internal/ports/inbound"
	"agrimandi-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BidService implements bid placement against the lifecycle engine's
// consistency contract: validation runs on a fresh snapshot and the
// ledger append plus cache update commit as one atomic unit.
type BidService struct {
	bidRepo     outbound.BidRepository
	auctionRepo outbound.AuctionRepository
	userRepo    outbound.UserRepository
	validator   *bid.Validator
	publisher   outbound.EventPublisher
	logger      zerolog.Logger
}

type BidServiceParams struct {
	BidRepo     outbound.BidRepository
	AuctionRepo outbound.AuctionRepository
	UserRepo    outbound.UserRepository
	Validator   *bid.Validator
	Publisher   outbound.EventPublisher
	Logger      zerolog.Logger
}

// NewBidService creates a new bid service
func NewBidService(params BidServiceParams) *BidService {
	return &BidService{
		bidRepo:     params.BidRepo,
		auctionRepo: params.AuctionRepo,
		userRepo:    params.UserRepo,
		validator:   params.Validator,
		publisher:   params.Publisher,
		logger:      params.Logger.With().Str("component", "bid_service").Logger(),
	}
}

// PlaceBid places a new bid on an auction
func (s *BidService) PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*bid.Bid, error) {
	s.logger.Info().
		Str("auction_id", req.AuctionID.String()).
		Str("trader_id", req.TraderID.String()).
		Str("amount", req.Amount.String()).
		Msg("Attempting to place bid")

	trader, err := s.userRepo.GetByID(ctx, req.TraderID)
	if err != nil {
		s.logger.Error().Err(err).Str("trader_id", req.TraderID.String()).Msg("Trader not found")
		return nil, shared.ErrUserNotFound
	}
	if trader.Role != shared.RoleTrader {
		s.logger.Warn().Str("user_id", trader.ID.String()).Str("role", string(trader.Role)).Msg("Only traders may place bids")
		return nil, shared.ErrForbidden
	}
	if !trader.Approved {
		return nil, shared.ErrUserNotApproved
	}

	a, err := s.auctionRepo.GetByID(ctx, req.AuctionID)
	if err != nil {
		s.logger.Error().Err(err).Str("auction_id", req.AuctionID.String()).Msg("Auction not found")
		return nil, shared.ErrAuctionNotFound
	}

	if err := s.validator.Validate(a, req.Amount, time.Now()); err != nil {
		s.logger.Warn().
			Err(err).
			Str("auction_id", a.ID.String()).
			Str("amount", req.Amount.String()).
			Str("current_highest_bid", a.CurrentHighestBid.String()).
			Msg("Bid rejected by validator")
		return nil, err
	}

	newBid := bid.New(req.AuctionID, trader.ID, req.Amount)

	// The repository re-validates inside its transaction against the
	// fresh row; the snapshot above may already be stale. A concurrent
	// winner surfaces as ErrBidConflict and the trader may resubmit.
	if err := s.bidRepo.AppendWithHighestBid(ctx, newBid, a.CurrentHighestBid); err != nil {
		s.logger.Warn().Err(err).Str("bid_id", newBid.ID.String()).Str("auction_id", a.ID.String()).Msg("Failed to commit bid")
		return nil, err
	}

	s.logger.Info().
		Str("bid_id", newBid.ID.String()).
		Str("auction_id", newBid.AuctionID.String()).
		Str("trader_id", newBid.TraderID.String()).
		Str("amount", newBid.Amount.String()).
		Msg("Bid placed successfully")

	if s.publisher != nil {
		event := outbound.Event{
			Type:      outbound.EventTypeBidPlaced,
			AuctionID: req.AuctionID,
			Data: map[string]interface{}{
				"bid_id":    newBid.ID.String(),
				"trader_id": newBid.TraderID.String(),
				"amount":    newBid.Amount.String(),
			},
			Timestamp: newBid.PlacedAt.Unix(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			// Broadcast is best-effort, the bid is already committed
			s.logger.Error().Err(err).Str("bid_id", newBid.ID.String()).Msg("Failed to publish bid event")
		}
	}

	return newBid, nil
}

// GetBids retrieves bids for an auction
func (s *BidService) GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	return s.bidRepo.GetByAuctionID(ctx, auctionID)
}

// GetHighestBid retrieves the highest bid for an auction
func (s *BidService) GetHighestBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	return s.bidRepo.GetHighestBid(ctx, auctionID)
}

// ListMyBids retrieves a trader's bids across auctions
func (s *BidService) ListMyBids(ctx context.Context, traderID uuid.UUID) ([]*bid.Bid, error) {
	return s.bidRepo.ListByTrader(ctx, traderID)
}
