package app

import (
	"context"
	"errors"
	"time"

	"agrimandi-auction-service/internal/domain/auction"
	"agrimandi-auction-service/internal/domain/shared"
	"agrimandi-auction-service/internal/ports/inbound"
	"agrimandi-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LifecycleService implements the auction state machine. It is the sole
// writer of auction status and the cached highest bid.
type LifecycleService struct {
	auctionRepo outbound.AuctionRepository
	bidRepo     outbound.BidRepository
	userRepo    outbound.UserRepository
	recorder    *SettlementRecorder
	publisher   outbound.EventPublisher
	logger      zerolog.Logger
}

type LifecycleServiceParams struct {
	AuctionRepo outbound.AuctionRepository
	BidRepo     outbound.BidRepository
	UserRepo    outbound.UserRepository
	Recorder    *SettlementRecorder
	Publisher   outbound.EventPublisher
	Logger      zerolog.Logger
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(params LifecycleServiceParams) *LifecycleService {
	return &LifecycleService{
		auctionRepo: params.AuctionRepo,
		bidRepo:     params.BidRepo,
		userRepo:    params.UserRepo,
		recorder:    params.Recorder,
		publisher:   params.Publisher,
		logger:      params.Logger.With().Str("component", "lifecycle_service").Logger(),
	}
}

// CreateAuction validates terms and stores a new pending auction
func (s *LifecycleService) CreateAuction(ctx context.Context, req inbound.CreateAuctionRequest) (*auction.Auction, error) {
	s.logger.Info().
		Str("farmer_id", req.FarmerID.String()).
		Str("variety", req.Variety).
		Str("base_price", req.BasePrice.String()).
		Str("end_time", req.EndTime).
		Msg("Attempting to create auction")

	farmer, err := s.userRepo.GetByID(ctx, req.FarmerID)
	if err != nil {
		s.logger.Error().Err(err).Str("farmer_id", req.FarmerID.String()).Msg("Farmer not found")
		return nil, shared.ErrUserNotFound
	}
	if farmer.Role != shared.RoleFarmer {
		s.logger.Warn().Str("user_id", farmer.ID.String()).Str("role", string(farmer.Role)).Msg("Only farmers may create auctions")
		return nil, shared.ErrForbidden
	}
	if !farmer.Approved {
		return nil, shared.ErrUserNotApproved
	}

	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		s.logger.Warn().Err(err).Str("end_time", req.EndTime).Msg("Invalid end time format")
		return nil, shared.ErrInvalidEndTime
	}

	now := time.Now()
	if req.QuantityKg.Sign() <= 0 {
		return nil, shared.ErrInvalidQuantity
	}
	if req.BasePrice.Sign() <= 0 {
		return nil, shared.ErrInvalidBasePrice
	}
	if !endTime.After(now) {
		s.logger.Warn().Time("end_time", endTime).Time("current_time", now).Msg("End time must be in the future")
		return nil, shared.ErrInvalidEndTime
	}

	a := &auction.Auction{
		ID:           uuid.New(),
		FarmerID:     farmer.ID,
		Variety:      req.Variety,
		QuantityKg:   req.QuantityKg,
		QualityGrade: req.QualityGrade,
		BasePrice:    req.BasePrice,
		// The base price acts as the implicit zero-th bid, so the first
		// real bid must strictly exceed it.
		CurrentHighestBid: req.BasePrice,
		Location:          req.Location,
		ImageURL:          req.ImageURL,
		ImageAssetID:      req.ImageAssetID,
		EndTime:           endTime,
		Status:            auction.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.auctionRepo.Create(ctx, a); err != nil {
		s.logger.Error().Err(err).Str("auction_id", a.ID.String()).Msg("Failed to save auction")
		return nil, err
	}

	s.logger.Info().Str("auction_id", a.ID.String()).Msg("Auction created, awaiting approval")
	s.publish(ctx, outbound.Event{
		Type:      outbound.EventTypeAuctionCreated,
		AuctionID: a.ID,
		Data: map[string]interface{}{
			"farmer_id":  a.FarmerID.String(),
			"variety":    a.Variety,
			"base_price": a.BasePrice.String(),
			"end_time":   a.EndTime.Unix(),
		},
		Timestamp: now.Unix(),
	})

	return a, nil
}

// Approve moves a pending auction to active, applying admin overrides of
// the quality grade and base price as part of the same transition
func (s *LifecycleService) Approve(ctx context.Context, req inbound.ApproveRequest) (*auction.Auction, error) {
	if err := s.requireAdmin(ctx, req.AdminID); err != nil {
		return nil, err
	}

	a, err := s.auctionRepo.GetByID(ctx, req.AuctionID)
	if err != nil {
		return nil, err
	}

	if !a.Status.CanTransition(auction.StatusActive) {
		s.logger.Warn().
			Str("auction_id", a.ID.String()).
			Str("status", string(a.Status)).
			Msg("Approve rejected, auction is not pending")
		return nil, shared.ErrInvalidState
	}

	if req.QualityGrade != nil {
		a.QualityGrade = *req.QualityGrade
	}
	if req.BasePrice != nil {
		if req.BasePrice.Sign() <= 0 {
			return nil, shared.ErrInvalidBasePrice
		}
		a.BasePrice = *req.BasePrice
		// No bids can exist pre-approval, so the cache follows the base.
		a.CurrentHighestBid = *req.BasePrice
	}

	a.Activate()
	if err := s.auctionRepo.Update(ctx, a); err != nil {
		s.logger.Error().Err(err).Str("auction_id", a.ID.String()).Msg("Failed to activate auction")
		return nil, err
	}

	s.logger.Info().
		Str("auction_id", a.ID.String()).
		Str("admin_id", req.AdminID.String()).
		Str("base_price", a.BasePrice.String()).
		Msg("Auction approved and activated")
	s.publish(ctx, outbound.Event{
		Type:      outbound.EventTypeAuctionApproved,
		AuctionID: a.ID,
		Data: map[string]interface{}{
			"base_price":    a.BasePrice.String(),
			"quality_grade": a.QualityGrade,
		},
		Timestamp: time.Now().Unix(),
	})

	return a, nil
}

// Reject moves a pending auction to the terminal rejected state
func (s *LifecycleService) Reject(ctx context.Context, req inbound.RejectRequest) error {
	if err := s.requireAdmin(ctx, req.AdminID); err != nil {
		return err
	}

	a, err := s.auctionRepo.GetByID(ctx, req.AuctionID)
	if err != nil {
		return err
	}

	if !a.Status.CanTransition(auction.StatusRejected) {
		return shared.ErrInvalidState
	}

	a.Reject()
	if err := s.auctionRepo.Update(ctx, a); err != nil {
		return err
	}

	s.logger.Info().
		Str("auction_id", a.ID.String()).
		Str("admin_id", req.AdminID.String()).
		Str("reason", req.Reason).
		Msg("Auction rejected")
	s.publish(ctx, outbound.Event{
		Type:      outbound.EventTypeAuctionRejected,
		AuctionID: a.ID,
		Data:      map[string]interface{}{"reason": req.Reason},
		Timestamp: time.Now().Unix(),
	})

	return nil
}

// Close ends an active auction. The status write is a conditional
// transition so concurrent closers (sweeper vs. admin) commit at most
// once; the loser sees a no-op success. Settlement creation is invoked on
// the winning path and retried on the no-op path, so a settlement failure
// never strands the auction: a later sweep tick repairs it.
func (s *LifecycleService) Close(ctx context.Context, auctionID uuid.UUID) (*shared.CloseResult, error) {
	s.logger.Info().Str("auction_id", auctionID.String()).Msg("Closing auction")

	a, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		s.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to retrieve auction for closing")
		return nil, err
	}

	if a.IsEnded() {
		// Idempotent no-op, but give settlement a repair chance in case
		// a previous closure failed between the status write and the
		// settlement write.
		if a.Status == auction.StatusClosed {
			if _, _, err := s.recorder.Record(ctx, a); err != nil {
				s.logger.Error().Err(err).Str("auction_id", a.ID.String()).Msg("Settlement repair attempt failed")
			}
		}
		s.logger.Info().Str("auction_id", a.ID.String()).Str("status", string(a.Status)).Msg("Auction already ended, close is a no-op")
		return &shared.CloseResult{AuctionID: a.ID, Status: string(a.Status), AlreadyClosed: true}, nil
	}

	if !a.Status.CanTransition(auction.StatusClosed) {
		s.logger.Warn().Str("auction_id", a.ID.String()).Str("status", string(a.Status)).Msg("Close rejected, auction never activated")
		return nil, shared.ErrInvalidState
	}

	transitioned, err := s.auctionRepo.TransitionStatus(ctx, a.ID, auction.StatusActive, auction.StatusClosed)
	if err != nil {
		s.logger.Error().Err(err).Str("auction_id", a.ID.String()).Msg("Failed to transition auction to closed")
		return nil, err
	}
	if !transitioned {
		// Lost the race to another closer; their settlement pass owns
		// the records, ours just verifies.
		if _, _, err := s.recorder.Record(ctx, a); err != nil {
			s.logger.Error().Err(err).Str("auction_id", a.ID.String()).Msg("Settlement repair attempt failed")
		}
		s.logger.Info().Str("auction_id", a.ID.String()).Msg("Auction was closed concurrently, treating as no-op")
		return &shared.CloseResult{AuctionID: a.ID, Status: string(auction.StatusClosed), AlreadyClosed: true}, nil
	}

	a.Close()

	result := &shared.CloseResult{AuctionID: a.ID, Status: string(a.Status)}

	winner, created, err := s.recorder.Record(ctx, a)
	if err != nil {
		// The auction stays closed; settlement is retryable via the
		// sweeper's repair path. Log loudly, do not fail the close.
		s.logger.Error().Err(err).Str("auction_id", a.ID.String()).Msg("Settlement creation failed after close, will be retried")
	}
	if winner != nil {
		result.WinnerID = &winner.TraderID
		result.FinalAmount = &winner.Amount
		s.logger.Info().
			Str("auction_id", a.ID.String()).
			Str("winner_id", winner.TraderID.String()).
			Str("final_amount", winner.Amount.String()).
			Bool("settlement_created", created).
			Msg("Auction closed with winner")
	} else {
		s.logger.Info().Str("auction_id", a.ID.String()).Msg("Auction closed with no bids")
	}

	eventData := map[string]interface{}{"status": string(a.Status)}
	if result.WinnerID != nil {
		eventData["winner_id"] = result.WinnerID.String()
		eventData["final_amount"] = result.FinalAmount.String()
	}
	s.publish(ctx, outbound.Event{
		Type:      outbound.EventTypeAuctionClosed,
		AuctionID: a.ID,
		Data:      eventData,
		Timestamp: time.Now().Unix(),
	})

	return result, nil
}

// Terminate is the admin-facing manual close
func (s *LifecycleService) Terminate(ctx context.Context, req inbound.TerminateRequest) (*shared.CloseResult, error) {
	if err := s.requireAdmin(ctx, req.AdminID); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("auction_id", req.AuctionID.String()).
		Str("admin_id", req.AdminID.String()).
		Msg("Manual auction termination requested")
	return s.Close(ctx, req.AuctionID)
}

// MarkPaid moves a closed auction to completed once its payment settles
func (s *LifecycleService) MarkPaid(ctx context.Context, auctionID uuid.UUID) error {
	a, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return err
	}

	if a.Status == auction.StatusCompleted {
		return nil
	}
	if !a.Status.CanTransition(auction.StatusCompleted) {
		return shared.ErrInvalidState
	}

	transitioned, err := s.auctionRepo.TransitionStatus(ctx, a.ID, auction.StatusClosed, auction.StatusCompleted)
	if err != nil {
		return err
	}
	if !transitioned {
		// Either completed concurrently or reverted, re-read to decide
		fresh, err := s.auctionRepo.GetByID(ctx, a.ID)
		if err != nil {
			return err
		}
		if fresh.Status != auction.StatusCompleted {
			return shared.ErrInvalidState
		}
	}

	s.logger.Info().Str("auction_id", a.ID.String()).Msg("Auction marked as paid and completed")
	return nil
}

// GetAuction retrieves an auction by ID
func (s *LifecycleService) GetAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error) {
	return s.auctionRepo.GetByID(ctx, auctionID)
}

// ListAuctions retrieves a list of auctions
func (s *LifecycleService) ListAuctions(ctx context.Context, req inbound.ListAuctionsRequest) ([]*auction.Auction, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}

	return s.auctionRepo.List(ctx, req.Status, req.Page, req.PageSize)
}

// ListByFarmer retrieves a farmer's own auctions
func (s *LifecycleService) ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*auction.Auction, error) {
	return s.auctionRepo.ListByFarmer(ctx, farmerID)
}

// BrowseActive retrieves active auctions matching trader filters
func (s *LifecycleService) BrowseActive(ctx context.Context, filter outbound.BrowseFilter) ([]*auction.Auction, error) {
	return s.auctionRepo.BrowseActive(ctx, filter)
}

// ReconcileHighestBid recomputes the cached highest bid from the ledger
// max and repairs the auction row if the two diverged. The ledger is the
// source of truth; the cache is a denormalization.
func (s *LifecycleService) ReconcileHighestBid(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error) {
	a, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	want := a.BasePrice
	highest, err := s.bidRepo.GetHighestBid(ctx, auctionID)
	if err != nil && !errors.Is(err, shared.ErrNoBidsFound) {
		return nil, err
	}
	if highest != nil && highest.Amount.GreaterThan(want) {
		want = highest.Amount
	}

	if a.CurrentHighestBid.Equal(want) {
		return a, nil
	}

	s.logger.Warn().
		Str("auction_id", a.ID.String()).
		Str("cached", a.CurrentHighestBid.String()).
		Str("ledger_max", want.String()).
		Msg("Highest bid cache diverged from ledger, repairing")

	a.CurrentHighestBid = want
	a.UpdatedAt = time.Now()
	if err := s.auctionRepo.Update(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *LifecycleService) requireAdmin(ctx context.Context, adminID uuid.UUID) error {
	caller, err := s.userRepo.GetByID(ctx, adminID)
	if err != nil {
		return shared.ErrUserNotFound
	}
	if caller.Role != shared.RoleAdmin {
		s.logger.Warn().Str("user_id", adminID.String()).Str("role", string(caller.Role)).Msg("Admin operation attempted by non-admin")
		return shared.ErrForbidden
	}
	return nil
}

func (s *LifecycleService) publish(ctx context.Context, event outbound.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		// Notification is best-effort, never fails the operation
		s.logger.Error().Err(err).Str("event_type", string(event.Type)).Str("auction_id", event.AuctionID.String()).Msg("Failed to publish event")
	}
}
