package inbound

import (
	"context"

	"agrimandi-auction-service/internal/domain/auction"
	"agrimandi-auction-service/internal/domain/bid"
	"agrimandi-auction-service/internal/domain/settlement"
	"agrimandi-auction-service/internal/domain/shared"
	"agrimandi-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LifecycleService defines the auction state machine operations
type LifecycleService interface {
	// CreateAuction validates terms and stores a new pending auction
	CreateAuction(ctx context.Context, req CreateAuctionRequest) (*auction.Auction, error)

	// Approve moves a pending auction to active, optionally overriding
	// the quality grade and base price as part of the same transition
	Approve(ctx context.Context, req ApproveRequest) (*auction.Auction, error)

	// Reject moves a pending auction to the terminal rejected state
	Reject(ctx context.Context, req RejectRequest) error

	// Close ends an active auction and records the settlement pair for
	// the winning bid, if any. Closing an already-ended auction is a
	// no-op success.
	Close(ctx context.Context, auctionID uuid.UUID) (*shared.CloseResult, error)

	// Terminate is the admin-facing close; identical semantics with a
	// role check on top
	Terminate(ctx context.Context, req TerminateRequest) (*shared.CloseResult, error)

	// MarkPaid moves a closed auction to completed once its payment settles
	MarkPaid(ctx context.Context, auctionID uuid.UUID) error

	// GetAuction retrieves an auction by ID
	GetAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error)

	// ListAuctions retrieves auctions with optional status filter and paging
	ListAuctions(ctx context.Context, req ListAuctionsRequest) ([]*auction.Auction, error)

	// ListByFarmer retrieves a farmer's own auctions
	ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*auction.Auction, error)

	// BrowseActive retrieves active auctions matching trader filters
	BrowseActive(ctx context.Context, filter outbound.BrowseFilter) ([]*auction.Auction, error)

	// ReconcileHighestBid recomputes the cached highest bid from the
	// ledger and repairs the auction row if the two diverged
	ReconcileHighestBid(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error)
}

// BidService defines the bid placement and query operations
type BidService interface {
	// PlaceBid validates and atomically records a trader's bid
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*bid.Bid, error)

	// GetBids retrieves the bid history for an auction
	GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)

	// GetHighestBid retrieves the current winning candidate
	GetHighestBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error)

	// ListMyBids retrieves a trader's bids across auctions
	ListMyBids(ctx context.Context, traderID uuid.UUID) ([]*bid.Bid, error)
}

// SettlementService defines the post-closure payment operations
type SettlementService interface {
	// AttachPaymentDetails lets the winning trader pick a payment method
	// and leave notes on the pending payment
	AttachPaymentDetails(ctx context.Context, req AttachPaymentRequest) (*settlement.Payment, error)

	// ConfirmPayment transitions a payment to completed or failed; on
	// completion the auction moves to completed
	ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest) (*settlement.Payment, error)

	// GetPayment retrieves the payment for an auction
	GetPayment(ctx context.Context, auctionID uuid.UUID) (*settlement.Payment, error)

	// ListTraderPayments retrieves a trader's payments
	ListTraderPayments(ctx context.Context, traderID uuid.UUID) ([]*settlement.Payment, error)

	// ListFarmerPayments retrieves a farmer's payments
	ListFarmerPayments(ctx context.Context, farmerID uuid.UUID) ([]*settlement.Payment, error)
}

// request to create an auction
type CreateAuctionRequest struct {
	FarmerID     uuid.UUID       `json:"farmer_id"`
	Variety      string          `json:"variety"`
	QuantityKg   decimal.Decimal `json:"quantity_kg"`
	QualityGrade string          `json:"quality_grade"`
	BasePrice    decimal.Decimal `json:"base_price"`
	Location     string          `json:"location"`
	ImageURL     string          `json:"image_url,omitempty"`
	ImageAssetID string          `json:"image_asset_id,omitempty"`
	EndTime      string          `json:"end_time"`
}

// request to approve a pending auction, with optional admin overrides
type ApproveRequest struct {
	AuctionID    uuid.UUID        `json:"auction_id"`
	AdminID      uuid.UUID        `json:"admin_id"`
	QualityGrade *string          `json:"quality_grade,omitempty"`
	BasePrice    *decimal.Decimal `json:"base_price,omitempty"`
}

// request to reject a pending auction
type RejectRequest struct {
	AuctionID uuid.UUID `json:"auction_id"`
	AdminID   uuid.UUID `json:"admin_id"`
	Reason    string    `json:"reason"`
}

// request to manually terminate an active auction
type TerminateRequest struct {
	AuctionID uuid.UUID `json:"auction_id"`
	AdminID   uuid.UUID `json:"admin_id"`
}

// request to list auctions
type ListAuctionsRequest struct {
	Status   *auction.Status `json:"status,omitempty"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// request to place a bid
type PlaceBidRequest struct {
	AuctionID uuid.UUID       `json:"auction_id"`
	TraderID  uuid.UUID       `json:"trader_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// request to attach payment method details to a pending payment
type AttachPaymentRequest struct {
	AuctionID uuid.UUID         `json:"auction_id"`
	TraderID  uuid.UUID         `json:"trader_id"`
	Method    settlement.Method `json:"method"`
	Notes     string            `json:"notes,omitempty"`
}

// request to confirm or fail a payment
type ConfirmPaymentRequest struct {
	PaymentID uuid.UUID                `json:"payment_id"`
	CallerID  uuid.UUID                `json:"caller_id"`
	Status    settlement.PaymentStatus `json:"status"`
}
