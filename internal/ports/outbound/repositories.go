package outbound

import (
	"context"
	"time"

	"agrimandi-auction-service/internal/domain/auction"
	"agrimandi-auction-service/internal/domain/bid"
	"agrimandi-auction-service/internal/domain/settlement"
	"agrimandi-auction-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BrowseFilter narrows the active-auction listing for traders
type BrowseFilter struct {
	Location string
	Variety  string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// AuctionRepository defines the interface for auction data operations
type AuctionRepository interface {
	// Create creates a new auction
	Create(ctx context.Context, a *auction.Auction) error

	// GetByID retrieves an auction by ID
	GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error)

	// List retrieves auctions with an optional status filter
	List(ctx context.Context, status *auction.Status, page, pageSize int) ([]*auction.Auction, error)

	// ListByFarmer retrieves a farmer's auctions, newest first
	ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*auction.Auction, error)

	// BrowseActive retrieves active auctions matching the filter
	BrowseActive(ctx context.Context, filter BrowseFilter) ([]*auction.Auction, error)

	// ListExpired retrieves active auctions whose end time has passed
	ListExpired(ctx context.Context, now time.Time) ([]*auction.Auction, error)

	// Update rewrites an auction's mutable fields
	Update(ctx context.Context, a *auction.Auction) error

	// TransitionStatus conditionally moves an auction between statuses.
	// It returns false with no error when the auction was found but no
	// longer in the expected status, which is how racing closers detect
	// they lost.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to auction.Status) (bool, error)
}

// BidRepository defines the interface for the append-only bid ledger
type BidRepository interface {
	// GetByAuctionID retrieves all bids for an auction, highest first
	GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)

	// GetHighestBid retrieves the winning candidate for an auction,
	// or shared.ErrNoBidsFound when the ledger is empty
	GetHighestBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error)

	// ListByTrader retrieves a trader's bids across auctions, newest first
	ListByTrader(ctx context.Context, traderID uuid.UUID) ([]*bid.Bid, error)

	// AppendWithHighestBid atomically appends a bid to the ledger and
	// raises the auction's cached highest bid, conditional on the cache
	// still holding expectedHighest and the auction still being active.
	// Returns shared.ErrBidConflict when another bid won the race.
	AppendWithHighestBid(ctx context.Context, b *bid.Bid, expectedHighest decimal.Decimal) error
}

// SettlementRepository defines the interface for transaction and payment records
type SettlementRepository interface {
	// CreatePair persists a Transaction and Payment as one atomic unit
	CreatePair(ctx context.Context, txn *settlement.Transaction, pay *settlement.Payment) error

	// GetPaymentByAuctionID retrieves the payment for an auction,
	// or shared.ErrPaymentNotFound
	GetPaymentByAuctionID(ctx context.Context, auctionID uuid.UUID) (*settlement.Payment, error)

	// GetPaymentByID retrieves a payment by its own ID
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*settlement.Payment, error)

	// GetTransactionByAuctionID retrieves the audit record for an auction
	GetTransactionByAuctionID(ctx context.Context, auctionID uuid.UUID) (*settlement.Transaction, error)

	// UpdatePayment rewrites a payment's mutable fields
	UpdatePayment(ctx context.Context, pay *settlement.Payment) error

	// SetTransactionStatus updates the audit record's payment status
	SetTransactionStatus(ctx context.Context, auctionID uuid.UUID, status settlement.TransactionStatus) error

	// ListPaymentsByTrader retrieves a trader's payments, newest first
	ListPaymentsByTrader(ctx context.Context, traderID uuid.UUID) ([]*settlement.Payment, error)

	// ListPaymentsByFarmer retrieves a farmer's payments, newest first
	ListPaymentsByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*settlement.Payment, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*shared.User, error)

	// Create creates a new user
	Create(ctx context.Context, user *shared.User) error
}
