package shared

import "errors"

// Domain-specific errors
var (
	// Auction errors
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrInvalidState     = errors.New("operation not allowed in current auction status")
	ErrAuctionNotActive = errors.New("auction is not accepting bids")
	ErrAuctionExpired   = errors.New("auction has ended")
	ErrInvalidQuantity  = errors.New("quantity must be greater than 0")
	ErrInvalidBasePrice = errors.New("base price must be greater than 0")
	ErrInvalidEndTime   = errors.New("end time must be in the future")

	// Bid errors
	ErrBidTooLow        = errors.New("bid must be higher than current highest bid and base price")
	ErrInvalidIncrement = errors.New("bid must be a positive multiple of the minimum increment")
	ErrBidConflict      = errors.New("bid no longer valid, auction state changed")
	ErrNoBidsFound      = errors.New("no bids found")

	// Settlement errors
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrPaymentSettled    = errors.New("payment already settled")
	ErrInvalidPayMethod  = errors.New("invalid payment method")
	ErrNotWinningTrader  = errors.New("trader did not win this auction")
	ErrSettlementFailed  = errors.New("settlement record creation failed")
	ErrPaymentStatus     = errors.New("invalid payment status")
	ErrTransactionExists = errors.New("transaction already exists for auction")

	// User errors
	ErrUserNotFound    = errors.New("user not found")
	ErrForbidden       = errors.New("caller role not permitted for this operation")
	ErrUserNotApproved = errors.New("user account pending approval")
)
