package shared

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CloseResult describes the outcome of closing an auction
type CloseResult struct {
	AuctionID   uuid.UUID
	WinnerID    *uuid.UUID
	FinalAmount *decimal.Decimal
	Status      string
	// AlreadyClosed is set when the close was a no-op because another
	// caller (sweeper or admin) got there first.
	AlreadyClosed bool
}

// SweepResult summarizes one run of the expiry sweeper
type SweepResult struct {
	Found  int
	Closed int
	Failed int
}
