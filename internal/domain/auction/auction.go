package auction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the current status of an auction
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusRejected  Status = "rejected"
	StatusClosed    Status = "closed"
	StatusCompleted Status = "completed"
)

// transitions is the exhaustive table of legal status transitions.
// New states are added here, never via string comparison at call sites.
var transitions = map[Status][]Status{
	StatusPending:   {StatusActive, StatusRejected},
	StatusActive:    {StatusClosed},
	StatusClosed:    {StatusCompleted},
	StatusRejected:  {},
	StatusCompleted: {},
}

// CanTransition reports whether moving from s to target is a legal transition
func (s Status) CanTransition(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsValid reports whether s is a known status value
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// Auction represents a time-boxed produce listing open to competitive bidding
type Auction struct {
	ID                uuid.UUID       `json:"id"`
	FarmerID          uuid.UUID       `json:"farmer_id"`
	Variety           string          `json:"variety"`
	QuantityKg        decimal.Decimal `json:"quantity_kg"`
	QualityGrade      string          `json:"quality_grade"`
	BasePrice         decimal.Decimal `json:"base_price"`
	CurrentHighestBid decimal.Decimal `json:"current_highest_bid"`
	Location          string          `json:"location"`
	ImageURL          string          `json:"image_url,omitempty"`
	ImageAssetID      string          `json:"image_asset_id,omitempty"`
	EndTime           time.Time       `json:"end_time"`
	Status            Status          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// IsActive returns true if the auction is currently accepting bids
func (a *Auction) IsActive() bool {
	return a.Status == StatusActive
}

// IsEnded returns true if the auction has left the bidding phase
func (a *Auction) IsEnded() bool {
	return a.Status == StatusClosed || a.Status == StatusCompleted
}

// IsExpired returns true if the auction's end time has passed at now
func (a *Auction) IsExpired(now time.Time) bool {
	return !a.EndTime.After(now)
}

// UpdateHighestBid raises the cached highest bid. The cache only ever
// moves upward; the bid ledger remains the source of truth.
func (a *Auction) UpdateHighestBid(amount decimal.Decimal) {
	if amount.GreaterThan(a.CurrentHighestBid) {
		a.CurrentHighestBid = amount
		a.UpdatedAt = time.Now()
	}
}

// Activate moves the auction into the bidding phase
func (a *Auction) Activate() {
	a.Status = StatusActive
	a.UpdatedAt = time.Now()
}

// Close moves the auction out of the bidding phase
func (a *Auction) Close() {
	a.Status = StatusClosed
	a.UpdatedAt = time.Now()
}

// Complete marks the auction as settled by the winning trader
func (a *Auction) Complete() {
	a.Status = StatusCompleted
	a.UpdatedAt = time.Now()
}

// Reject marks a pending auction as rejected by an admin
func (a *Auction) Reject() {
	a.Status = StatusRejected
	a.UpdatedAt = time.Now()
}
