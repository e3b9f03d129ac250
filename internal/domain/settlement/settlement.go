package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the payment state recorded on the audit side
type TransactionStatus string

const (
	TransactionPending TransactionStatus = "pending"
	TransactionPaid    TransactionStatus = "paid"
)

// PaymentStatus represents the state of the actionable settlement obligation
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Method is how the winning trader settles with the farmer
type Method string

const (
	MethodUPI          Method = "upi"
	MethodBankTransfer Method = "bank_transfer"
	MethodCard         Method = "card"
	MethodCash         Method = "cash"
)

// IsValid reports whether m is a known payment method
func (m Method) IsValid() bool {
	switch m {
	case MethodUPI, MethodBankTransfer, MethodCard, MethodCash:
		return true
	}
	return false
}

// Transaction is the immutable audit record created when an auction
// closes with a winning bid. At most one exists per auction.
type Transaction struct {
	ID            uuid.UUID         `json:"id"`
	AuctionID     uuid.UUID         `json:"auction_id"`
	FarmerID      uuid.UUID         `json:"farmer_id"`
	TraderID      uuid.UUID         `json:"trader_id"`
	FinalAmount   decimal.Decimal   `json:"final_amount"`
	PaymentStatus TransactionStatus `json:"payment_status"`
	Date          time.Time         `json:"date"`
}

// Payment is the actionable settlement obligation between the winning
// trader (payer) and the farmer (payee). At most one exists per auction.
type Payment struct {
	ID        uuid.UUID       `json:"id"`
	AuctionID uuid.UUID       `json:"auction_id"`
	TraderID  uuid.UUID       `json:"trader_id"`
	FarmerID  uuid.UUID       `json:"farmer_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    PaymentStatus   `json:"status"`
	Method    Method          `json:"method,omitempty"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes,omitempty"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IsSettled reports whether the payment reached a terminal state
func (p *Payment) IsSettled() bool {
	return p.Status == PaymentCompleted || p.Status == PaymentFailed
}

// Complete marks the payment as settled at the given time
func (p *Payment) Complete(at time.Time) {
	p.Status = PaymentCompleted
	p.PaidAt = &at
	p.UpdatedAt = at
}

// Fail marks the payment as failed
func (p *Payment) Fail() {
	p.Status = PaymentFailed
	p.UpdatedAt = time.Now()
}
