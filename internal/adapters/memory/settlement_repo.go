package memory

import (
	"context"
	"sort"

	"agrimandi-auction-service/internal/domain/settlement"
	"agrimandi-auction-service/internal/domain/shared"

	"github.com/google/uuid"
)

// SettlementRepo is the in-memory settlement store
type SettlementRepo struct {
	store *Store
}

// CreatePair persists a Transaction and Payment as one atomic unit
func (r *SettlementRepo) CreatePair(ctx context.Context, txn *settlement.Transaction, pay *settlement.Payment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// Enforce the at-most-one-per-auction guarantee the unique index
	// provides in postgres
	if _, exists := r.store.transactions[txn.AuctionID]; exists {
		return shared.ErrTransactionExists
	}
	if _, exists := r.store.paymentForAuctionLocked(pay.AuctionID); exists {
		return shared.ErrTransactionExists
	}

	r.store.transactions[txn.AuctionID] = *txn
	r.store.payments[pay.ID] = *pay
	return nil
}

// GetPaymentByAuctionID retrieves the payment for an auction
func (r *SettlementRepo) GetPaymentByAuctionID(ctx context.Context, auctionID uuid.UUID) (*settlement.Payment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.paymentForAuctionLocked(auctionID)
	if !ok {
		return nil, shared.ErrPaymentNotFound
	}
	return &p, nil
}

// GetPaymentByID retrieves a payment by its own ID
func (r *SettlementRepo) GetPaymentByID(ctx context.Context, id uuid.UUID) (*settlement.Payment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.payments[id]
	if !ok {
		return nil, shared.ErrPaymentNotFound
	}
	copy := p
	return &copy, nil
}

// GetTransactionByAuctionID retrieves the audit record for an auction
func (r *SettlementRepo) GetTransactionByAuctionID(ctx context.Context, auctionID uuid.UUID) (*settlement.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	t, ok := r.store.transactions[auctionID]
	if !ok {
		return nil, shared.ErrPaymentNotFound
	}
	copy := t
	return &copy, nil
}

// UpdatePayment rewrites a payment's mutable fields
func (r *SettlementRepo) UpdatePayment(ctx context.Context, pay *settlement.Payment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.payments[pay.ID]; !ok {
		return shared.ErrPaymentNotFound
	}
	r.store.payments[pay.ID] = *pay
	return nil
}

// SetTransactionStatus updates the audit record's payment status
func (r *SettlementRepo) SetTransactionStatus(ctx context.Context, auctionID uuid.UUID, status settlement.TransactionStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	t, ok := r.store.transactions[auctionID]
	if !ok {
		return shared.ErrPaymentNotFound
	}
	t.PaymentStatus = status
	r.store.transactions[auctionID] = t
	return nil
}

// ListPaymentsByTrader retrieves a trader's payments, newest first
func (r *SettlementRepo) ListPaymentsByTrader(ctx context.Context, traderID uuid.UUID) ([]*settlement.Payment, error) {
	return r.listPayments(func(p settlement.Payment) bool { return p.TraderID == traderID })
}

// ListPaymentsByFarmer retrieves a farmer's payments, newest first
func (r *SettlementRepo) ListPaymentsByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*settlement.Payment, error) {
	return r.listPayments(func(p settlement.Payment) bool { return p.FarmerID == farmerID })
}

func (r *SettlementRepo) listPayments(match func(settlement.Payment) bool) ([]*settlement.Payment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*settlement.Payment
	for _, p := range r.store.payments {
		if match(p) {
			copy := p
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
