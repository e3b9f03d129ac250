package db

import (
	"context"
	"database/sql"
	"fmt"

	"agrimandi-auction-service/internal/domain/settlement"
	"agrimandi-auction-service/internal/domain/shared"

	"github.com/google/uuid"
)

const paymentColumns = `id, auction_id, trader_id, farmer_id, amount, status, method, reference, notes, paid_at, created_at, updated_at`

// SettlementRepository implements the transaction and payment stores
type SettlementRepository struct {
	conn *Connection
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(conn *Connection) *SettlementRepository {
	return &SettlementRepository{conn: conn}
}

// CreatePair persists a Transaction and Payment as one atomic unit, so a
// partial settlement pair can never be observed.
func (r *SettlementRepository) CreatePair(ctx context.Context, txn *settlement.Transaction, pay *settlement.Payment) error {
	return r.conn.ExecuteTransaction(func(tx *sql.Tx) error {
		txnQuery := `
			INSERT INTO transactions (id, auction_id, farmer_id, trader_id, final_amount, payment_status, transaction_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`

		_, err := tx.ExecContext(ctx, txnQuery,
			txn.ID,
			txn.AuctionID,
			txn.FarmerID,
			txn.TraderID,
			txn.FinalAmount,
			txn.PaymentStatus,
			txn.Date,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		payQuery := `
			INSERT INTO payments (` + paymentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`

		_, err = tx.ExecContext(ctx, payQuery,
			pay.ID,
			pay.AuctionID,
			pay.TraderID,
			pay.FarmerID,
			pay.Amount,
			pay.Status,
			pay.Method,
			pay.Reference,
			pay.Notes,
			pay.PaidAt,
			pay.CreatedAt,
			pay.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}

		return nil
	})
}

func scanPayment(row interface {
	Scan(dest ...interface{}) error
}) (*settlement.Payment, error) {
	var p settlement.Payment
	err := row.Scan(
		&p.ID,
		&p.AuctionID,
		&p.TraderID,
		&p.FarmerID,
		&p.Amount,
		&p.Status,
		&p.Method,
		&p.Reference,
		&p.Notes,
		&p.PaidAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPaymentByAuctionID retrieves the payment for an auction
func (r *SettlementRepository) GetPaymentByAuctionID(ctx context.Context, auctionID uuid.UUID) (*settlement.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE auction_id = $1`

	p, err := scanPayment(r.conn.GetDB().QueryRowContext(ctx, query, auctionID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return p, nil
}

// GetPaymentByID retrieves a payment by its own ID
func (r *SettlementRepository) GetPaymentByID(ctx context.Context, id uuid.UUID) (*settlement.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p, err := scanPayment(r.conn.GetDB().QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return p, nil
}

// GetTransactionByAuctionID retrieves the audit record for an auction
func (r *SettlementRepository) GetTransactionByAuctionID(ctx context.Context, auctionID uuid.UUID) (*settlement.Transaction, error) {
	query := `
		SELECT id, auction_id, farmer_id, trader_id, final_amount, payment_status, transaction_date
		FROM transactions
		WHERE auction_id = $1
	`

	var t settlement.Transaction
	err := r.conn.GetDB().QueryRowContext(ctx, query, auctionID).Scan(
		&t.ID,
		&t.AuctionID,
		&t.FarmerID,
		&t.TraderID,
		&t.FinalAmount,
		&t.PaymentStatus,
		&t.Date,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &t, nil
}

// UpdatePayment rewrites a payment's mutable fields
func (r *SettlementRepository) UpdatePayment(ctx context.Context, pay *settlement.Payment) error {
	query := `
		UPDATE payments
		SET status = $2, method = $3, notes = $4, paid_at = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.conn.GetDB().ExecContext(ctx, query,
		pay.ID,
		pay.Status,
		pay.Method,
		pay.Notes,
		pay.PaidAt,
		pay.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrPaymentNotFound
	}

	return nil
}

// SetTransactionStatus updates the audit record's payment status
func (r *SettlementRepository) SetTransactionStatus(ctx context.Context, auctionID uuid.UUID, status settlement.TransactionStatus) error {
	query := `UPDATE transactions SET payment_status = $2 WHERE auction_id = $1`

	result, err := r.conn.GetDB().ExecContext(ctx, query, auctionID, status)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrPaymentNotFound
	}

	return nil
}

// ListPaymentsByTrader retrieves a trader's payments, newest first
func (r *SettlementRepository) ListPaymentsByTrader(ctx context.Context, traderID uuid.UUID) ([]*settlement.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE trader_id = $1 ORDER BY created_at DESC`
	return r.queryPayments(ctx, query, traderID)
}

// ListPaymentsByFarmer retrieves a farmer's payments, newest first
func (r *SettlementRepository) ListPaymentsByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*settlement.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE farmer_id = $1 ORDER BY created_at DESC`
	return r.queryPayments(ctx, query, farmerID)
}

func (r *SettlementRepository) queryPayments(ctx context.Context, query string, args ...interface{}) ([]*settlement.Payment, error) {
	rows, err := r.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []*settlement.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return payments, nil
}
