package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"agrimandi-auction-service/internal/domain/bid"
	"agrimandi-auction-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BidRepository implements the append-only bid ledger
type BidRepository struct {
	conn *Connection
}

// NewBidRepository creates a new bid repository
func NewBidRepository(conn *Connection) *BidRepository {
	return &BidRepository{conn: conn}
}

// GetByAuctionID retrieves all bids for an auction, highest first
func (r *BidRepository) GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	query := `
		SELECT id, auction_id, trader_id, amount, placed_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY amount DESC, placed_at ASC
	`
	return r.queryBids(ctx, query, auctionID)
}

// GetHighestBid retrieves the winning candidate for an auction.
// Ties break on earliest placement, though the strictly-increasing
// acceptance invariant should make ties impossible.
func (r *BidRepository) GetHighestBid(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	query := `
		SELECT id, auction_id, trader_id, amount, placed_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY amount DESC, placed_at ASC
		LIMIT 1
	`

	var b bid.Bid
	err := r.conn.GetDB().QueryRowContext(ctx, query, auctionID).Scan(
		&b.ID,
		&b.AuctionID,
		&b.TraderID,
		&b.Amount,
		&b.PlacedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrNoBidsFound
		}
		return nil, fmt.Errorf("failed to get highest bid: %w", err)
	}

	return &b, nil
}

// ListByTrader retrieves a trader's bids across auctions, newest first
func (r *BidRepository) ListByTrader(ctx context.Context, traderID uuid.UUID) ([]*bid.Bid, error) {
	query := `
		SELECT id, auction_id, trader_id, amount, placed_at
		FROM bids
		WHERE trader_id = $1
		ORDER BY placed_at DESC
	`
	return r.queryBids(ctx, query, traderID)
}

/*
AppendWithHighestBid commits a bid with optimistic concurrency control:
 1. Re-read the auction row inside the transaction
 2. Re-validate status, expiry and price against the fresh row
 3. Append the bid to the ledger
 4. Raise the cached highest bid only if no other transaction moved it

The conditional UPDATE keyed on the expected price is what closes the
check-then-act race between concurrent bidders.
*/
func (r *BidRepository) AppendWithHighestBid(ctx context.Context, newBid *bid.Bid, expectedHighest decimal.Decimal) error {
	return r.conn.ExecuteTransaction(func(tx *sql.Tx) error {
		auctionQuery := `
			SELECT current_highest_bid, base_price, status, end_time
			FROM auctions
			WHERE id = $1
		`

		var dbHighest, basePrice decimal.Decimal
		var status string
		var endTime time.Time
		err := tx.QueryRowContext(ctx, auctionQuery, newBid.AuctionID).Scan(&dbHighest, &basePrice, &status, &endTime)
		if err != nil {
			if err == sql.ErrNoRows {
				return shared.ErrAuctionNotFound
			}
			return fmt.Errorf("failed to get auction for bid commit: %w", err)
		}

		if status != "active" {
			return shared.ErrAuctionNotActive
		}
		if !endTime.After(newBid.PlacedAt) {
			return shared.ErrAuctionExpired
		}
		if !dbHighest.Equal(expectedHighest) {
			// Another bid landed between the caller's snapshot and now
			return shared.ErrBidConflict
		}
		if newBid.Amount.LessThanOrEqual(dbHighest) || newBid.Amount.LessThanOrEqual(basePrice) {
			return shared.ErrBidTooLow
		}

		bidQuery := `
			INSERT INTO bids (id, auction_id, trader_id, amount, placed_at)
			VALUES ($1, $2, $3, $4, $5)
		`

		_, err = tx.ExecContext(ctx, bidQuery,
			newBid.ID,
			newBid.AuctionID,
			newBid.TraderID,
			newBid.Amount,
			newBid.PlacedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bid: %w", err)
		}

		updateQuery := `
			UPDATE auctions
			SET current_highest_bid = $2, updated_at = $3
			WHERE id = $1 AND current_highest_bid = $4 AND status = 'active'
		`

		result, err := tx.ExecContext(ctx, updateQuery,
			newBid.AuctionID,
			newBid.Amount,
			newBid.PlacedAt,
			expectedHighest,
		)
		if err != nil {
			return fmt.Errorf("failed to update highest bid: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		// No row updated means another transaction moved the price or
		// closed the auction; roll the ledger append back with it.
		if rowsAffected == 0 {
			return shared.ErrBidConflict
		}

		return nil
	})
}

func (r *BidRepository) queryBids(ctx context.Context, query string, args ...interface{}) ([]*bid.Bid, error) {
	rows, err := r.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	var bids []*bid.Bid
	for rows.Next() {
		var b bid.Bid
		err := rows.Scan(
			&b.ID,
			&b.AuctionID,
			&b.TraderID,
			&b.Amount,
			&b.PlacedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, &b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bids: %w", err)
	}

	return bids, nil
}
