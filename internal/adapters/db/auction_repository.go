package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"agrimandi-auction-service/internal/domain/auction"
	"agrimandi-auction-service/internal/domain/shared"
	"agrimandi-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
)

const auctionColumns = `id, farmer_id, variety, quantity_kg, quality_grade, base_price, current_highest_bid, location, image_url, image_asset_id, end_time, status, created_at, updated_at`

// AuctionRepository implements the auction repository interface
type AuctionRepository struct {
	conn *Connection
}

// NewAuctionRepository creates a new auction repository
func NewAuctionRepository(conn *Connection) *AuctionRepository {
	return &AuctionRepository{conn: conn}
}

// Create creates a new auction
func (r *AuctionRepository) Create(ctx context.Context, a *auction.Auction) error {
	query := `
		INSERT INTO auctions (` + auctionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.conn.GetDB().ExecContext(ctx, query,
		a.ID,
		a.FarmerID,
		a.Variety,
		a.QuantityKg,
		a.QualityGrade,
		a.BasePrice,
		a.CurrentHighestBid,
		a.Location,
		a.ImageURL,
		a.ImageAssetID,
		a.EndTime,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create auction: %w", err)
	}

	return nil
}

func scanAuction(row interface {
	Scan(dest ...interface{}) error
}) (*auction.Auction, error) {
	var a auction.Auction
	err := row.Scan(
		&a.ID,
		&a.FarmerID,
		&a.Variety,
		&a.QuantityKg,
		&a.QualityGrade,
		&a.BasePrice,
		&a.CurrentHighestBid,
		&a.Location,
		&a.ImageURL,
		&a.ImageAssetID,
		&a.EndTime,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID retrieves an auction by ID
func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`

	a, err := scanAuction(r.conn.GetDB().QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}

	return a, nil
}

// List retrieves a list of auctions with an optional status filter
func (r *AuctionRepository) List(ctx context.Context, status *auction.Status, page, pageSize int) ([]*auction.Auction, error) {
	baseQuery := `SELECT ` + auctionColumns + ` FROM auctions `

	var whereClause string
	var args []interface{}
	argCount := 1

	if status != nil {
		whereClause = "WHERE status = $1"
		args = append(args, *status)
		argCount++
	}

	limitClause := fmt.Sprintf("LIMIT $%d", argCount)
	offsetClause := fmt.Sprintf("OFFSET $%d", argCount+1)
	args = append(args, pageSize, (page-1)*pageSize)

	query := baseQuery + whereClause + " ORDER BY created_at DESC " + limitClause + " " + offsetClause

	return r.queryAuctions(ctx, query, args...)
}

// ListByFarmer retrieves a farmer's auctions, newest first
func (r *AuctionRepository) ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*auction.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE farmer_id = $1 ORDER BY created_at DESC`
	return r.queryAuctions(ctx, query, farmerID)
}

// BrowseActive retrieves active auctions matching the filter
func (r *AuctionRepository) BrowseActive(ctx context.Context, filter outbound.BrowseFilter) ([]*auction.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status = 'active'`
	var args []interface{}
	argCount := 1

	if filter.Location != "" {
		query += fmt.Sprintf(" AND location ILIKE $%d", argCount)
		args = append(args, "%"+filter.Location+"%")
		argCount++
	}
	if filter.Variety != "" {
		query += fmt.Sprintf(" AND variety ILIKE $%d", argCount)
		args = append(args, "%"+filter.Variety+"%")
		argCount++
	}
	if filter.MinPrice != nil {
		query += fmt.Sprintf(" AND base_price >= $%d", argCount)
		args = append(args, *filter.MinPrice)
		argCount++
	}
	if filter.MaxPrice != nil {
		query += fmt.Sprintf(" AND base_price <= $%d", argCount)
		args = append(args, *filter.MaxPrice)
		argCount++
	}

	query += " ORDER BY created_at DESC"

	return r.queryAuctions(ctx, query, args...)
}

// ListExpired retrieves active auctions whose end time has passed
func (r *AuctionRepository) ListExpired(ctx context.Context, now time.Time) ([]*auction.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE status = 'active' AND end_time <= $1
		ORDER BY end_time ASC
	`
	return r.queryAuctions(ctx, query, now)
}

// Update rewrites an auction's mutable fields
func (r *AuctionRepository) Update(ctx context.Context, a *auction.Auction) error {
	query := `
		UPDATE auctions
		SET variety = $2, quantity_kg = $3, quality_grade = $4, base_price = $5,
		    current_highest_bid = $6, location = $7, image_url = $8, image_asset_id = $9,
		    end_time = $10, status = $11, updated_at = $12
		WHERE id = $1
	`

	result, err := r.conn.GetDB().ExecContext(ctx, query,
		a.ID,
		a.Variety,
		a.QuantityKg,
		a.QualityGrade,
		a.BasePrice,
		a.CurrentHighestBid,
		a.Location,
		a.ImageURL,
		a.ImageAssetID,
		a.EndTime,
		a.Status,
		a.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update auction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrAuctionNotFound
	}

	return nil
}

// TransitionStatus conditionally moves an auction between statuses. The
// status guard in the WHERE clause is what makes closure at-most-once
// under racing closers.
func (r *AuctionRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to auction.Status) (bool, error) {
	query := `
		UPDATE auctions
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`

	result, err := r.conn.GetDB().ExecContext(ctx, query, id, from, to, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to transition auction status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Distinguish "not found" from "lost the race"
		var exists bool
		if err := r.conn.GetDB().QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM auctions WHERE id = $1)`, id).Scan(&exists); err != nil {
			return false, fmt.Errorf("failed to check auction existence: %w", err)
		}
		if !exists {
			return false, shared.ErrAuctionNotFound
		}
		return false, nil
	}

	return true, nil
}

func (r *AuctionRepository) queryAuctions(ctx context.Context, query string, args ...interface{}) ([]*auction.Auction, error) {
	rows, err := r.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query auctions: %w", err)
	}
	defer rows.Close()

	var auctions []*auction.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		auctions = append(auctions, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auctions: %w", err)
	}

	return auctions, nil
}
