package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"agrimandi-auction-service/internal/domain/auction"
	"agrimandi-auction-service/internal/domain/shared"
	"agrimandi-auction-service/internal/ports/outbound"

	"github.com/google/uuid"
)

// AuctionRepo is the in-memory auction repository
type AuctionRepo struct {
	store *Store
}

// Create creates a new auction
func (r *AuctionRepo) Create(ctx context.Context, a *auction.Auction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.auctions[a.ID] = *a
	return nil
}

// GetByID retrieves an auction by ID
func (r *AuctionRepo) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.auctions[id]
	if !ok {
		return nil, shared.ErrAuctionNotFound
	}
	copy := a
	return &copy, nil
}

// List retrieves auctions with an optional status filter
func (r *AuctionRepo) List(ctx context.Context, status *auction.Status, page, pageSize int) ([]*auction.Auction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matches := r.collectLocked(func(a auction.Auction) bool {
		return status == nil || a.Status == *status
	})

	start := (page - 1) * pageSize
	if start >= len(matches) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], nil
}

// ListByFarmer retrieves a farmer's auctions, newest first
func (r *AuctionRepo) ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]*auction.Auction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.collectLocked(func(a auction.Auction) bool {
		return a.FarmerID == farmerID
	}), nil
}

// BrowseActive retrieves active auctions matching the filter
func (r *AuctionRepo) BrowseActive(ctx context.Context, filter outbound.BrowseFilter) ([]*auction.Auction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.collectLocked(func(a auction.Auction) bool {
		if a.Status != auction.StatusActive {
			return false
		}
		if filter.Location != "" && !strings.Contains(strings.ToLower(a.Location), strings.ToLower(filter.Location)) {
			return false
		}
		if filter.Variety != "" && !strings.Contains(strings.ToLower(a.Variety), strings.ToLower(filter.Variety)) {
			return false
		}
		if filter.MinPrice != nil && a.BasePrice.LessThan(*filter.MinPrice) {
			return false
		}
		if filter.MaxPrice != nil && a.BasePrice.GreaterThan(*filter.MaxPrice) {
			return false
		}
		return true
	}), nil
}

// ListExpired retrieves active auctions whose end time has passed
func (r *AuctionRepo) ListExpired(ctx context.Context, now time.Time) ([]*auction.Auction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.collectLocked(func(a auction.Auction) bool {
		return a.Status == auction.StatusActive && !a.EndTime.After(now)
	}), nil
}

// Update rewrites an auction's mutable fields
func (r *AuctionRepo) Update(ctx context.Context, a *auction.Auction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.auctions[a.ID]; !ok {
		return shared.ErrAuctionNotFound
	}
	r.store.auctions[a.ID] = *a
	return nil
}

// TransitionStatus conditionally moves an auction between statuses
func (r *AuctionRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to auction.Status) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.auctions[id]
	if !ok {
		return false, shared.ErrAuctionNotFound
	}
	if a.Status != from {
		return false, nil
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	r.store.auctions[id] = a
	return true, nil
}

func (r *AuctionRepo) collectLocked(match func(auction.Auction) bool) []*auction.Auction {
	var out []*auction.Auction
	for _, a := range r.store.auctions {
		if match(a) {
			copy := a
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
