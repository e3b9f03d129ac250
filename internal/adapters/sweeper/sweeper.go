// Package sweeper drives time-based auction expiry. It owns the timer;
// what closing means lives in the lifecycle service, so manual admin
// termination and automated expiry share one closure path.
package sweeper

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"agrimandi-auction-service/internal/domain/shared"
	"agrimandi-auction-service/internal/ports/outbound"

	"github.com/alitto/pond"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuctionCloser is the slice of the lifecycle service the sweeper needs
type AuctionCloser interface {
	Close(ctx context.Context, auctionID uuid.UUID) (*shared.CloseResult, error)
}

// Sweeper periodically closes active auctions whose end time has passed
type Sweeper struct {
	auctionRepo outbound.AuctionRepository
	closer      AuctionCloser
	interval    time.Duration
	batchSize   int
	pool        *pond.WorkerPool
	logger      zerolog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

type SweeperParams struct {
	AuctionRepo outbound.AuctionRepository
	Closer      AuctionCloser
	Interval    time.Duration
	MaxWorkers  int
	BatchSize   int
	Logger      zerolog.Logger
}

// NewSweeper creates a new expiry sweeper
func NewSweeper(params SweeperParams) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())

	pool := pond.New(
		params.MaxWorkers,
		params.BatchSize,
		pond.Context(ctx),
		pond.Strategy(pond.Balanced()),
	)

	return &Sweeper{
		auctionRepo: params.AuctionRepo,
		closer:      params.Closer,
		interval:    params.Interval,
		batchSize:   params.BatchSize,
		pool:        pool,
		logger:      params.Logger.With().Str("component", "expiry_sweeper").Logger(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins the sweep loop
func (s *Sweeper) Start() {
	s.logger.Info().Dur("interval", s.interval).Msg("Starting expiry sweeper")

	s.wg.Add(1)
	go s.sweepLoop()
}

// Stop gracefully stops the sweeper and waits for in-flight closures
func (s *Sweeper) Stop() {
	s.logger.Info().Msg("Stopping expiry sweeper")
	s.cancel()
	s.wg.Wait()
	s.pool.Stop()
}

func (s *Sweeper) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			result := s.RunOnce(s.ctx)
			if result.Found > 0 {
				s.logger.Info().
					Int("found", result.Found).
					Int("closed", result.Closed).
					Int("failed", result.Failed).
					Msg("Sweep tick completed")
			}
		case <-s.ctx.Done():
			s.logger.Info().Msg("Sweep loop stopped")
			return
		}
	}
}

// RunOnce performs a single sweep: find expired active auctions and close
// each one. Per-auction failures are isolated so one bad record never
// blocks the batch; because closure is idempotent, a failed auction is
// simply retried on the next tick.
func (s *Sweeper) RunOnce(ctx context.Context) shared.SweepResult {
	expired, err := s.auctionRepo.ListExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list expired auctions")
		return shared.SweepResult{}
	}

	if len(expired) == 0 {
		return shared.SweepResult{}
	}

	if len(expired) > s.batchSize {
		expired = expired[:s.batchSize]
	}

	s.logger.Debug().Int("count", len(expired)).Msg("Found expired auctions")

	var closed, failed int64
	group := s.pool.Group()
	for _, a := range expired {
		auctionID := a.ID
		group.Submit(func() {
			if _, err := s.closer.Close(ctx, auctionID); err != nil {
				atomic.AddInt64(&failed, 1)
				s.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to close expired auction")
				return
			}
			atomic.AddInt64(&closed, 1)
		})
	}
	group.Wait()

	return shared.SweepResult{
		Found:  len(expired),
		Closed: int(atomic.LoadInt64(&closed)),
		Failed: int(atomic.LoadInt64(&failed)),
	}
}
