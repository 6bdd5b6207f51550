package app

import (
	"context"
	"log"
	"time"

	"github.com/tilford/calhold/internal/clock"
	"github.com/tilford/calhold/internal/metrics"
)

// Sweeper periodically expires due holds so they stop blocking new ones.
// Failures are logged and retried on the next tick.
type Sweeper struct {
	holds    *HoldService
	clock    clock.Clock
	interval time.Duration
	logger   *log.Logger
	metrics  *metrics.Metrics
}

const defaultSweepInterval = time.Minute

func NewSweeper(holds *HoldService, clk clock.Clock, logger *log.Logger, opts ...SweeperOption) *Sweeper {
	if logger == nil {
		logger = log.Default()
	}
	s := &Sweeper{
		holds:    holds,
		clock:    clk,
		interval: defaultSweepInterval,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SweeperOption func(*Sweeper)

// WithSweepInterval overrides the default tick interval.
func WithSweepInterval(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSweeperMetrics wires failure counters.
func WithSweeperMetrics(m *metrics.Metrics) SweeperOption {
	return func(s *Sweeper) {
		s.metrics = m
	}
}

// Run sweeps on a fixed interval until the context is cancelled. The first
// sweep happens immediately so a restart does not leave stale holds blocking
// for a full tick.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Printf("sweeper stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Sweep runs a single expiry pass and returns the number of holds expired.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	return s.holds.ExpireDue(ctx, s.clock.Now())
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.SweepFailures.Inc()
		}
		s.logger.Printf("sweep failed, retrying next tick: %v", err)
		return
	}
	if n > 0 {
		s.logger.Printf("sweep expired %d hold(s)", n)
	}
}
