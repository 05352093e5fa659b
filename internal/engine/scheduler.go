package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/snkrtools/snkr-price-watch/internal/metrics"
	"github.com/snkrtools/snkr-price-watch/internal/store"
)

// Scheduler runs periodic maintenance tasks around the monitor, currently
// price history pruning. Price history is append-only and grows without
// bound otherwise.
type Scheduler struct {
	cron      *cron.Cron
	store     store.Store
	retention time.Duration
	log       *slog.Logger

	pruning atomic.Bool
}

// NewScheduler creates a Scheduler that prunes price history older than
// retention on every pruneInterval tick.
func NewScheduler(
	s store.Store,
	retention time.Duration,
	pruneInterval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New()

	sch := &Scheduler{
		cron:      c,
		store:     s,
		retention: retention,
		log:       log,
	}

	if _, err := c.AddFunc("@every "+pruneInterval.String(), sch.runPrune); err != nil {
		return nil, err
	}

	return sch, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("maintenance scheduler started", "retention", s.retention)
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("maintenance scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runPrune() {
	// A slow prune must not stack on top of the next tick.
	if !s.pruning.CompareAndSwap(false, true) {
		s.log.Warn("previous prune still running, skipping")
		return
	}
	defer s.pruning.Store(false)

	cutoff := time.Now().Add(-s.retention)
	deleted, err := s.store.PrunePriceHistory(context.Background(), cutoff)
	if err != nil {
		s.log.Error("pruning price history failed", "error", err)
		return
	}

	metrics.HistoryPrunedTotal.Add(float64(deleted))
	s.log.Info("pruned price history", "rows", deleted, "cutoff", cutoff)
}
