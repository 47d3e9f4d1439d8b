package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/deafco/sonicsuite/internal/store"
)

// HousekeepingService periodically prunes the consumed-code ledger and
// abandoned token records so the database does not grow unbounded.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// CodeRetention is how long spent code fingerprints are kept.
	// Provider codes expire upstream within minutes, so a day is ample.
	CodeRetention time.Duration

	// TokenRetention is how long an un-refreshed token record may sit
	// before it is considered abandoned.
	TokenRetention time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. Zero durations
// fall back to one hour interval, 24h code retention and 90 days token
// retention.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:          st,
		Logger:         logger,
		Interval:       interval,
		CodeRetention:  24 * time.Hour,
		TokenRetention: 90 * 24 * time.Hour,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut
// it down gracefully.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker, blocking until any in-progress cleanup
// finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup performs the deletions. Each is independent; a failure in one
// does not stop the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	now := time.Now().UTC()

	if n, err := s.Store.ConsumedCodes().DeleteConsumedCodesBefore(ctx, now.Add(-s.CodeRetention)); err != nil {
		s.Logger.Error("failed to prune consumed codes", "error", err)
	} else if n > 0 {
		s.Logger.Debug("pruned consumed codes", "deleted", n)
	}

	if n, err := s.Store.Tokens().DeleteTokensStaleSince(ctx, now.Add(-s.TokenRetention)); err != nil {
		s.Logger.Error("failed to prune stale token records", "error", err)
	} else if n > 0 {
		s.Logger.Debug("pruned stale token records", "deleted", n)
	}
}
