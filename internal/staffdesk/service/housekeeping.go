package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/seobrand/staffdesk/internal/staffdesk/store"
)

// Housekeeping periodically deletes expired pending invitations so the
// table does not grow without bound. Correctness never depends on it:
// token lookups filter on expiry themselves.
type Housekeeping struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeeping creates the sweeper. If interval is 0 or negative it
// defaults to 1 hour.
func NewHousekeeping(st store.Store, logger *slog.Logger, interval time.Duration) *Housekeeping {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &Housekeeping{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut
// it down.
func (s *Housekeeping) Start() {
	go s.run()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop shuts the worker down and blocks until any in-progress sweep
// finishes.
func (s *Housekeeping) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping stopped")
}

func (s *Housekeeping) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Housekeeping) sweep() {
	ctx := context.Background()

	if err := s.Store.Invitations().DeleteExpiredInvitations(ctx); err != nil {
		s.Logger.Error("failed to delete expired invitations", "error", err)
		return
	}
	s.Logger.Debug("expired invitations deleted")
}
