package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/devicelocator/internal/dashboard/store"
	"github.com/jonboulle/clockwork"
)

// DefaultHousekeepingInterval is used when no interval is configured.
const DefaultHousekeepingInterval = 10 * time.Minute

// HousekeepingService periodically purges expired sessions, taking their
// tokens with them.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Clock    clockwork.Clock

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, DefaultHousekeepingInterval is used.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration, clock clockwork.Clock) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		Clock:    clock,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. It is non-blocking; call Stop to
// shut the worker down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker and waits for an in-progress cleanup to finish.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := s.Clock.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.Chan():
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	if _, err := s.RunOnce(context.Background()); err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
	}
}

// RunOnce deletes every session that has expired by now.
func (s *HousekeepingService) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.Store.Sessions().DeleteExpiredSessions(ctx, s.Clock.Now())
	if err != nil {
		return 0, err
	}
	s.Logger.Debug("housekeeping cleanup completed", "expired_sessions", n)
	return n, nil
}
