/*
scheduler.go - Automated hold expiry scheduler

PURPOSE:
  Periodically cancels pending reservations (holds) whose hold TTL has
  elapsed, so abandoned holds stop occupying inventory.

DESIGN:
  - Runs on a robfig/cron schedule (default "@every 1m")
  - Overlapping runs are skipped, never queued
  - Each pass calls booking.Service.ExpireHolds; cancellations are made by
    the "system" actor and bypass the guest cancellation cutoff
  - The last run is kept for GET /api/admin/hold-expiry

CONFIGURATION:
  - Spec: cron spec or descriptor (HOLD_EXPIRY_SPEC)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewHoldExpiryScheduler(svc, "@every 1m", log)
  if err := scheduler.Start(); err != nil { ... }
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerHoldExpiry endpoint (manual run)
  - booking/service.go: ExpireHolds
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/warp/lodging-engine/booking"
	"github.com/warp/lodging-engine/logger"
)

// HoldExpiryScheduler runs hold expiry on a cron schedule.
type HoldExpiryScheduler struct {
	Service *booking.Service
	Spec    string
	Enabled bool
	Log     logger.Logger

	cron    *cron.Cron
	mu      sync.Mutex
	lastRun *ExpiryRunDTO
}

// NewHoldExpiryScheduler creates a new scheduler.
func NewHoldExpiryScheduler(svc *booking.Service, spec string, log logger.Logger) *HoldExpiryScheduler {
	if log == nil {
		log = logger.Discard{}
	}
	return &HoldExpiryScheduler{
		Service: svc,
		Spec:    spec,
		Enabled: true,
		Log:     log,
	}
}

// Start registers the job and begins the scheduler. An invalid spec is
// reported before anything runs.
func (s *HoldExpiryScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Log.Info("Disabled, not starting")
		return nil
	}
	if s.cron != nil {
		return nil
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	if _, err := c.AddFunc(s.Spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return err
	}
	c.Start()
	s.cron = c

	s.Log.Info("Started with schedule: %s", s.Spec)
	return nil
}

// Stop stops the scheduler and waits for a running pass to finish.
func (s *HoldExpiryScheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
		s.Log.Info("Stopped")
	}
}

// RunOnce performs one expiry pass and records it as the last run.
func (s *HoldExpiryScheduler) RunOnce(ctx context.Context) ExpiryRunDTO {
	run := expireHolds(ctx, s.Service)
	if run.Error != "" {
		s.Log.Error("Hold expiry failed: %s", run.Error)
	} else if run.Expired > 0 {
		s.Log.Info("Expired %d hold(s)", run.Expired)
	} else {
		s.Log.Debug("No holds to expire")
	}

	s.mu.Lock()
	s.lastRun = &run
	s.mu.Unlock()
	return run
}

// LastRun returns a copy of the last recorded pass, or nil.
func (s *HoldExpiryScheduler) LastRun() *ExpiryRunDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun == nil {
		return nil
	}
	run := *s.lastRun
	return &run
}

func expireHolds(ctx context.Context, svc *booking.Service) ExpiryRunDTO {
	n, err := svc.ExpireHolds(ctx)
	run := ExpiryRunDTO{RanAt: time.Now().UTC().Format(time.RFC3339), Expired: n}
	if err != nil {
		run.Error = err.Error()
	}
	return run
}
