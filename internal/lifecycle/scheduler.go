package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/northernpowerhouse/teamarr/internal/logging"
)

var log = logging.NewLogger("lifecycle")

// CycleFunc runs one full generation+lifecycle cycle.
type CycleFunc func(ctx context.Context) error

// Scheduler drives periodic generation cycles and an optional periodic
// channel-number reset, plus a manual-trigger entry point. Grounded on
// the cron-daily-job pattern used elsewhere in the pack (see
// DESIGN.md), adapted to an interval-based generation cycle plus a
// second independently cron-scheduled reset job.
type Scheduler struct {
	cron *cron.Cron
	run  CycleFunc

	mu       sync.Mutex
	running  bool
}

// NewScheduler builds a Scheduler that calls run on the configured
// interval. It does not start until Start is called.
func NewScheduler(run CycleFunc) *Scheduler {
	return &Scheduler{cron: cron.New(), run: run}
}

// Start registers the interval-based generation job and, if
// channelResetEnabled is true, channelResetCron is non-empty and resetFn
// is non-nil, the channel-reset job, then starts the
// cron engine. intervalMinutes <= 0 disables the periodic generation job
// (manual trigger only).
func (s *Scheduler) Start(intervalMinutes int, channelResetEnabled bool, channelResetCron string, resetFn CycleFunc) error {
	if intervalMinutes > 0 {
		spec := fmt.Sprintf("@every %dm", intervalMinutes)
		if _, err := s.cron.AddFunc(spec, func() { s.trigger(context.Background()) }); err != nil {
			return fmt.Errorf("schedule generation job: %w", err)
		}
	}
	if channelResetEnabled && channelResetCron != "" && resetFn != nil {
		if _, err := s.cron.AddFunc(channelResetCron, func() {
			if err := resetFn(context.Background()); err != nil {
				log.WithError(err).Error("scheduled channel reset failed")
			}
		}); err != nil {
			return fmt.Errorf("schedule channel reset job: %w", err)
		}
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron engine, waiting for any in-flight job to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

// Trigger runs one cycle immediately, outside the cron schedule — the
// manual-trigger entry point from spec §4.5.3. It no-ops (returning
// false) if a cycle is already running, rather than stacking concurrent
// cycles. It also returns false when the cycle returns an error.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	return s.trigger(ctx)
}

func (s *Scheduler) trigger(ctx context.Context) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Warn("cycle already running, skipping trigger")
		return false
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	if err := s.run(ctx); err != nil {
		log.WithError(err).Error("generation cycle failed")
		return false
	}
	log.WithField("duration", time.Since(start)).Info("generation cycle completed")
	return true
}
