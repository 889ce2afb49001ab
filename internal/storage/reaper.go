package storage

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

const defaultSweepSchedule = "@every 15m"

// Reaper periodically sweeps expired jobs out of a JobStore.
type Reaper struct {
	cron *cron.Cron
}

// StartReaper schedules Sweep(ttl) on schedule, runs one sweep immediately,
// and returns the running reaper. An invalid schedule is an error.
func (s *JobStore) StartReaper(schedule string, ttl time.Duration) (*Reaper, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("storage: reaper ttl must be positive")
	}
	if schedule == "" {
		schedule = defaultSweepSchedule
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { s.sweepAndLog("scheduled", ttl) }); err != nil {
		return nil, fmt.Errorf("storage: invalid cleanup schedule %q: %w", schedule, err)
	}
	c.Start()
	go s.sweepAndLog("startup", ttl)

	s.logger.Info().Str("schedule", schedule).Dur("ttl", ttl).Msg("storage: reaper started")
	return &Reaper{cron: c}, nil
}

func (s *JobStore) sweepAndLog(trigger string, ttl time.Duration) {
	count, err := s.Sweep(ttl)
	if err != nil {
		s.logger.Error().Err(err).Str("trigger", trigger).Msg("storage: sweep failed")
		return
	}
	if count > 0 {
		s.logger.Info().Int("removed", count).Str("trigger", trigger).Msg("storage: swept expired jobs")
	}
}

// Stop halts the schedule and waits for a running sweep to finish.
func (r *Reaper) Stop() {
	if r == nil || r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}
