// Package scheduler runs the periodic invitation expiry sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	timeout time.Duration
	log     *zap.SugaredLogger
}

// New schedules sweeper on spec (standard five-field cron or a descriptor such as
// "@every 1h"). An overlapping run is skipped rather than queued.
func New(spec string, sweeper Sweeper, log *zap.SugaredLogger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		sweeper: sweeper,
		timeout: time.Minute,
		log:     log,
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infow("expiry sweep scheduled", "next_run", s.cron.Entries()[0].Next)
}

// Stop waits for a running sweep to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	count, err := s.sweeper.SweepExpired(ctx)
	if err != nil {
		s.log.Errorw("expiry sweep failed", "error", err)
		return
	}
	if count > 0 {
		s.log.Infow("expired stale invitations", "count", count)
	}
}
