// Package scheduler wires the two recurring jobs onto wall-clock-aligned
// cron boundaries. A failed cycle is logged and absorbed; the loops never die.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"bingo-tracker/internal/config"
	"bingo-tracker/internal/services/bingo"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const cycleTimeout = 2 * time.Minute

type Scheduler struct {
	cron *cron.Cron
	log  *zap.SugaredLogger
}

func New(svc *bingo.Service, cfg *config.Config, log *zap.SugaredLogger) (*Scheduler, error) {
	// cron 的 */N 會對齊牆鐘刻度（xx:00、xx:05 …），而不是以啟動時間起算
	c := cron.New(cron.WithLocation(cfg.Location))

	if _, err := c.AddJob(fmt.Sprintf("*/%d * * * *", cfg.PollEveryMinutes), &pollLatestJob{svc: svc, log: log}); err != nil {
		return nil, fmt.Errorf("schedule latest poller: %w", err)
	}
	if _, err := c.AddJob(fmt.Sprintf("*/%d * * * *", cfg.BackfillEveryMinutes), &backfillJob{svc: svc, log: log}); err != nil {
		return nil, fmt.Errorf("schedule backfill: %w", err)
	}

	return &Scheduler{cron: c, log: log}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("schedulers started")
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

type pollLatestJob struct {
	svc *bingo.Service
	log *zap.SugaredLogger
}

func (j *pollLatestJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()
	if res := j.svc.PollOnce(ctx); !res.OK {
		j.log.Warnf("poll cycle failed: %s", res.Error)
	}
}

type backfillJob struct {
	svc *bingo.Service
	log *zap.SugaredLogger
}

func (j *backfillJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()
	res := j.svc.BackfillOnce(ctx)
	if !res.OK {
		j.log.Warnf("backfill cycle yielded nothing: %s", res.Error)
	}
}
