package deposit

import (
	"context"
	"time"

	"gymdesk/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the weekly refill job on a cron schedule. The schedule
// may fire more often than weekly; the evaluator's weekday and cycle
// checks make extra runs no-ops.
type Scheduler struct {
	cron    *cron.Cron
	service Service
	spec    string
}

func NewScheduler(service Service, spec string, loc *time.Location) *Scheduler {
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)

	return &Scheduler{
		cron:    c,
		service: service,
		spec:    spec,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.run)
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("refill scheduler started", "schedule", s.spec)
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.service.RunWeeklyRefills(ctx, time.Now()); err != nil {
		logger.Error("weekly refill run failed", "error", err)
	}
}

// Stop stops scheduling new runs and returns a context that is done once
// any in-flight run finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
