// Package scheduler runs the periodic job that stores the played status of
// games whose date has passed.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

type Sweeper interface {
	SweepPlayed(ctx context.Context) (int64, error)
}

type Scheduler struct {
	sched  gocron.Scheduler
	logger *zap.Logger
}

// Start schedules sweeper every interval, beginning right away.
func Start(interval time.Duration, sweeper Sweeper, logger *zap.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &Scheduler{sched: sched, logger: logger}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.sweep, sweeper),
		gocron.WithName("played-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule played sweep: %w", err)
	}

	sched.Start()
	logger.Info("played sweep scheduled", zap.Duration("interval", interval))
	return s, nil
}

func (s *Scheduler) sweep(sweeper Sweeper) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := sweeper.SweepPlayed(ctx)
	if err != nil {
		s.logger.Error("played sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("marked games as played", zap.Int64("count", n))
	}
}

// Shutdown stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
