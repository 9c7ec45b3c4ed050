package helper

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

type HoldReclaimer interface {
	ReclaimExpired(ctx context.Context) (int, error)
}

// HoldSweeper periodically returns expired holds to inventory.
type HoldSweeper struct {
	reclaimer HoldReclaimer
	log       *zap.Logger
	scheduler gocron.Scheduler
}

func NewHoldSweeper(reclaimer HoldReclaimer, log *zap.Logger) *HoldSweeper {
	return &HoldSweeper{reclaimer: reclaimer, log: log}
}

// Start schedules the sweep every interval. A run that overlaps the previous
// one is skipped.
func (s *HoldSweeper) Start(interval time.Duration, loc *time.Location) error {
	sched, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.RunOnce),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}
	s.scheduler = sched
	sched.Start()
	s.log.Info("hold sweeper started", zap.Duration("interval", interval))
	return nil
}

func (s *HoldSweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.reclaimer.ReclaimExpired(ctx)
	if err != nil {
		s.log.Error("hold sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("expired holds reclaimed", zap.Int("count", n))
	}
}

func (s *HoldSweeper) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}
