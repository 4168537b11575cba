package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/activity-weather/internal/observability"
)

// SubscriptionChecker reports whether the upstream push subscription exists.
type SubscriptionChecker interface {
	IsSubscribed(ctx context.Context) (bool, error)
}

// Scheduler periodically verifies that webhook deliveries are still
// subscribed and exports the result as a gauge.
type Scheduler struct {
	scheduler *gocron.Scheduler
	checker   SubscriptionChecker
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler.
func New(checker SubscriptionChecker, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		checker:   checker,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first check runs immediately.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = time.Hour
	}

	_, err := s.scheduler.Every(interval).Do(s.check)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) check() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	subscribed, err := s.checker.IsSubscribed(ctx)
	if err != nil {
		s.logger.Warn("subscription check failed", zap.Error(err))
		return
	}
	observability.SetSubscriptionActive(subscribed)
	if !subscribed {
		s.logger.Warn("push subscription is missing; webhook deliveries will not arrive")
		return
	}
	s.logger.Debug("push subscription active")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
