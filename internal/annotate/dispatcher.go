package annotate

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/activity-weather/internal/auth"
)

// DefaultTimeout bounds one annotation attempt.
const DefaultTimeout = time.Minute

var ErrDispatcherClosed = errors.New("dispatcher is shut down")

// Runner is the unit of work a Dispatcher runs per delivery.
type Runner interface {
	Annotate(ctx context.Context, userID, activityID int64) (Outcome, error)
}

// Dispatcher runs each delivery in its own goroutine so a stalled upstream
// call for one activity never holds up another.
type Dispatcher struct {
	runner  Runner
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(runner Runner, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{runner: runner, timeout: timeout, logger: logger}
}

// Dispatch schedules an annotation and returns immediately.
func (d *Dispatcher) Dispatch(userID, activityID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if _, err := d.runner.Annotate(ctx, userID, activityID); err != nil {
			level := zap.ErrorLevel
			// Deliveries for athletes who never finished onboarding are expected.
			if errors.Is(err, auth.ErrNoCredentials) {
				level = zap.WarnLevel
			}
			d.logger.Log(level, "annotation failed",
				zap.Int64("athlete_id", userID),
				zap.Int64("activity_id", activityID),
				zap.Error(err),
			)
		}
	}()
	return nil
}

// Shutdown stops accepting work and waits for in-flight annotations or ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
