package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type signalingChecker struct {
	subscribed bool
	err        error
	called     chan struct{}
}

func (c *signalingChecker) IsSubscribed(context.Context) (bool, error) {
	select {
	case c.called <- struct{}{}:
	default:
	}
	return c.subscribed, c.err
}

func TestSchedulerChecksImmediately(t *testing.T) {
	checker := &signalingChecker{subscribed: true, called: make(chan struct{}, 1)}
	s := New(checker, time.Hour, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case <-checker.called:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription check did not run")
	}
}

type countingChecker struct {
	calls atomic.Int32
}

func (c *countingChecker) IsSubscribed(context.Context) (bool, error) {
	c.calls.Add(1)
	return true, nil
}

func TestSchedulerHonorsIntervalBelowOneMinute(t *testing.T) {
	checker := &countingChecker{}
	s := New(checker, time.Second, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool { return checker.calls.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)
}

func TestSchedulerCheckToleratesErrors(t *testing.T) {
	checker := &signalingChecker{err: errors.New("circuit breaker open"), called: make(chan struct{}, 1)}
	New(checker, 0, nil).check()
	<-checker.called
}

const gaugeHeader = `
# HELP activity_weather_webhook_subscription_active 1 when the upstream push subscription exists, 0 otherwise.
# TYPE activity_weather_webhook_subscription_active gauge
`

func TestSchedulerCheckSetsGauge(t *testing.T) {
	New(&signalingChecker{subscribed: true, called: make(chan struct{}, 1)}, 0, nil).check()
	require.NoError(t, testutil.GatherAndCompare(prometheus.DefaultGatherer,
		strings.NewReader(gaugeHeader+"activity_weather_webhook_subscription_active 1\n"),
		"activity_weather_webhook_subscription_active"))

	New(&signalingChecker{subscribed: false, called: make(chan struct{}, 1)}, 0, nil).check()
	require.NoError(t, testutil.GatherAndCompare(prometheus.DefaultGatherer,
		strings.NewReader(gaugeHeader+"activity_weather_webhook_subscription_active 0\n"),
		"activity_weather_webhook_subscription_active"))
}
