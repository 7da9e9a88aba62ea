package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/jellyshelf/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls  atomic.Int32
	maxAge atomic.Int64
	result domain.SweepResult
	err    error
}

func (s *fakeSweeper) Sweep(ctx context.Context, maxAge time.Duration) (domain.SweepResult, error) {
	s.calls.Add(1)
	s.maxAge.Store(int64(maxAge))
	return s.result, s.err
}

func TestJanitorSweepOnce(t *testing.T) {
	metrics := &countingMetrics{}
	sweeper := &fakeSweeper{result: domain.SweepResult{Checked: 10, Expired: 2, Unreadable: 1}}
	j := NewJanitor(sweeper, 0, 0, metrics, nil)

	res := j.SweepOnce(context.Background())
	assert.Equal(t, 3, res.Removed())
	assert.Equal(t, int32(3), metrics.swept.Load())
	assert.Equal(t, int64(DefaultRetention), sweeper.maxAge.Load())
}

func TestJanitorSweepOnceNothingRemoved(t *testing.T) {
	metrics := &countingMetrics{}
	sweeper := &fakeSweeper{result: domain.SweepResult{Checked: 4}}
	j := NewJanitor(sweeper, time.Hour, 0, metrics, nil)

	j.SweepOnce(context.Background())
	assert.Equal(t, int32(0), metrics.swept.Load())
	assert.Equal(t, int64(time.Hour), sweeper.maxAge.Load())
}

func TestJanitorSweepErrorIsSwallowed(t *testing.T) {
	sweeper := &fakeSweeper{
		result: domain.SweepResult{Checked: 1, Unreadable: 1},
		err:    errors.New("disk gone"),
	}
	j := NewJanitor(sweeper, 0, 0, nil, nil)

	res := j.SweepOnce(context.Background())
	assert.Equal(t, 1, res.Removed())
}

func TestJanitorRunStopsOnCancel(t *testing.T) {
	sweeper := &fakeSweeper{}
	j := NewJanitor(sweeper, 0, 10*time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
