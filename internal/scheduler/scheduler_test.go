package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTask struct {
	calls    atomic.Int32
	failNext bool
}

func (c *countingTask) Trigger(ctx context.Context) error {
	c.calls.Add(1)
	if c.failNext {
		return fmt.Errorf("boom")
	}
	return nil
}

func TestTriggerRunsImmediately(t *testing.T) {
	s := New(nil, time.Hour)
	task := &countingTask{}
	s.Register("wanted_scan", task, time.Hour)

	require.NoError(t, s.Trigger(context.Background(), "wanted_scan"))
	assert.Equal(t, int32(1), task.calls.Load())
}

func TestTriggerUnknownTaskErrors(t *testing.T) {
	s := New(nil, time.Hour)
	err := s.Trigger(context.Background(), "does_not_exist")
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestScheduledRunRespectsInterval(t *testing.T) {
	s := New(nil, 10*time.Millisecond)
	task := &countingTask{}
	s.Register("dedup_scan", task, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	defer func() {
		cancel()
		s.Stop(context.Background())
	}()

	require.Eventually(t, func() bool { return task.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	firstCount := task.calls.Load()

	time.Sleep(50 * time.Millisecond)
	assert.Greater(t, task.calls.Load(), firstCount, "the task must run again once its interval elapses")
}

func TestTaskStateReflectsLastError(t *testing.T) {
	s := New(nil, time.Hour)
	task := &countingTask{failNext: true}
	s.Register("health_batch", task, time.Hour)

	err := s.Trigger(context.Background(), "health_batch")
	assert.Error(t, err)

	states := s.States()
	require.Len(t, states, 1)
	assert.Equal(t, "health_batch", states[0].Name)
	assert.NotEmpty(t, states[0].LastError)
}
