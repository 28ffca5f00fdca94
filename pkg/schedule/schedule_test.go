package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRunsAfterDelay(t *testing.T) {
	var task Task
	done := make(chan struct{})

	task.Schedule(10*time.Millisecond, func() { close(done) })
	assert.True(t, task.Pending())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	assert.False(t, task.Pending())
}

func TestTaskScheduleReplacesPending(t *testing.T) {
	var task Task
	var first, second atomic.Int32
	done := make(chan struct{})

	task.Schedule(20*time.Millisecond, func() { first.Add(1) })
	task.Schedule(20*time.Millisecond, func() {
		second.Add(1)
		close(done)
	})

	<-done
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestTaskCancel(t *testing.T) {
	var task Task
	var ran atomic.Bool

	task.Schedule(10*time.Millisecond, func() { ran.Store(true) })
	assert.True(t, task.Cancel())
	assert.False(t, task.Cancel())

	time.Sleep(30 * time.Millisecond)
	assert.False(t, ran.Load())
}

func TestTaskWaitBlocksUntilRunningFunctionReturns(t *testing.T) {
	var task Task
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	task.Schedule(time.Millisecond, func() {
		close(started)
		<-release
		finished.Store(true)
	})
	<-started
	assert.False(t, task.Cancel(), "a running function is no longer pending")

	waited := make(chan struct{})
	go func() {
		task.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned while the function was running")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return")
	}
	assert.True(t, finished.Load())
}

func TestTaskWaitWithNothingRunning(t *testing.T) {
	var task Task
	task.Wait()

	task.Schedule(time.Hour, func() {})
	task.Wait()
	assert.True(t, task.Cancel())
}

func TestRetrySucceedsOnLastAttempt(t *testing.T) {
	var failures []int
	err := Retry(context.Background(), 3, time.Millisecond, func(attempt int) error {
		if attempt < 3 {
			return errors.New("boom")
		}
		return nil
	}, func(attempt int, err error) {
		failures = append(failures, attempt)
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, failures)
}

func TestRetryReturnsLastError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func(attempt int) error {
		calls++
		return errors.New("attempt " + string(rune('0'+attempt)))
	}, nil)

	require.Error(t, err)
	assert.Equal(t, "attempt 3", err.Error())
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, time.Hour, func(attempt int) error {
		calls++
		cancel()
		return errors.New("boom")
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithTimeout(t *testing.T) {
	v, err := WithTimeout(context.Background(), time.Second, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	block := make(chan struct{})
	defer close(block)
	_, err = WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (string, error) {
		<-block
		return "late", nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
