// Package schedule provides small timing primitives shared by the favorites
// store and the module loader: a single-slot cancellable task, a fixed-delay
// retry loop and a context-aware sleep.
package schedule

import (
	"sync"
	"time"
)

// Task holds at most one pending scheduled function. Scheduling a new function
// cancels the previous one.
type Task struct {
	mu    sync.Mutex
	timer *time.Timer
	fn    func()
	// gen identifies the current pending function so a timer that already
	// fired but lost the race to Cancel does not run.
	gen uint64
	// running counts functions that have been taken and not yet returned.
	running int
	idle    *sync.Cond
}

// Schedule runs fn after d, replacing any pending function.
func (t *Task) Schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.fn = fn
	t.timer = time.AfterFunc(d, func() {
		if run := t.take(gen); run != nil {
			defer t.finish()
			run()
		}
	})
}

// Cancel drops the pending function. It reports whether one was pending.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fn == nil {
		return false
	}
	t.timer.Stop()
	t.reset()
	return true
}

// Pending reports whether a function is waiting to run.
func (t *Task) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fn != nil
}

// Wait blocks until every function that has started running returns. Combined
// with Cancel it guarantees no scheduled function is still in progress.
func (t *Task) Wait() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for t.running > 0 {
		t.cond().Wait()
	}
}

func (t *Task) cond() *sync.Cond {
	if t.idle == nil {
		t.idle = sync.NewCond(&t.mu)
	}
	return t.idle
}

func (t *Task) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running--
	if t.running == 0 {
		t.cond().Broadcast()
	}
}

func (t *Task) take(gen uint64) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen || t.fn == nil {
		return nil
	}
	fn := t.fn
	t.reset()
	t.running++
	return fn
}

func (t *Task) reset() {
	t.fn = nil
	t.timer = nil
	t.gen++
}
