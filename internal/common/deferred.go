package common

import (
	"sync"
	"time"
)

// Deferred is a task scheduled to run once after a delay, unless
// cancelled first. Used for the grace delays before channel teardown:
// if the same entity is torn down earlier by another path, the pending
// deletion has to be cancellable
type Deferred struct {
	timer *time.Timer
	mu    sync.Mutex
	done  bool
}

// RunAfter schedules the task and returns a handle to cancel it
func RunAfter(delay time.Duration, task func()) *Deferred {
	d := &Deferred{}
	d.timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.done {
			d.mu.Unlock()
			return
		}
		d.done = true
		d.mu.Unlock()
		task()
	})
	return d
}

// Cancel prevents the task from running. Reports whether the
// cancellation happened before the task started
func (d *Deferred) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done {
		return false
	}
	d.done = true
	d.timer.Stop()
	return true
}
