// Package worker provides an interruptible periodic worker: a single
// dedicated goroutine that runs a caller-supplied tick function once per
// interval, with shutdown that interrupts an in-progress wait instead of
// riding it out.
package worker

import (
	"fmt"
	"sync"
	"time"

	"github.com/mattiasbax/librealsense/pkg/logger"
)

// TickFunc is invoked once per completed (non-cancelled) wait interval.
// The timer handle allows the tick body to perform further interruptible
// waits of its own; most ticks ignore it.
type TickFunc func(timer *CancellableTimer)

// CancellableTimer is the cancellable wait primitive handed to tick
// functions. It is bound to one run of the worker; cancellation is the
// worker's stop signal.
type CancellableTimer struct {
	cancel <-chan struct{}
}

// TrySleep blocks for d or until the worker is stopped. It returns true
// if the full duration elapsed and false if the wait was cancelled.
// Callers must skip all tick work on a false return.
func (t *CancellableTimer) TrySleep(d time.Duration) bool {
	// A pending cancellation wins even if the duration is zero.
	select {
	case <-t.cancel:
		return false
	default:
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-t.cancel:
		return false
	}
}

// Worker owns one background goroutine running the tick loop. Start and
// Stop are idempotent and safe for concurrent use; the state transition
// and the spawn/join decision are guarded by a single mutex so concurrent
// callers cannot double-spawn or double-join.
type Worker struct {
	interval time.Duration
	tick     TickFunc
	log      logger.Logger

	mu       sync.Mutex
	running  bool
	stopping bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a stopped worker that will invoke tick once per interval.
func New(interval time.Duration, tick TickFunc) (*Worker, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", interval)
	}
	if tick == nil {
		return nil, fmt.Errorf("tick function cannot be nil")
	}
	return &Worker{interval: interval, tick: tick}, nil
}

// SetLogger sets an optional logger. If none is set, the worker is silent.
func (w *Worker) SetLogger(l logger.Logger) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.log = l
}

// IsActive reports whether the worker goroutine is currently running.
// This is a coarse status flag; callers needing atomic start/stop-versus-
// query semantics must serialize externally.
func (w *Worker) IsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Interval returns the fixed wait between ticks.
func (w *Worker) Interval() time.Duration {
	return w.interval
}

// Start spawns the worker goroutine and begins the tick loop. No-op if
// the worker is already active.
func (w *Worker) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}

	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true
	go w.run(w.stopCh, w.doneCh)
	w.mu.Unlock()

	// Log after releasing the lock; the logger may be arbitrarily slow.
	w.debugf("periodic worker started, interval %v", w.interval)
}

// Stop cancels an in-progress wait, waits for the goroutine to finish its
// current tick and exit, then marks the worker inactive. No-op if the
// worker is not active. Stop must not be called from the tick goroutine;
// doing so deadlocks on the join.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	doneCh := w.doneCh
	if !w.stopping {
		w.stopping = true
		close(w.stopCh)
	}
	w.mu.Unlock()

	<-doneCh

	w.mu.Lock()
	// A concurrent Stop may have already finished this generation and a
	// new Start may have spawned a fresh worker; only the matching
	// generation clears the flags.
	if w.doneCh == doneCh {
		w.running = false
		w.stopping = false
	}
	w.mu.Unlock()

	w.debugf("periodic worker stopped")
}

// run is the worker goroutine body. Each iteration waits one interval,
// then executes the tick; a cancelled wait exits the loop without running
// any tick work.
func (w *Worker) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	timer := &CancellableTimer{cancel: stopCh}
	for {
		if !timer.TrySleep(w.interval) {
			return
		}
		w.tick(timer)
	}
}

func (w *Worker) debugf(format string, args ...interface{}) {
	w.mu.Lock()
	l := w.log
	w.mu.Unlock()

	if l != nil {
		l.Debugf(format, args...)
	}
}
