// internal/game/timer.go
package game

import "time"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Stopper cancels a scheduled callback. *time.Timer satisfies it.
type Stopper interface {
	Stop() bool
}

// Scheduler runs f on its own goroutine after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// phaseTimer is a room's single pending timer: the lobby countdown while waiting,
// the phase or round timeout afterwards. Every method assumes the session lock is held.
//
// Each schedule bumps the generation and the callback carries the generation it was
// scheduled under. A callback whose generation no longer matches was superseded by a
// cancel or a reschedule and must be dropped.
type phaseTimer struct {
	sched      Scheduler
	handle     Stopper
	generation uint64
	deadline   time.Time
}

// schedule cancels any pending timer, then arranges for fire(gen) to run after d.
func (t *phaseTimer) schedule(now time.Time, d time.Duration, fire func(gen uint64)) uint64 {
	t.cancel()
	gen := t.generation
	t.deadline = now.Add(d)
	t.handle = t.sched.AfterFunc(d, func() { fire(gen) })
	return gen
}

// cancel stops the pending timer, if any. Safe to call repeatedly.
func (t *phaseTimer) cancel() {
	if t.handle != nil {
		t.handle.Stop()
		t.handle = nil
	}
	t.generation++
	t.deadline = time.Time{}
}

// claim is called from a firing callback. It reports whether the fire is still current
// and, if so, clears the handle so the same fire can never be claimed twice.
func (t *phaseTimer) claim(gen uint64) bool {
	if t.handle == nil || gen != t.generation {
		return false
	}
	t.handle = nil
	t.deadline = time.Time{}
	return true
}

func (t *phaseTimer) active() bool {
	return t.handle != nil
}

// remaining is the time left before the pending timer fires, zero when none is pending.
func (t *phaseTimer) remaining(now time.Time) time.Duration {
	if t.handle == nil {
		return 0
	}
	if d := t.deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

// remainingSeconds rounds remaining up to whole seconds, for client countdowns.
func (t *phaseTimer) remainingSeconds(now time.Time) int {
	d := t.remaining(now)
	return int((d + time.Second - 1) / time.Second)
}
