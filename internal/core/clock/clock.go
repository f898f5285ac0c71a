package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending callback that can be revoked.
type Timer interface {
	Stop() bool
}

// Clock provides the wall-clock reads and deferred callbacks used by the
// countdown and the particle scheduler.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// System is the Clock backed by the time package.
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Fake is a manually advanced Clock. Callbacks run synchronously inside
// Advance, in deadline order, with Now reporting their deadline.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *Fake
	when  time.Time
	seq   uint64
	fn    func()
	done  bool
}

// NewFake returns a Fake clock reading start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake wall-clock time.
func (fake *Fake) Now() time.Time {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.now
}

// AfterFunc registers f to run once the clock has advanced by d.
func (fake *Fake) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.seq++
	timer := &fakeTimer{clock: fake, when: fake.now.Add(d), seq: fake.seq, fn: f}
	fake.timers = append(fake.timers, timer)
	return timer
}

// Advance moves the clock forward by d, firing every timer that falls due,
// including timers armed by callbacks during the advance.
func (fake *Fake) Advance(d time.Duration) {
	fake.mu.Lock()
	target := fake.now.Add(d)
	fake.mu.Unlock()

	for {
		fake.mu.Lock()
		next := fake.nextDueLocked(target)
		if next == nil {
			fake.now = target
			fake.mu.Unlock()
			return
		}
		next.done = true
		if next.when.After(fake.now) {
			fake.now = next.when
		}
		fake.mu.Unlock()
		next.fn()
	}
}

// Pending reports how many timers are armed and not yet fired or stopped.
func (fake *Fake) Pending() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.compactLocked()
	return len(fake.timers)
}

func (fake *Fake) nextDueLocked(target time.Time) *fakeTimer {
	fake.compactLocked()
	if len(fake.timers) == 0 {
		return nil
	}
	sort.Slice(fake.timers, func(i, j int) bool {
		if fake.timers[i].when.Equal(fake.timers[j].when) {
			return fake.timers[i].seq < fake.timers[j].seq
		}
		return fake.timers[i].when.Before(fake.timers[j].when)
	})
	if fake.timers[0].when.After(target) {
		return nil
	}
	return fake.timers[0]
}

func (fake *Fake) compactLocked() {
	live := fake.timers[:0]
	for _, timer := range fake.timers {
		if !timer.done {
			live = append(live, timer)
		}
	}
	for i := len(live); i < len(fake.timers); i++ {
		fake.timers[i] = nil
	}
	fake.timers = live
}

func (timer *fakeTimer) Stop() bool {
	timer.clock.mu.Lock()
	defer timer.clock.mu.Unlock()
	if timer.done {
		return false
	}
	timer.done = true
	return true
}
