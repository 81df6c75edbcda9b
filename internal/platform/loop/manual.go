package loop

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler driven by the caller: nothing runs until
// Drain, RunPosted, RunGo or Advance is called. Tests use it to step state machines
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	posted []func()
	goes   []func(context.Context)
	timers []*manualTimer
	seq    int
}

// NewManual returns a Manual whose clock starts at start
func NewManual(start time.Time) *Manual { return &Manual{now: start} }

// Post queues fn
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.posted = append(m.posted, fn)
	m.mu.Unlock()
}

// Go queues fn; it runs synchronously on RunGo or Drain
func (m *Manual) Go(fn func(ctx context.Context)) {
	m.mu.Lock()
	m.goes = append(m.goes, fn)
	m.mu.Unlock()
}

// AfterFunc registers fn to be posted when the clock passes now+d
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, at: m.now.Add(d), fn: fn, seq: m.seq}
	m.timers = append(m.timers, t)
	return t
}

// Now returns the virtual clock
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending reports queued posts, queued goroutines and armed timers
func (m *Manual) Pending() (posted, goes, timers int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posted), len(m.goes), len(m.timers)
}

// RunPosted runs posted callbacks, including ones they post, but not goroutines
func (m *Manual) RunPosted() {
	for {
		m.mu.Lock()
		if len(m.posted) == 0 {
			m.mu.Unlock()
			return
		}
		fn := m.posted[0]
		m.posted = m.posted[1:]
		m.mu.Unlock()
		fn()
	}
}

// RunGo runs the goroutines queued so far, once each
func (m *Manual) RunGo() {
	m.mu.Lock()
	goes := m.goes
	m.goes = nil
	m.mu.Unlock()
	for _, fn := range goes {
		fn(context.Background())
	}
}

// Drain runs posts and goroutines until both queues are empty
func (m *Manual) Drain() {
	for {
		m.RunPosted()
		m.mu.Lock()
		idle := len(m.goes) == 0 && len(m.posted) == 0
		m.mu.Unlock()
		if idle {
			return
		}
		m.RunGo()
	}
}

// Advance moves the clock forward by d, firing due timers in deadline order and
// draining after each one
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()
	m.Drain()
	for {
		m.mu.Lock()
		sort.SliceStable(m.timers, func(i, j int) bool {
			if m.timers[i].at.Equal(m.timers[j].at) {
				return m.timers[i].seq < m.timers[j].seq
			}
			return m.timers[i].at.Before(m.timers[j].at)
		})
		if len(m.timers) == 0 || m.timers[0].at.After(target) {
			m.now = target
			m.mu.Unlock()
			return
		}
		t := m.timers[0]
		m.timers = m.timers[1:]
		if t.at.After(m.now) {
			m.now = t.at
		}
		m.posted = append(m.posted, t.fn)
		m.mu.Unlock()
		m.Drain()
	}
}

type manualTimer struct {
	m   *Manual
	at  time.Time
	fn  func()
	seq int
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	for i, x := range t.m.timers {
		if x == t {
			t.m.timers = append(t.m.timers[:i], t.m.timers[i+1:]...)
			return true
		}
	}
	return false
}
