// Package authstate holds the process-wide "mailbox session present" flag
//
// The flag is set by a successful authentication, cleared on sign-out or when the
// mailbox rejects the session, and read at the point of use by every field watch
package authstate

import (
	"sync"
	"sync/atomic"
	"time"
)

// Flag is a concurrency safe presence flag with change notification
type Flag struct {
	present atomic.Bool
	mu      sync.Mutex
	changed time.Time
	subs    map[int]func(bool)
	next    int
}

// New returns a cleared Flag
func New() *Flag { return &Flag{} }

// Present reports whether a session is believed to exist
func (f *Flag) Present() bool { return f.present.Load() }

// Set marks the session present
func (f *Flag) Set() { f.store(true) }

// Clear marks the session absent
func (f *Flag) Clear() { f.store(false) }

// Changed returns when the flag last flipped (zero if never)
func (f *Flag) Changed() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.changed
}

// Subscribe calls fn with the new value on every flip and returns an unsubscribe func
func (f *Flag) Subscribe(fn func(present bool)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = make(map[int]func(bool))
	}
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *Flag) store(v bool) {
	if f.present.Swap(v) == v {
		return
	}
	f.mu.Lock()
	f.changed = now()
	fns := make([]func(bool), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

var now = time.Now
