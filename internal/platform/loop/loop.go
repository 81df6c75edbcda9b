// Package loop runs callbacks one at a time on a single goroutine
//
// State owned by the loop is only touched from posted callbacks, so it needs no
// locks. Blocking work runs via Go and posts its result back
package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"codefill/internal/platform/logger"
)

// Timer is a cancellable delayed callback
type Timer interface {
	// Stop prevents the callback from running; reports whether it was still pending
	Stop() bool
}

// Scheduler is what loop-owned components depend on
type Scheduler interface {
	// Post queues fn to run on the loop
	Post(fn func())
	// Go runs fn off the loop; ctx ends when the loop stops
	Go(fn func(ctx context.Context))
	// AfterFunc runs fn on the loop once d has elapsed, unless stopped first
	AfterFunc(d time.Duration, fn func()) Timer
	// Now is the loop's clock
	Now() time.Time
}

// Loop is the production Scheduler
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	stops  []func()
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	log *logger.Logger
	now func() time.Time
}

// New builds a Loop; it does nothing until Run
func New(log *logger.Logger) *Loop {
	if log == nil {
		log = logger.Named("loop")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
		now:    time.Now,
	}
}

// Post queues fn; safe from any goroutine and never blocks. Dropped once Run has returned
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Go runs fn on its own goroutine; Run waits for these before returning.
// Once Run is shutting down fn is not started
func (l *Loop) Go(fn func(ctx context.Context)) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.log.Debug().Msg("go after shutdown dropped")
		return
	}
	l.wg.Add(1)
	l.mu.Unlock()
	go func() {
		defer l.wg.Done()
		defer l.recover("go")
		fn(l.ctx)
	}()
}

// AfterFunc schedules fn on the loop after d
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &timer{}
	t.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.fire() {
				fn()
			}
		})
	})
	return t
}

// Now returns wall-clock time
func (l *Loop) Now() time.Time { return l.now() }

// OnStop registers fn to run on the loop once Run's ctx ends. Stop hooks run in
// registration order, and whatever they post is drained before Run returns
func (l *Loop) OnStop(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.stops = append(l.stops, fn)
	l.mu.Unlock()
}

// Run drains posted callbacks until ctx ends, then runs the stop hooks and the
// callbacks they queue. Anything posted after that is dropped
func (l *Loop) Run(ctx context.Context) error {
	defer l.shutdown()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		}
		for {
			fn := l.pop()
			if fn == nil {
				break
			}
			l.call(fn)
			if ctx.Err() != nil {
				return nil
			}
		}
	}
}

func (l *Loop) shutdown() {
	l.mu.Lock()
	stops := l.stops
	l.stops = nil
	l.mu.Unlock()
	for _, fn := range stops {
		l.call(fn)
	}
	for fn := l.pop(); fn != nil; fn = l.pop() {
		l.call(fn)
	}

	// no wg.Add can start once closed is set under mu
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.mu.Unlock()
	l.cancel()
	l.wg.Wait()
}

func (l *Loop) pop() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn
}

func (l *Loop) call(fn func()) {
	defer l.recover("post")
	fn()
}

func (l *Loop) recover(where string) {
	if r := recover(); r != nil {
		l.log.Error().Str("where", where).Interface("panic", r).Msg("loop callback panicked")
	}
}

// timer guards against the race between Stop and an already queued fire
type timer struct {
	t    *time.Timer
	done atomic.Bool
}

func (t *timer) fire() bool { return t.done.CompareAndSwap(false, true) }

func (t *timer) Stop() bool {
	if !t.done.CompareAndSwap(false, true) {
		return false
	}
	t.t.Stop()
	return true
}
