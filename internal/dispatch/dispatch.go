// Package dispatch delivers callbacks into the presentation context.
package dispatch

import (
	"log/slog"
	"sync"
)

// Dispatcher runs fn in the context callbacks are delivered on. Dispatch
// reports false when fn was not accepted and will never run.
type Dispatcher interface {
	Dispatch(fn func()) bool
}

// Inline runs callbacks on the calling goroutine.
type Inline struct{}

func (Inline) Dispatch(fn func()) bool {
	fn()
	return true
}

// Loop runs callbacks one at a time, in submission order, on a single
// goroutine. It is the "main" context of a headless presentation layer.
type Loop struct {
	queue chan func()
	done  chan struct{}

	mu     sync.RWMutex
	closed bool

	log *slog.Logger
}

// NewLoop starts a loop whose queue holds up to buffer pending callbacks
// before Dispatch blocks.
func NewLoop(buffer int) *Loop {
	if buffer < 1 {
		buffer = 1
	}
	l := &Loop{
		queue: make(chan func(), buffer),
		done:  make(chan struct{}),
		log:   slog.With("component", "dispatch-loop"),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for fn := range l.queue {
		l.call(fn)
	}
}

func (l *Loop) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("Callback panicked", "panic", r)
		}
	}()
	fn()
}

// Dispatch queues fn. Callbacks dispatched after Close are dropped and
// reported as not accepted.
func (l *Loop) Dispatch(fn func()) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.log.Debug("Dropping callback after close")
		return false
	}
	l.queue <- fn
	return true
}

// Sync blocks until every callback queued before it has run.
func (l *Loop) Sync() {
	ran := make(chan struct{})
	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		<-l.done
		return
	}
	l.queue <- func() { close(ran) }
	l.mu.RUnlock()
	<-ran
}

// Close stops accepting callbacks, runs the ones already queued and waits
// for the loop to exit. It is safe to call more than once.
func (l *Loop) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()
	<-l.done
}
