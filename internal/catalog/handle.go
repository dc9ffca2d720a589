package catalog

import (
	"sync"
	"sync/atomic"

	"github.com/shapedtime/catalogd/internal/dispatch"
	"github.com/shapedtime/catalogd/internal/filter"
	"github.com/shapedtime/catalogd/internal/media"
)

// Callback receives the outcome of a List or Detail call. Exactly one
// method is invoked per call, and none if the call was cancelled.
type Callback interface {
	OnSuccess(f filter.Filters, items []media.Media, changed bool)
	OnFailure(err error)
}

// CallbackFuncs adapts a pair of functions to Callback. Nil functions are
// skipped.
type CallbackFuncs struct {
	Success func(f filter.Filters, items []media.Media, changed bool)
	Failure func(err error)
}

func (c CallbackFuncs) OnSuccess(f filter.Filters, items []media.Media, changed bool) {
	if c.Success != nil {
		c.Success(f, items, changed)
	}
}

func (c CallbackFuncs) OnFailure(err error) {
	if c.Failure != nil {
		c.Failure(err)
	}
}

const (
	statePending int32 = iota
	stateDelivered
	stateCancelled
)

// Handle controls one in-flight call.
type Handle struct {
	state  atomic.Int32
	cancel func()
	done   chan struct{}
	once   sync.Once
}

func newHandle(cancel func()) *Handle {
	return &Handle{cancel: cancel, done: make(chan struct{})}
}

// Cancel stops the call. If its callback has not been delivered yet it
// never will be. Cancelling a finished call does nothing.
func (h *Handle) Cancel() {
	h.state.CompareAndSwap(statePending, stateCancelled)
	if h.cancel != nil {
		h.cancel()
	}
}

// Cancelled reports whether the call was cancelled before delivery.
func (h *Handle) Cancelled() bool {
	return h.state.Load() == stateCancelled
}

// Done is closed once the call has finished and its callback, if any,
// has returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until Done is closed.
func (h *Handle) Wait() { <-h.done }

func (h *Handle) finish() {
	h.once.Do(func() { close(h.done) })
}

// deliver runs fn through d unless the call is cancelled first. The
// pending-to-delivered transition happens inside the dispatched function
// so a Cancel issued from the presentation context always wins over a
// callback still waiting in its queue. A dispatcher that refuses fn
// finishes the call without a callback.
func (h *Handle) deliver(d dispatch.Dispatcher, fn func()) {
	accepted := d.Dispatch(func() {
		defer h.finish()
		if h.state.CompareAndSwap(statePending, stateDelivered) {
			fn()
		}
	})
	if !accepted {
		h.finish()
	}
}
