package transport

import (
	"context"
	"sync"
)

// Calls tracks in-flight calls by tag so every call sharing a tag can be
// cancelled at once. Safe for concurrent use.
type Calls struct {
	mu     sync.Mutex
	nextID uint64
	byTag  map[string]map[uint64]func()
}

// NewCalls creates an empty registry.
func NewCalls() *Calls {
	return &Calls{byTag: make(map[string]map[uint64]func())}
}

// Register files cancel under tag. The returned release function forgets
// it again; it does not call cancel.
func (c *Calls) Register(tag string, cancel func()) (release func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	calls, ok := c.byTag[tag]
	if !ok {
		calls = make(map[uint64]func())
		c.byTag[tag] = calls
	}
	calls[id] = cancel
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if calls, ok := c.byTag[tag]; ok {
			delete(calls, id)
			if len(calls) == 0 {
				delete(c.byTag, tag)
			}
		}
	}
}

// Track derives a cancellable context registered under tag. The returned
// release function must be called when the call finishes; it cancels the
// context and forgets it.
func (c *Calls) Track(parent context.Context, tag string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	forget := c.Register(tag, cancel)
	return ctx, func() {
		cancel()
		forget()
	}
}

// Cancel cancels every registered call under tag and returns how many
// there were. Cancelling an unknown tag is a no-op.
func (c *Calls) Cancel(tag string) int {
	c.mu.Lock()
	calls := c.byTag[tag]
	delete(c.byTag, tag)
	c.mu.Unlock()

	for _, cancel := range calls {
		cancel()
	}
	return len(calls)
}

// InFlight returns the number of registered calls under tag.
func (c *Calls) InFlight(tag string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byTag[tag])
}
