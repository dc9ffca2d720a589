// Package search fans a keyword query out to every catalog provider.
package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/shapedtime/catalogd/internal/catalog"
	"github.com/shapedtime/catalogd/internal/dispatch"
	"github.com/shapedtime/catalogd/internal/filter"
	"github.com/shapedtime/catalogd/internal/media"
)

const (
	DefaultDelay          = 300 * time.Millisecond
	DefaultMinQueryLength = 3
)

// Group is the result of one provider for one query.
type Group struct {
	Provider string        `json:"provider"`
	Label    string        `json:"label"`
	Items    []media.Media `json:"items"`
	Err      error         `json:"-"`
}

// Sink receives the groups of keystroke-driven queries. Clear is called
// when a new query is dispatched, before its first group.
type Sink interface {
	Clear()
	Group(g Group)
}

// Options configure an Aggregator. Zero values select defaults.
type Options struct {
	Delay          time.Duration
	MinQueryLength int
	Dispatcher     dispatch.Dispatcher
}

// Aggregator runs searches across providers. Query and Submit are the
// keystroke-driven entry points: a newer query supersedes and cancels the
// previous one.
type Aggregator struct {
	providers  []catalog.Provider
	sink       Sink
	delay      time.Duration
	minLength  int
	dispatcher dispatch.Dispatcher

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool

	// runs counts scheduled queries whose run has not returned.
	runs sync.WaitGroup

	log *slog.Logger
}

// New creates an aggregator over providers. sink may be nil if only
// Search is used.
func New(providers []catalog.Provider, sink Sink, opts Options) *Aggregator {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = DefaultMinQueryLength
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = dispatch.Inline{}
	}
	return &Aggregator{
		providers:  providers,
		sink:       sink,
		delay:      opts.Delay,
		minLength:  opts.MinQueryLength,
		dispatcher: opts.Dispatcher,
		log:        slog.With("component", "search"),
	}
}

// Search lists keywords on every provider concurrently. One group per
// provider is sent as soon as that provider answers, in no particular
// order; the channel is closed when all have answered. Cancelling ctx
// cancels the remaining calls and stops further groups.
func (a *Aggregator) Search(ctx context.Context, keywords string) <-chan Group {
	out := make(chan Group, len(a.providers))
	f := filter.New().WithKeywords(keywords)

	var wg sync.WaitGroup
	for _, p := range a.providers {
		res := make(chan Group, 1)
		base := Group{Provider: p.Name(), Label: p.Label()}

		h := p.List(nil, f, catalog.CallbackFuncs{
			Success: func(_ filter.Filters, items []media.Media, _ bool) {
				g := base
				g.Items = items
				res <- g
			},
			Failure: func(err error) {
				g := base
				g.Err = err
				res <- g
			},
		})

		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-h.Done():
			case <-ctx.Done():
				h.Cancel()
				return
			}
			select {
			case g := <-res:
				select {
				case out <- g:
				case <-ctx.Done():
				}
			default:
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Query schedules text after the debounce delay. Texts not longer than the
// minimum length only cancel the pending query.
func (a *Aggregator) Query(text string) {
	a.schedule(text, false)
}

// Submit dispatches text at once, whatever its length.
func (a *Aggregator) Submit(text string) {
	a.schedule(text, true)
}

func (a *Aggregator) schedule(text string, now bool) {
	text = strings.TrimSpace(text)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.supersedeLocked()

	if text == "" || (!now && utf8.RuneCountInString(text) <= a.minLength) {
		return
	}

	gen := a.gen
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	delay := a.delay
	if now {
		delay = 0
	}
	a.runs.Add(1)
	a.timer = time.AfterFunc(delay, func() {
		defer a.runs.Done()
		a.run(ctx, gen, text)
	})
}

// Wait blocks until every scheduled query has either been superseded or
// finished dispatching its groups. It must not be called concurrently
// with Query or Submit.
func (a *Aggregator) Wait() {
	a.runs.Wait()
}

// supersedeLocked invalidates the current query: its timer is stopped, its
// calls are cancelled and its pending deliveries are dropped.
func (a *Aggregator) supersedeLocked() {
	a.gen++
	if a.timer != nil {
		if a.timer.Stop() {
			a.runs.Done()
		}
		a.timer = nil
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

func (a *Aggregator) run(ctx context.Context, gen uint64, text string) {
	if ctx.Err() != nil {
		return
	}
	a.log.Debug("Dispatching query", "keywords", text)

	a.deliver(gen, func() {
		if a.sink != nil {
			a.sink.Clear()
		}
	})
	for g := range a.Search(ctx, text) {
		if g.Err != nil {
			a.log.Debug("Provider failed", "provider", g.Provider, "error", g.Err)
		}
		a.deliver(gen, func() {
			if a.sink != nil {
				a.sink.Group(g)
			}
		})
	}
}

// deliver runs fn through the dispatcher if gen is still the current
// query when it gets there.
func (a *Aggregator) deliver(gen uint64, fn func()) {
	a.dispatcher.Dispatch(func() {
		a.mu.Lock()
		current := a.gen == gen && !a.closed
		a.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Close cancels the pending query and ignores later ones.
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.supersedeLocked()
	a.closed = true
}
