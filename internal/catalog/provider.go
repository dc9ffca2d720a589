// Package catalog fetches media lists and details from remote catalog
// APIs, failing over between mirrors and delivering results through
// callbacks.
package catalog

import (
	"time"

	"github.com/shapedtime/catalogd/internal/dispatch"
	"github.com/shapedtime/catalogd/internal/filter"
	"github.com/shapedtime/catalogd/internal/media"
	"github.com/shapedtime/catalogd/internal/normalize"
	"github.com/shapedtime/catalogd/internal/transport"
)

// Provider turns filters into normalized media from one catalog source.
// List and Detail return immediately; the outcome is delivered to cb.
type Provider interface {
	Name() string
	Label() string
	LoadingMessage() string

	List(existing []media.Media, f filter.Filters, cb Callback) *Handle
	Detail(list []media.Media, index int, cb Callback) *Handle

	Navigation() []NavInfo
	DefaultNavigationIndex() int
	Genres() []Genre

	CancelAll()
}

// NavInfo is a sort tab: a sort and order a consumer can render as a
// shortcut. Slice order is display order.
type NavInfo struct {
	ID           string       `json:"id"`
	Sort         filter.Sort  `json:"sort"`
	DefaultOrder filter.Order `json:"default_order"`
	Label        string       `json:"label"`
	Icon         string       `json:"icon"`
}

// Genre is one entry of a provider's genre list. A nil Key means all
// genres.
type Genre struct {
	Key   *string `json:"key"`
	Label string  `json:"label"`
}

// Observer is told about every finished fetch and every mirror failover.
type Observer interface {
	Fetched(provider string, kind string, elapsed time.Duration)
	FailedOver(provider string, from, to int)
}

// Deps are the collaborators shared by providers. Zero fields get
// defaults in New*.
type Deps struct {
	Doer         transport.Doer
	Calls        *transport.Calls
	Runner       *Runner
	Dispatcher   dispatch.Dispatcher
	Capabilities media.Capabilities
	Observer     Observer
	Skips        normalize.SkipObserver
}

func (d Deps) withDefaults() Deps {
	if d.Doer == nil {
		d.Doer = transport.NewClient(0, "")
	}
	if d.Calls == nil {
		d.Calls = transport.NewCalls()
	}
	if d.Runner == nil {
		d.Runner = NewRunner(0)
	}
	if d.Dispatcher == nil {
		d.Dispatcher = dispatch.Inline{}
	}
	return d
}

// Options configure one provider instance.
type Options struct {
	// Mirrors are tried in order. Empty selects the provider's defaults.
	Mirrors []string
	// Limit overrides the default page size when positive.
	Limit int
}

// Replace returns a copy of list with the item at index swapped for item.
func Replace(list []media.Media, index int, item media.Media) []media.Media {
	out := append([]media.Media(nil), list...)
	if index >= 0 && index < len(out) {
		out[index] = item
	}
	return out
}

func stringPtr(s string) *string { return &s }
