package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/shapedtime/catalogd/internal/filter"
	"github.com/shapedtime/catalogd/internal/media"
	"github.com/shapedtime/catalogd/internal/normalize"
	"github.com/shapedtime/catalogd/internal/transport"
)

// CallTag prefixes the cancellation tag of every provider call.
const CallTag = "media_http_call"

// definition is the static description of one catalog source.
type definition struct {
	name    string
	label   string
	loading string

	table      filter.Table
	listPath   string // page is appended as a path segment when table.PageInPath
	detailPath string // empty: Detail reports the list item as is
	mirrors    []string

	nav    []NavInfo
	genres []Genre

	// pagePerSort makes the provider choose the page itself, counting
	// calls per sort token.
	pagePerSort bool

	normalizer func(caps media.Capabilities, skips normalize.SkipObserver) normalize.Normalizer
}

// Source is a Provider backed by a remote catalog API.
type Source struct {
	def     definition
	table   filter.Table
	mirrors *mirrorSet
	norm    normalize.Normalizer
	deps    Deps
	tag     string
	pages   *pageCounter
	log     *slog.Logger
}

var _ Provider = (*Source)(nil)

func newSource(def definition, opts Options, deps Deps) *Source {
	deps = deps.withDefaults()

	mirrors := opts.Mirrors
	if len(mirrors) == 0 {
		mirrors = def.mirrors
	}
	table := def.table
	if opts.Limit > 0 {
		table.Limit = opts.Limit
	}

	s := &Source{
		def:     def,
		table:   table,
		mirrors: newMirrorSet(mirrors),
		norm:    def.normalizer(deps.Capabilities, deps.Skips),
		deps:    deps,
		tag:     CallTag + ":" + def.name,
		log:     slog.With("component", "catalog", "provider", def.name),
	}
	if def.pagePerSort {
		s.pages = &pageCounter{pages: make(map[string]int)}
	}
	return s
}

func (s *Source) Name() string                { return s.def.name }
func (s *Source) Label() string               { return s.def.label }
func (s *Source) LoadingMessage() string      { return s.def.loading }
func (s *Source) DefaultNavigationIndex() int { return 1 }

func (s *Source) Navigation() []NavInfo {
	return append([]NavInfo(nil), s.def.nav...)
}

func (s *Source) Genres() []Genre {
	return append([]Genre(nil), s.def.genres...)
}

// Table returns the query table the provider compiles filters with.
func (s *Source) Table() filter.Table { return s.table }

// Mirrors returns the configured mirror base URLs in failover order.
func (s *Source) Mirrors() []string { return s.mirrors.list() }

// MirrorIndex returns the index of the mirror new calls start from.
func (s *Source) MirrorIndex() int { return s.mirrors.cursor() }

// CancelAll cancels every in-flight call of this provider.
func (s *Source) CancelAll() {
	if n := s.deps.Calls.Cancel(s.tag); n > 0 {
		s.log.Debug("Cancelled in-flight calls", "count", n)
	}
}

// List fetches the next page for f and appends it to a copy of existing.
// f is copied before the call returns.
func (s *Source) List(existing []media.Media, f filter.Filters, cb Callback) *Handle {
	snapshot := f.Clone()
	if s.pages != nil {
		snapshot = snapshot.WithPage(s.pages.next(s.table.SortToken(snapshot.Sort)))
	}

	path := s.def.listPath
	if s.table.PageInPath {
		path += "/" + strconv.Itoa(snapshot.PageOrDefault())
	}
	query := filter.Encode(filter.Compile(snapshot, s.table))

	before := len(existing)
	acc := make([]media.Media, before, before+s.table.Limit)
	copy(acc, existing)

	return s.run(func(ctx context.Context) (func(), error) {
		items, err := s.fetch(ctx, path, query, func(body []byte) ([]media.Media, error) {
			return s.norm.List(body, acc)
		})
		if err != nil {
			return nil, err
		}
		s.log.Debug("Fetched list", "page", snapshot.PageOrDefault(), "items", len(items)-before)
		return func() { cb.OnSuccess(snapshot, items, len(items) > before) }, nil
	}, cb)
}

// Detail fetches the full form of list[index]. The callback receives a
// single item; Replace swaps it into the caller's list.
func (s *Source) Detail(list []media.Media, index int, cb Callback) *Handle {
	if index < 0 || index >= len(list) {
		err := newError(EmptyResult, s.def.name, "", fmt.Errorf("index %d out of range (%d items)", index, len(list)))
		return s.run(func(context.Context) (func(), error) { return nil, err }, cb)
	}
	item := list[index]

	if s.def.detailPath == "" {
		return s.run(func(context.Context) (func(), error) {
			return func() { cb.OnSuccess(filter.New(), []media.Media{item}, true) }, nil
		}, cb)
	}

	path := s.def.detailPath + "/" + url.PathEscape(item.Base().VideoID)
	return s.run(func(ctx context.Context) (func(), error) {
		items, err := s.fetch(ctx, path, "", func(body []byte) ([]media.Media, error) {
			items, err := s.norm.Detail(body)
			if err == nil && len(items) == 0 {
				err = ErrEmptyResult
			}
			return items, err
		})
		if err != nil {
			return nil, err
		}
		return func() { cb.OnSuccess(filter.New(), items, true) }, nil
	}, cb)
}

// run executes call on the runner and routes its outcome to cb through the
// dispatcher. call returns the success delivery or an error.
func (s *Source) run(call func(ctx context.Context) (func(), error), cb Callback) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := newHandle(cancel)
	forget := s.deps.Calls.Register(s.tag, h.Cancel)

	s.deps.Runner.Go(ctx, func(ctx context.Context) {
		defer cancel()
		defer forget()

		success, err := call(ctx)
		if ctx.Err() != nil || h.Cancelled() {
			h.finish()
			return
		}
		if err != nil {
			s.log.Warn("Fetch failed", "error", err)
			h.deliver(s.deps.Dispatcher, func() { cb.OnFailure(err) })
			return
		}
		h.deliver(s.deps.Dispatcher, success)
	})
	return h
}

func (s *Source) fetch(ctx context.Context, path, query string, parse func([]byte) ([]media.Media, error)) ([]media.Media, error) {
	start := time.Now()
	items, err := s.fetchMirrors(ctx, path, query, parse)
	if s.deps.Observer != nil {
		kind := "ok"
		if k, ok := KindOf(err); ok {
			kind = k.String()
		}
		s.deps.Observer.Fetched(s.def.name, kind, time.Since(start))
	}
	return items, err
}

// fetchMirrors issues the request against one mirror at a time, starting
// from the provider's current mirror. The cursor is local to the call;
// the shared index only records that earlier mirrors failed.
func (s *Source) fetchMirrors(ctx context.Context, path, query string, parse func([]byte) ([]media.Media, error)) ([]media.Media, error) {
	if s.mirrors.len() == 0 {
		return nil, newError(TransportFailure, s.def.name, "", errors.New("no mirrors configured"))
	}

	cursor := s.mirrors.cursor()
	for {
		u := s.mirrors.url(cursor, path, query)
		if err := ctx.Err(); err != nil {
			return nil, newError(Cancelled, s.def.name, u, err)
		}

		resp, err := s.deps.Doer.Do(ctx, transport.Request{URL: u, Tag: s.tag})
		if err == nil && !resp.OK() {
			err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, newError(Cancelled, s.def.name, u, ctx.Err())
			}
			if s.mirrors.last(cursor) {
				return nil, newError(TransportFailure, s.def.name, u, err)
			}
			s.log.Warn("Mirror failed, trying next", "mirror", cursor, "url", u, "error", err)
			s.mirrors.advance(cursor + 1)
			if s.deps.Observer != nil {
				s.deps.Observer.FailedOver(s.def.name, cursor, cursor+1)
			}
			cursor++
			continue
		}

		if len(bytes.TrimSpace(resp.Body)) == 0 {
			return nil, newError(EmptyResponse, s.def.name, u, nil)
		}

		items, err := parse(resp.Body)
		if err != nil {
			if errors.Is(err, ErrEmptyResult) {
				return nil, newError(EmptyResult, s.def.name, u, nil)
			}
			return nil, newError(MalformedEnvelope, s.def.name, u, err)
		}
		return items, nil
	}
}

// pageCounter remembers the last page served per sort token. Counters
// live as long as the provider.
type pageCounter struct {
	mu    sync.Mutex
	pages map[string]int
}

func (p *pageCounter) next(sort string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages[sort]++
	return p.pages[sort]
}
