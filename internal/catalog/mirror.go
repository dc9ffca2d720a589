package catalog

import (
	"strings"
	"sync/atomic"
)

// mirrorSet is an immutable list of interchangeable base URLs plus the
// index of the first one not known to be dead. The index only moves
// forward.
type mirrorSet struct {
	urls    []string
	current atomic.Int32
}

func newMirrorSet(urls []string) *mirrorSet {
	cp := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			cp = append(cp, strings.TrimRight(u, "/"))
		}
	}
	return &mirrorSet{urls: cp}
}

func (m *mirrorSet) len() int { return len(m.urls) }

// cursor is the starting mirror for a new call.
func (m *mirrorSet) cursor() int { return int(m.current.Load()) }

// last reports whether i is the final mirror.
func (m *mirrorSet) last(i int) bool { return i >= len(m.urls)-1 }

// advance marks every mirror before next as dead.
func (m *mirrorSet) advance(next int) {
	if next >= len(m.urls) {
		next = len(m.urls) - 1
	}
	for {
		cur := m.current.Load()
		if int32(next) <= cur {
			return
		}
		if m.current.CompareAndSwap(cur, int32(next)) {
			return
		}
	}
}

// url joins mirror i with path and an encoded query.
func (m *mirrorSet) url(i int, path, query string) string {
	u := m.urls[i] + "/" + strings.TrimLeft(path, "/")
	if query != "" {
		u += "?" + query
	}
	return u
}

func (m *mirrorSet) list() []string {
	return append([]string(nil), m.urls...)
}
