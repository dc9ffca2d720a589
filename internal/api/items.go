package api

import (
	"sync"

	"github.com/shapedtime/catalogd/internal/media"
)

const defaultSeenItems = 2048

// itemCache remembers items served by list, detail and search so detail
// and capability routes can start from the full item.
type itemCache struct {
	mu    sync.Mutex
	max   int
	items map[string]media.Media
}

func newItemCache(n int) *itemCache {
	return &itemCache{max: n, items: make(map[string]media.Media)}
}

func itemKey(provider, id string) string { return provider + "/" + id }

func (c *itemCache) put(provider string, items ...media.Media) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range items {
		if len(c.items) >= c.max {
			c.items = make(map[string]media.Media)
		}
		c.items[itemKey(provider, m.Base().VideoID)] = m
	}
}

func (c *itemCache) get(provider, id string) (media.Media, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.items[itemKey(provider, id)]
	return m, ok
}

// itemResponse tags an item with its variant.
type itemResponse struct {
	Kind media.Kind  `json:"kind"`
	Item media.Media `json:"item"`
}

func present(items []media.Media) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, m := range items {
		out = append(out, itemResponse{Kind: m.Kind(), Item: m})
	}
	return out
}
