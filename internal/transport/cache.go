package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// Cache is a Doer decorator that keeps successful, non-empty bodies in an
// in-memory Badger store for a fixed TTL.
type Cache struct {
	next Doer
	ttl  time.Duration
	db   *badger.DB
	log  *slog.Logger
}

// badgerLogger adapts slog for Badger's logger interface.
type badgerLogger struct {
	log *slog.Logger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.log.Warn(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

// NewCache wraps next with a response cache. Nothing is written to disk.
func NewCache(next Doer, ttl time.Duration) (*Cache, error) {
	log := slog.With("component", "response-cache")

	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(&badgerLogger{log: log})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	return &Cache{
		next: next,
		ttl:  ttl,
		db:   db,
		log:  log,
	}, nil
}

// Do serves req from the cache when possible, otherwise from the wrapped
// Doer, storing 2xx responses with a non-blank body.
func (c *Cache) Do(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := []byte(req.URL)

	if body, ok := c.get(key); ok {
		c.log.Debug("Cache hit", "url", req.URL)
		return &Response{StatusCode: 200, Body: body, Cached: true}, nil
	}

	resp, err := c.next.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.OK() && len(strings.TrimSpace(string(resp.Body))) > 0 {
		if err := c.put(key, resp.Body); err != nil {
			c.log.Warn("Failed to cache response", "url", req.URL, "error", err)
		}
	}
	return resp, nil
}

// Purge drops every cached response.
func (c *Cache) Purge() error {
	return c.db.DropAll()
}

// Close releases the store.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) get(key []byte) ([]byte, bool) {
	var body []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		body, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.log.Warn("Cache read failed", "error", err)
		}
		return nil, false
	}
	return body, true
}

func (c *Cache) put(key, body []byte) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, body).WithTTL(c.ttl))
	})
}
