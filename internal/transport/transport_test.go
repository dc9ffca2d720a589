package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "catalogd-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "yes", r.Header.Get("X-Extra"))
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(time.Second, "catalogd-test")
	hdr := http.Header{}
	hdr.Set("X-Extra", "yes")

	resp, err := c.Do(context.Background(), Request{URL: srv.URL + "/movies/1", Header: hdr})
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.Equal(t, "[]", string(resp.Body))

	resp, err = c.Do(context.Background(), Request{URL: srv.URL + "/missing", Header: hdr})
	require.NoError(t, err)
	require.False(t, resp.OK())
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClientDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(time.Second, "").Do(context.Background(), Request{URL: url})
	require.Error(t, err)
}

func TestClientRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	c := NewClient(time.Second, "")
	c.maxBody = 64
	resp, err := c.Do(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	require.Len(t, resp.Body, 64)

	c.maxBody = 63
	_, err = c.Do(context.Background(), Request{URL: srv.URL})
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestCallsCancelByTag(t *testing.T) {
	calls := NewCalls()

	a, releaseA := calls.Track(context.Background(), "movies")
	defer releaseA()
	b, releaseB := calls.Track(context.Background(), "movies")
	defer releaseB()
	other, releaseOther := calls.Track(context.Background(), "shows")
	defer releaseOther()

	require.Equal(t, 2, calls.InFlight("movies"))
	require.Equal(t, 2, calls.Cancel("movies"))

	require.Error(t, a.Err())
	require.Error(t, b.Err())
	require.NoError(t, other.Err())
	require.Equal(t, 0, calls.Cancel("movies"))
	require.Equal(t, 0, calls.Cancel("unknown"))
}

func TestCallsReleaseForgets(t *testing.T) {
	calls := NewCalls()
	ctx, release := calls.Track(context.Background(), "yts")
	release()
	release()

	require.Error(t, ctx.Err())
	require.Equal(t, 0, calls.InFlight("yts"))
}

type countingDoer struct {
	hits   atomic.Int32
	status int
	body   string
}

func (d *countingDoer) Do(context.Context, Request) (*Response, error) {
	d.hits.Add(1)
	return &Response{StatusCode: d.status, Body: []byte(d.body)}, nil
}

func TestCacheStoresSuccessfulBodies(t *testing.T) {
	next := &countingDoer{status: 200, body: `[{"_id":"tt1"}]`}
	cache, err := NewCache(next, time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	req := Request{URL: "https://mirror.example/movies/1?limit=30"}
	first, err := cache.Do(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := cache.Do(context.Background(), req)
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, first.Body, second.Body)
	require.EqualValues(t, 1, next.hits.Load())

	require.NoError(t, cache.Purge())
	_, err = cache.Do(context.Background(), req)
	require.NoError(t, err)
	require.EqualValues(t, 2, next.hits.Load())
}

func TestCacheSkipsFailuresAndBlankBodies(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", 500, "oops"},
		{"blank body", 200, "  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &countingDoer{status: tt.status, body: tt.body}
			cache, err := NewCache(next, time.Minute)
			require.NoError(t, err)
			defer cache.Close()

			req := Request{URL: "https://mirror.example/x"}
			for i := 0; i < 2; i++ {
				resp, err := cache.Do(context.Background(), req)
				require.NoError(t, err)
				require.False(t, resp.Cached)
			}
			require.EqualValues(t, 2, next.hits.Load())
		})
	}
}

func TestCacheHonoursCancelledContext(t *testing.T) {
	next := &countingDoer{status: 200, body: "[]"}
	cache, err := NewCache(next, time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cache.Do(ctx, Request{URL: "https://mirror.example/x"})
	require.ErrorIs(t, err, context.Canceled)
	require.EqualValues(t, 0, next.hits.Load())
}
