package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shapedtime/catalogd/internal/catalog"
	"github.com/shapedtime/catalogd/internal/dispatch"
	"github.com/shapedtime/catalogd/internal/transport"
)

const moviesBody = `[{"imdb_id": "tt0133093", "title": "The Matrix", "rating": {"percentage": 88}}]`
const showsBody = `[{"imdb_id": "tt0475784", "title": "Westworld"}]`

type mirror struct {
	*httptest.Server
	hits atomic.Int32

	mu       sync.Mutex
	keywords []string
}

func newMirror(t *testing.T, status int, body string) *mirror {
	t.Helper()
	m := &mirror{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.hits.Add(1)
		m.mu.Lock()
		m.keywords = append(m.keywords, r.URL.Query().Get("keywords"))
		m.mu.Unlock()
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mirror) seen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keywords...)
}

func providers(movies, shows string) []catalog.Provider {
	deps := catalog.Deps{
		Doer:       transport.NewClient(2*time.Second, ""),
		Dispatcher: dispatch.Inline{},
	}
	return []catalog.Provider{
		catalog.NewMovies(catalog.Options{Mirrors: []string{movies}}, deps),
		catalog.NewShows(catalog.Options{Mirrors: []string{shows}}, deps),
	}
}

type sink struct {
	mu     sync.Mutex
	clears int
	groups []Group
}

func (s *sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.groups = nil
}

func (s *sink) Group(g Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, g)
}

func (s *sink) snapshot() (int, []Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears, append([]Group(nil), s.groups...)
}

func TestSearchFansOut(t *testing.T) {
	movies := newMirror(t, http.StatusOK, moviesBody)
	shows := newMirror(t, http.StatusOK, showsBody)
	agg := New(providers(movies.URL, shows.URL), nil, Options{})

	var groups []Group
	for g := range agg.Search(context.Background(), "matrix") {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Provider < groups[j].Provider })

	require.Len(t, groups, 2)
	require.Equal(t, catalog.Movies, groups[0].Provider)
	require.Len(t, groups[0].Items, 1)
	require.Equal(t, "8.8", groups[0].Items[0].Base().Rating)
	require.Equal(t, catalog.Shows, groups[1].Provider)
	require.Equal(t, []string{"matrix"}, movies.seen())
	require.Equal(t, []string{"matrix"}, shows.seen())
}

func TestSearchReportsFailuresPerGroup(t *testing.T) {
	movies := newMirror(t, http.StatusOK, moviesBody)
	shows := newMirror(t, http.StatusInternalServerError, "")
	agg := New(providers(movies.URL, shows.URL), nil, Options{})

	byProvider := map[string]Group{}
	for g := range agg.Search(context.Background(), "matrix") {
		byProvider[g.Provider] = g
	}

	require.NoError(t, byProvider[catalog.Movies].Err)
	require.ErrorIs(t, byProvider[catalog.Shows].Err, catalog.ErrTransport)
}

func TestSearchCancelled(t *testing.T) {
	block := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(block)

	agg := New(providers(slow.URL, slow.URL), nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	groups := agg.Search(ctx, "matrix")
	cancel()

	n := 0
	for range groups {
		n++
	}
	require.Equal(t, 0, n)
}

func TestQueryDebounces(t *testing.T) {
	movies := newMirror(t, http.StatusOK, moviesBody)
	shows := newMirror(t, http.StatusOK, showsBody)
	s := &sink{}
	agg := New(providers(movies.URL, shows.URL), s, Options{Delay: 50 * time.Millisecond})
	defer agg.Close()

	for _, text := range []string{"m", "ma", "mat", "matr", "matri", "matrix"} {
		agg.Query(text)
	}

	require.Eventually(t, func() bool {
		_, groups := s.snapshot()
		return len(groups) == 2
	}, 2*time.Second, 10*time.Millisecond)

	clears, _ := s.snapshot()
	require.Equal(t, 1, clears)
	require.Equal(t, []string{"matrix"}, movies.seen())
	require.Equal(t, []string{"matrix"}, shows.seen())
}

func TestShortQueriesNeedSubmit(t *testing.T) {
	movies := newMirror(t, http.StatusOK, moviesBody)
	shows := newMirror(t, http.StatusOK, showsBody)
	s := &sink{}
	agg := New(providers(movies.URL, shows.URL), s, Options{Delay: 10 * time.Millisecond})
	defer agg.Close()

	agg.Query("abc")
	time.Sleep(100 * time.Millisecond)
	require.EqualValues(t, 0, movies.hits.Load())

	agg.Submit("abc")
	require.Eventually(t, func() bool {
		_, groups := s.snapshot()
		return len(groups) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewQuerySupersedesOld(t *testing.T) {
	release := make(chan struct{})
	var firstSeen atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("keywords") == "first query" {
			firstSeen.Store(true)
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
		}
		w.Write([]byte(moviesBody))
	}))
	defer srv.Close()
	defer close(release)

	s := &sink{}
	agg := New(providers(srv.URL, srv.URL), s, Options{Delay: 10 * time.Millisecond})
	defer agg.Close()

	agg.Query("first query")
	require.Eventually(t, firstSeen.Load, 2*time.Second, 5*time.Millisecond)

	agg.Query("second query")
	require.Eventually(t, func() bool {
		_, groups := s.snapshot()
		return len(groups) == 2
	}, 2*time.Second, 10*time.Millisecond)

	clears, groups := s.snapshot()
	require.Equal(t, 2, clears)
	for _, g := range groups {
		require.NoError(t, g.Err)
	}
}

func TestCloseStopsPendingQuery(t *testing.T) {
	movies := newMirror(t, http.StatusOK, moviesBody)
	s := &sink{}
	agg := New(providers(movies.URL, movies.URL), s, Options{Delay: 30 * time.Millisecond})

	agg.Query("matrix")
	agg.Close()
	agg.Query("matrix reloaded")
	time.Sleep(100 * time.Millisecond)

	require.EqualValues(t, 0, movies.hits.Load())
	clears, groups := s.snapshot()
	require.Zero(t, clears)
	require.Empty(t, groups)
}

func TestWaitCoversScheduledQueries(t *testing.T) {
	movies := newMirror(t, http.StatusOK, moviesBody)
	shows := newMirror(t, http.StatusOK, showsBody)
	s := &sink{}
	agg := New(providers(movies.URL, shows.URL), s, Options{Delay: 30 * time.Millisecond})
	defer agg.Close()

	agg.Query("the matrix")
	agg.Query("matrix")
	agg.Wait()

	clears, groups := s.snapshot()
	require.Equal(t, 1, clears)
	require.Len(t, groups, 2)
	require.Equal(t, []string{"matrix"}, movies.seen())

	agg.Submit("ab")
	agg.Wait()
	_, groups = s.snapshot()
	require.Len(t, groups, 2)
	require.EqualValues(t, 2, shows.hits.Load())
}
