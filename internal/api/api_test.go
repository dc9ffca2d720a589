package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shapedtime/catalogd/internal/catalog"
	"github.com/shapedtime/catalogd/internal/dispatch"
	"github.com/shapedtime/catalogd/internal/media"
	"github.com/shapedtime/catalogd/internal/search"
	"github.com/shapedtime/catalogd/internal/transport"
)

const moviesPage = `[{"imdb_id": "tt0133093", "title": "The Matrix", "year": "1999", "rating": {"percentage": 88}}]`

const showDetail = `{"imdb_id": "tt0944947", "title": "Game of Thrones", "num_seasons": 1,
  "episodes": [{"season": 1, "episode": 1, "title": "Winter Is Coming",
    "torrents": {"720p": {"url": "https://t.example/s1e1.torrent", "seeds": 4, "peers": 1}}}]}`

type fakeSubtitles struct {
	mu   sync.Mutex
	reqs []media.SubtitleRequest
	err  error
}

func (f *fakeSubtitles) Subtitles(_ context.Context, req media.SubtitleRequest) ([]media.Subtitle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return []media.Subtitle{{FileID: 9, Language: req.Languages[0], Downloads: 3}}, nil
}

type fakeMetadata struct{}

func (fakeMetadata) Lookup(_ context.Context, kind media.Kind, imdbID string) (*media.Metadata, error) {
	return &media.Metadata{TMDBID: 603, Title: string(kind) + ":" + imdbID}, nil
}

type fakeDownloader struct{}

func (fakeDownloader) Download(_ context.Context, fileID int) ([]byte, string, error) {
	return []byte("subtitle body"), "movie.srt", nil
}

type countingObserver struct{ ok, failed int }

func (o *countingObserver) SubtitleLookup(err error) {
	if err != nil {
		o.failed++
		return
	}
	o.ok++
}

type fixture struct {
	server   *Server
	subs     *fakeSubtitles
	observer *countingObserver
}

func newFixture(t *testing.T, moviesStatus int, moviesBody string) *fixture {
	t.Helper()

	movies := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(moviesStatus)
		w.Write([]byte(moviesBody))
	}))
	t.Cleanup(movies.Close)

	shows := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/show/tt0944947" {
			w.Write([]byte(showDetail))
			return
		}
		if strings.HasPrefix(r.URL.Path, "/show/") {
			w.Write([]byte(`{}`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(shows.Close)

	f := &fixture{subs: &fakeSubtitles{}, observer: &countingObserver{}}
	caps := media.Capabilities{Subtitles: f.subs, Metadata: fakeMetadata{}}
	deps := catalog.Deps{
		Doer:         transport.NewClient(2*time.Second, ""),
		Dispatcher:   dispatch.Inline{},
		Capabilities: caps,
	}
	registry := catalog.NewRegistry(
		catalog.NewMovies(catalog.Options{Mirrors: []string{movies.URL}}, deps),
		catalog.NewShows(catalog.Options{Mirrors: []string{shows.URL}}, deps),
	)
	agg := search.New(registry.All(), nil, search.Options{})

	f.server = NewServer(registry, agg, Options{
		Capabilities: caps,
		Languages:    []string{"en"},
		Downloader:   fakeDownloader{},
		Observer:     f.observer,
	})
	return f
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestListProviders(t *testing.T) {
	f := newFixture(t, http.StatusOK, moviesPage)

	rec := f.get(t, "/api/providers")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Providers []ProviderResponse `json:"providers"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Providers, 2)
	assert.Equal(t, catalog.Movies, body.Providers[0].Name)
	assert.Equal(t, 1, body.Providers[0].DefaultNavigation)
	assert.NotEmpty(t, body.Providers[0].Navigation)
	assert.NotEmpty(t, body.Providers[1].Genres)
}

func TestListItems(t *testing.T) {
	f := newFixture(t, http.StatusOK, moviesPage)

	rec := f.get(t, "/api/providers/movies/list?keywords=matrix&sort=rating&order=asc&page=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Provider string `json:"provider"`
		Page     int    `json:"page"`
		Changed  bool   `json:"changed"`
		Items    []struct {
			Kind string         `json:"kind"`
			Item map[string]any `json:"item"`
		} `json:"items"`
	}
	decode(t, rec, &body)
	require.Equal(t, 2, body.Page)
	require.True(t, body.Changed)
	require.Len(t, body.Items, 1)
	require.Equal(t, "movie", body.Items[0].Kind)
	require.Equal(t, "8.8", body.Items[0].Item["rating"])
}

func TestListRejectsBadFilters(t *testing.T) {
	f := newFixture(t, http.StatusOK, moviesPage)

	for _, path := range []string{
		"/api/providers/movies/list?sort=loudness",
		"/api/providers/movies/list?order=sideways",
		"/api/providers/movies/list?page=0",
	} {
		rec := f.get(t, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}

	rec := f.get(t, "/api/providers/nope/list")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalogErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   int
		kind   string
	}{
		{"transport", http.StatusInternalServerError, "", http.StatusBadGateway, "transport_failure"},
		{"malformed", http.StatusOK, `{"not": "a list"}`, http.StatusBadGateway, "malformed_envelope"},
		{"empty", http.StatusOK, "", http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.status, tt.body)
			rec := f.get(t, "/api/providers/movies/list")
			require.Equal(t, tt.want, rec.Code)
			if tt.kind == "" {
				require.Equal(t, "empty_response", rec.Header().Get("X-Catalog-Error"))
				return
			}
			var body map[string]string
			decode(t, rec, &body)
			require.Equal(t, tt.kind, body["kind"])
		})
	}
}

func TestGetItemDetail(t *testing.T) {
	f := newFixture(t, http.StatusOK, moviesPage)

	rec := f.get(t, "/api/providers/shows/items/tt0944947")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Kind string `json:"kind"`
		Item struct {
			Title    string `json:"title"`
			Episodes []any  `json:"episodes"`
		} `json:"item"`
	}
	decode(t, rec, &body)
	require.Equal(t, "show", body.Kind)
	require.Equal(t, "Game of Thrones", body.Item.Title)
	require.Len(t, body.Item.Episodes, 1)
}

func TestGetItemNotFound(t *testing.T) {
	f := newFixture(t, http.StatusOK, moviesPage)

	rec := f.get(t, "/api/providers/shows/items/tt404")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	require.Equal(t, "empty_result", body["kind"])
}

func TestSearch(t *testing.T) {
	f := newFixture(t, http.StatusOK, moviesPage)

	rec := f.get(t, "/api/search?q=matrix")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Groups []SearchGroupResponse `json:"groups"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Groups, 2)

	rec = f.get(t, "/api/search")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestItemSubtitlesUsesCapability(t *testing.T) {
	f := newFixture(t, http.StatusOK, moviesPage)

	require.Equal(t, http.StatusOK, f.get(t, "/api/providers/movies/list").Code)

	rec := f.get(t, "/api/items/subtitles?provider=movies&id=tt0133093&languages=fr")
	require.Equal(t, http.StatusOK, rec.Code)

	var body SubtitleListResponse
	decode(t, rec, &body)
	require.Equal(t, "tt0133093", body.IMDBID)
	require.Len(t, body.Subtitles, 1)
	require.Equal(t, "fr", body.Subtitles[0].Language)

	rec = f.get(t, "/api/items/subtitles?provider=shows&id=tt0944947&season=1&episode=2")
	require.Equal(t, http.StatusOK, rec.Code)

	f.subs.mu.Lock()
	last := f.subs.reqs[len(f.subs.reqs)-1]
	f.subs.mu.Unlock()
	require.Equal(t, media.SubtitleRequest{IMDBID: "tt0944947", Season: 1, Episode: 2, Languages: []string{"en"}}, last)
	require.Equal(t, 2, f.observer.ok)
}

func TestItemSubtitlesErrors(t *testing.T) {
	f := newFixture(t, http.StatusOK, moviesPage)

	require.Equal(t, http.StatusBadRequest, f.get(t, "/api/items/subtitles?provider=movies").Code)
	require.Equal(t, http.StatusBadRequest, f.get(t, "/api/items/subtitles?provider=shows&id=tt1&season=x&episode=1").Code)

	f.subs.err = errors.New("rate limited")
	require.Equal(t, http.StatusBadGateway, f.get(t, "/api/items/subtitles?provider=movies&id=tt0133093").Code)
	require.Equal(t, 1, f.observer.failed)
}

func TestItemMetadata(t *testing.T) {
	f := newFixture(t, http.StatusOK, moviesPage)

	rec := f.get(t, "/api/items/metadata?provider=movies&id=tt0133093")
	require.Equal(t, http.StatusOK, rec.Code)

	var meta media.Metadata
	decode(t, rec, &meta)
	require.Equal(t, "movie:tt0133093", meta.Title)
}

func TestDownloadSubtitle(t *testing.T) {
	f := newFixture(t, http.StatusOK, moviesPage)

	rec := f.get(t, "/api/subtitles/9/download")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "subtitle body", rec.Body.String())
	require.Contains(t, rec.Header().Get("Content-Disposition"), "movie.srt")

	require.Equal(t, http.StatusBadRequest, f.get(t, "/api/subtitles/abc/download").Code)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, http.StatusOK, moviesPage)

	rec := f.get(t, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status    string         `json:"status"`
		Providers []MirrorStatus `json:"providers"`
	}
	decode(t, rec, &body)
	require.Equal(t, "ok", body.Status)
	require.Len(t, body.Providers, 2)
	require.Equal(t, 0, body.Providers[0].Index)
}
