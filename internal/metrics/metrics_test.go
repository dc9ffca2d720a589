package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name  string
	index int
}

func (f fakeProvider) Name() string      { return f.name }
func (f fakeProvider) Mirrors() []string { return []string{"a", "b", "c"} }
func (f fakeProvider) MirrorIndex() int  { return f.index }

func TestObserverCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Fetched("movies", "ok", 120*time.Millisecond)
	m.Fetched("movies", "ok", 80*time.Millisecond)
	m.Fetched("movies", "transport_failure", time.Second)
	m.FailedOver("movies", 0, 1)
	m.Skipped("tv")
	m.Skipped("tv")
	m.SubtitleLookup(nil)
	m.SubtitleLookup(errors.New("boom"))

	require.Equal(t, 2.0, testutil.ToFloat64(m.FetchRequests.WithLabelValues("movies", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.FetchRequests.WithLabelValues("movies", "transport_failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.MirrorFailovers.WithLabelValues("movies")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.NormalizeSkipped.WithLabelValues("tv")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SubtitleLookups.WithLabelValues("error")))
}

func TestMirrorCollector(t *testing.T) {
	c := NewMirrorCollector(fakeProvider{"movies", 2}, fakeProvider{"yts", 0})

	expected := `
# HELP catalogd_mirror_index Index of the mirror the provider currently starts from.
# TYPE catalogd_mirror_index gauge
catalogd_mirror_index{provider="movies"} 2
catalogd_mirror_index{provider="yts"} 0
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "catalogd_mirror_index"))
	require.Equal(t, 4, testutil.CollectAndCount(c))
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Skipped("yts")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `catalogd_normalize_skipped_total{schema="yts"} 1`)
}
