package filter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testTable = Table{
	Fields:     DefaultFields,
	Limit:      30,
	Ascending:  "1",
	Descending: "-1",
	Sorts: map[Sort]string{
		POPULARITY: "popularity",
		DATE:       "last added",
	},
	SendLang:   true,
	PageInPath: true,
}

func TestCompileOrder(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		want  string
	}{
		{"ascending", ASC, "1"},
		{"descending", DESC, "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New()
			f.Order = tt.order
			got, ok := Lookup(Compile(f, testTable), "order")
			require.True(t, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCompileUnsetOrderIsDescending(t *testing.T) {
	var f Filters
	got, _ := Lookup(Compile(f, testTable), "order")
	require.Equal(t, "-1", got)
}

func TestCompileKeyOrdering(t *testing.T) {
	f := New().WithKeywords("the matrix").WithGenre("action")
	f.Sort = DATE

	params := Compile(f, testTable)
	keys := make([]string, 0, len(params))
	for _, p := range params {
		keys = append(keys, p.Key)
	}

	require.Equal(t, []string{"limit", "keywords", "genre", "order", "lang", "sort"}, keys)
	require.Equal(t, "limit=30&keywords=the+matrix&genre=action&order=-1&lang=en&sort=last+added", Encode(params))
}

func TestCompileOmitsAbsentFields(t *testing.T) {
	tbl := testTable
	tbl.SendLang = false
	tbl.PageInPath = false
	tbl.Extra = []Param{{"with_rt_ratings", "true"}}

	params := Compile(New().WithPage(4), tbl)
	require.Equal(t, "limit=30&order=-1&sort=popularity&page=4&with_rt_ratings=true", Encode(params))
}

func TestSortTokenFallback(t *testing.T) {
	require.Equal(t, "popularity", testTable.SortToken(TRENDING))
}

func TestCloneIsDeep(t *testing.T) {
	orig := New().WithKeywords("alien").WithPage(2)
	cp := orig.Clone()

	*orig.Keywords = "aliens"
	*orig.Page = 3

	require.Equal(t, "alien", *cp.Keywords)
	require.Equal(t, 2, *cp.Page)
}

func TestParseSortAndOrder(t *testing.T) {
	s, err := ParseSort("Rating")
	require.NoError(t, err)
	require.Equal(t, RATING, s)

	_, err = ParseSort("loudness")
	require.Error(t, err)

	o, err := ParseOrder("ASC")
	require.NoError(t, err)
	require.Equal(t, ASC, o)

	o, err = ParseOrder("")
	require.NoError(t, err)
	require.Equal(t, DESC, o)
}

func TestSameQuery(t *testing.T) {
	a := New().WithKeywords("matrix").WithPage(1)
	b := New().WithKeywords("matrix").WithPage(2)
	require.True(t, a.SameQuery(b))

	b.Sort = RATING
	require.False(t, a.SameQuery(b))
	require.False(t, a.SameQuery(New()))
}

func TestEnumsMarshalAsText(t *testing.T) {
	b, err := RATING.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "rating", string(b))

	var s Sort
	require.NoError(t, s.UnmarshalText([]byte("Trending")))
	require.Equal(t, TRENDING, s)

	var o Order
	require.NoError(t, o.UnmarshalText([]byte("asc")))
	require.Equal(t, ASC, o)
	require.Error(t, o.UnmarshalText([]byte("sideways")))
}
