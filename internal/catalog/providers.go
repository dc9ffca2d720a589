package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shapedtime/catalogd/internal/filter"
	"github.com/shapedtime/catalogd/internal/media"
	"github.com/shapedtime/catalogd/internal/normalize"
)

// Provider names.
const (
	Movies = "movies"
	Shows  = "shows"
	Anime  = "anime"
	YTS    = "yts"
)

// Default mirrors, used when Options.Mirrors is empty.
var (
	DefaultPopcornMirrors = []string{"https://tv-v2.api-fetch.website/"}
	DefaultYTSMirrors     = []string{"https://yts.mx/api/v2/", "https://yts.ag/api/v2/"}
)

var popcornTable = filter.Table{
	Fields:     filter.DefaultFields,
	Limit:      30,
	Ascending:  "1",
	Descending: "-1",
	Sorts: map[filter.Sort]string{
		filter.POPULARITY: "popularity",
		filter.YEAR:       "year",
		filter.DATE:       "last added",
		filter.RATING:     "rating",
		filter.ALPHABET:   "name",
		filter.TRENDING:   "trending",
	},
	SendLang:   true,
	PageInPath: true,
}

func showsTable() filter.Table {
	t := popcornTable
	t.Sorts = map[filter.Sort]string{
		filter.POPULARITY: "popularity",
		filter.YEAR:       "year",
		filter.DATE:       "updated",
		filter.RATING:     "rating",
		filter.ALPHABET:   "name",
		filter.TRENDING:   "trending",
	}
	t.SendLang = false
	return t
}

func ytsTable() filter.Table {
	fields := filter.DefaultFields
	fields.Keywords = "query_term"
	return filter.Table{
		Fields:     fields,
		Limit:      50,
		Ascending:  "asc",
		Descending: "desc",
		Sorts: map[filter.Sort]string{
			filter.POPULARITY: "like_count",
			filter.YEAR:       "year",
			filter.DATE:       "date_added",
			filter.RATING:     "rating",
			filter.ALPHABET:   "title",
			filter.TRENDING:   "seeds",
		},
		SendLang: true,
		Extra:    []filter.Param{{Key: "with_rt_ratings", Value: "true"}},
	}
}

func nav(prefix string, dateID, dateLabel string, alphabetOrder filter.Order) []NavInfo {
	tab := func(id string, s filter.Sort, o filter.Order, label string) NavInfo {
		return NavInfo{ID: prefix + "_filter_" + id, Sort: s, DefaultOrder: o, Label: label, Icon: prefix + "_filter_" + id}
	}
	return []NavInfo{
		tab("trending", filter.TRENDING, filter.DESC, "Trending"),
		tab("popular_now", filter.POPULARITY, filter.DESC, "Popular"),
		tab("top_rated", filter.RATING, filter.DESC, "Top Rated"),
		tab(dateID, filter.DATE, filter.DESC, dateLabel),
		tab("year", filter.YEAR, filter.DESC, "Year"),
		tab("a_to_z", filter.ALPHABET, alphabetOrder, "A-Z"),
	}
}

var genreLabels = map[string]string{
	"science-fiction": "Sci-Fi",
	"tv-movie":        "TV Movie",
	"reality-tv":      "Reality TV",
	"film-noir":       "Film-Noir",
}

// genreList builds a genre list whose first entry, "All", carries allKey.
func genreList(allKey *string, keys ...string) []Genre {
	caser := cases.Title(language.English)
	out := make([]Genre, 0, len(keys)+1)
	out = append(out, Genre{Key: allKey, Label: "All"})
	for _, k := range keys {
		label, ok := genreLabels[k]
		if !ok {
			label = caser.String(strings.ReplaceAll(k, "-", " "))
		}
		out = append(out, Genre{Key: stringPtr(k), Label: label})
	}
	return out
}

var popcornGenres = []string{
	"action", "adventure", "animation", "comedy", "crime", "disaster",
	"documentary", "drama", "eastern", "family", "fantasy", "fan-film",
	"film-noir", "history", "holiday", "horror", "indie", "music", "mystery",
	"road", "romance", "science-fiction", "short", "sports", "suspense",
	"thriller", "tv-movie", "war", "western",
}

var animeGenres = []string{
	"Action", "Adventure", "Cars", "Comedy", "Dementia", "Demons", "Drama",
	"Ecchi", "Fantasy", "Game", "Harem", "Historical", "Horror", "Josei",
	"Kids", "Magic", "Martial Arts", "Mecha", "Military", "Music", "Mystery",
	"Parody", "Police", "Psychological", "Romance", "Samurai", "School",
	"Sci-Fi", "Seinen", "Shoujo", "Shoujo Ai", "Shounen", "Shounen Ai",
	"Slice of Life", "Space", "Sports", "Super Power", "Supernatural",
	"Thriller", "Vampire",
}

var ytsGenres = []string{
	"action", "adventure", "animation", "biography", "comedy", "crime",
	"documentary", "drama", "family", "fantasy", "film-noir", "game-show",
	"history", "horror", "music", "musical", "mystery", "news", "reality-tv",
	"romance", "science-fiction", "sports", "talk-show", "thriller", "war",
	"western",
}

func genericNormalizer(schema string) func(media.Capabilities, normalize.SkipObserver) normalize.Normalizer {
	return func(caps media.Capabilities, skips normalize.SkipObserver) normalize.Normalizer {
		return normalize.NewGeneric(schema, caps, skips)
	}
}

// NewMovies returns the popcorn-style movie catalog provider.
func NewMovies(opts Options, deps Deps) *Source {
	return newSource(definition{
		name:       Movies,
		label:      "Movies",
		loading:    "Loading movies...",
		table:      popcornTable,
		listPath:   "movies",
		detailPath: "movie",
		mirrors:    DefaultPopcornMirrors,
		nav:        nav("movie", "release_date", "Release Date", filter.DESC),
		genres:     genreList(nil, popcornGenres...),
		normalizer: genericNormalizer("movies"),
	}, opts, deps)
}

// NewShows returns the TV show catalog provider.
func NewShows(opts Options, deps Deps) *Source {
	return newSource(definition{
		name:       Shows,
		label:      "TV Shows",
		loading:    "Loading shows...",
		table:      showsTable(),
		listPath:   "shows",
		detailPath: "show",
		mirrors:    DefaultPopcornMirrors,
		nav:        nav("tvshow", "last_updated", "Last Updated", filter.DESC),
		genres:     genreList(stringPtr("all"), popcornGenres...),
		normalizer: func(caps media.Capabilities, skips normalize.SkipObserver) normalize.Normalizer {
			return normalize.NewTV(caps, skips)
		},
	}, opts, deps)
}

// NewAnime returns the anime catalog provider.
func NewAnime(opts Options, deps Deps) *Source {
	return newSource(definition{
		name:       Anime,
		label:      "Anime",
		loading:    "Loading anime...",
		table:      popcornTable,
		listPath:   "animes",
		detailPath: "anime",
		mirrors:    DefaultPopcornMirrors,
		nav:        nav("anime", "last_added", "Last Added", filter.DESC),
		genres:     genreList(nil, animeGenres...),
		normalizer: genericNormalizer("anime"),
	}, opts, deps)
}

// NewYTS returns the YTS movie catalog provider. Its list responses are
// complete, so Detail makes no request, and it picks pages itself: each
// call with a given sort asks for the page after the previous one.
func NewYTS(opts Options, deps Deps) *Source {
	return newSource(definition{
		name:        YTS,
		label:       "YTS Movies",
		loading:     "Loading movies...",
		table:       ytsTable(),
		listPath:    "list_movies.json",
		mirrors:     DefaultYTSMirrors,
		nav:         nav("yts", "release_date", "Release Date", filter.ASC),
		genres:      genreList(nil, ytsGenres...),
		pagePerSort: true,
		normalizer: func(caps media.Capabilities, skips normalize.SkipObserver) normalize.Normalizer {
			return normalize.NewYTS(caps, skips)
		},
	}, opts, deps)
}

// New builds the provider called name.
func New(name string, opts Options, deps Deps) (*Source, bool) {
	switch name {
	case Movies:
		return NewMovies(opts, deps), true
	case Shows:
		return NewShows(opts, deps), true
	case Anime:
		return NewAnime(opts, deps), true
	case YTS:
		return NewYTS(opts, deps), true
	default:
		return nil, false
	}
}

// Names lists the known provider names in display order.
func Names() []string {
	return []string{Movies, Shows, Anime, YTS}
}

// Stub returns a shallow item of the variant provider name lists, holding
// only id. It is enough to start a Detail call.
func Stub(name, id string, caps media.Capabilities) media.Media {
	var m media.Media
	switch name {
	case Shows, Anime:
		m = media.NewShow(caps)
	default:
		m = media.NewMovie(caps)
	}
	m.Base().VideoID = id
	if strings.HasPrefix(id, "tt") {
		m.Base().IMDBID = id
	}
	return m
}
