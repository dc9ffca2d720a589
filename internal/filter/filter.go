package filter

import (
	"fmt"
	"strings"
)

// Order is the sort direction of a catalog query.
type Order int

const (
	// DESC is the zero value so an unset order behaves as descending.
	DESC Order = iota
	ASC
)

func (o Order) String() string {
	if o == ASC {
		return "asc"
	}
	return "desc"
}

// ParseOrder converts "asc"/"desc" (any case) to an Order.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "-1":
		return DESC, nil
	case "asc", "1":
		return ASC, nil
	default:
		return DESC, fmt.Errorf("invalid order: %q (must be 'asc' or 'desc')", s)
	}
}

func (o Order) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Order) UnmarshalText(b []byte) error {
	v, err := ParseOrder(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Sort is the sort key of a catalog query.
type Sort int

const (
	// POPULARITY is the zero value so an unset sort behaves as popularity.
	POPULARITY Sort = iota
	YEAR
	DATE
	RATING
	ALPHABET
	TRENDING
)

var sortNames = map[Sort]string{
	POPULARITY: "popularity",
	YEAR:       "year",
	DATE:       "date",
	RATING:     "rating",
	ALPHABET:   "alphabet",
	TRENDING:   "trending",
}

func (s Sort) String() string {
	if name, ok := sortNames[s]; ok {
		return name
	}
	return sortNames[POPULARITY]
}

// ParseSort converts a sort name (any case) to a Sort.
func ParseSort(s string) (Sort, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return POPULARITY, nil
	}
	for k, name := range sortNames {
		if name == s {
			return k, nil
		}
	}
	return POPULARITY, fmt.Errorf("invalid sort: %q", s)
}

func (s Sort) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Sort) UnmarshalText(b []byte) error {
	v, err := ParseSort(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Sorts lists every sort key in declaration order.
func Sorts() []Sort {
	return []Sort{POPULARITY, YEAR, DATE, RATING, ALPHABET, TRENDING}
}

// DefaultLang is the language code used when none is given.
const DefaultLang = "en"

// Filters are the parameters of one catalog query.
//
// A Filters value is owned by the caller until it is handed to a provider;
// providers work on a Clone so later mutation by the caller cannot race an
// in-flight request.
type Filters struct {
	Keywords *string
	Genre    *string
	Order    Order
	Sort     Sort
	Page     *int
	LangCode string
}

// New returns filters with default order, sort and language.
func New() Filters {
	return Filters{
		Order:    DESC,
		Sort:     POPULARITY,
		LangCode: DefaultLang,
	}
}

// Clone returns a deep copy of f.
func (f Filters) Clone() Filters {
	out := f
	if f.Keywords != nil {
		k := *f.Keywords
		out.Keywords = &k
	}
	if f.Genre != nil {
		g := *f.Genre
		out.Genre = &g
	}
	if f.Page != nil {
		p := *f.Page
		out.Page = &p
	}
	return out
}

// WithKeywords returns a copy of f searching for keywords.
func (f Filters) WithKeywords(keywords string) Filters {
	out := f.Clone()
	out.Keywords = &keywords
	return out
}

// WithGenre returns a copy of f restricted to genre.
func (f Filters) WithGenre(genre string) Filters {
	out := f.Clone()
	out.Genre = &genre
	return out
}

// WithPage returns a copy of f requesting page.
func (f Filters) WithPage(page int) Filters {
	out := f.Clone()
	out.Page = &page
	return out
}

// PageOrDefault returns the requested page, or 1 if none is set.
func (f Filters) PageOrDefault() int {
	if f.Page == nil || *f.Page < 1 {
		return 1
	}
	return *f.Page
}

// SameQuery reports whether f and other select the same result set, ignoring
// the page. A list built for one query can only be extended by a call with
// the same query; otherwise it should be replaced.
func (f Filters) SameQuery(other Filters) bool {
	return strEq(f.Keywords, other.Keywords) &&
		strEq(f.Genre, other.Genre) &&
		f.Sort == other.Sort &&
		f.Order == other.Order &&
		f.LangCode == other.LangCode
}

func strEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
