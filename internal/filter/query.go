package filter

import (
	"net/url"
	"strconv"
	"strings"
)

// Param is one query-string key/value pair.
type Param struct {
	Key   string
	Value string
}

// Fields names the query-string keys a catalog source expects.
type Fields struct {
	Limit    string
	Keywords string
	Genre    string
	Order    string
	Lang     string
	Sort     string
	Page     string
}

// DefaultFields are the keys used by popcorn-style catalog APIs.
var DefaultFields = Fields{
	Limit:    "limit",
	Keywords: "keywords",
	Genre:    "genre",
	Order:    "order",
	Lang:     "lang",
	Sort:     "sort",
	Page:     "page",
}

// Table describes how one catalog source encodes Filters.
type Table struct {
	Fields     Fields
	Limit      int
	Ascending  string
	Descending string
	Sorts      map[Sort]string
	SendLang   bool
	PageInPath bool
	Extra      []Param
}

// SortToken returns the source-specific token for s. Unknown sorts fall back
// to the popularity token.
func (t Table) SortToken(s Sort) string {
	if tok, ok := t.Sorts[s]; ok {
		return tok
	}
	return t.Sorts[POPULARITY]
}

// Compile turns f into ordered query parameters:
// limit, keywords?, genre?, order, lang?, sort, page, extra...
// The page is left out when the source carries it in the path.
func Compile(f Filters, t Table) []Param {
	params := make([]Param, 0, 8+len(t.Extra))
	params = append(params, Param{t.Fields.Limit, strconv.Itoa(t.Limit)})

	if f.Keywords != nil {
		params = append(params, Param{t.Fields.Keywords, *f.Keywords})
	}
	if f.Genre != nil {
		params = append(params, Param{t.Fields.Genre, *f.Genre})
	}

	if f.Order == ASC {
		params = append(params, Param{t.Fields.Order, t.Ascending})
	} else {
		params = append(params, Param{t.Fields.Order, t.Descending})
	}

	if t.SendLang && f.LangCode != "" {
		params = append(params, Param{t.Fields.Lang, f.LangCode})
	}

	params = append(params, Param{t.Fields.Sort, t.SortToken(f.Sort)})

	if !t.PageInPath {
		params = append(params, Param{t.Fields.Page, strconv.Itoa(f.PageOrDefault())})
	}

	return append(params, t.Extra...)
}

// Encode URL-encodes params preserving their order.
func Encode(params []Param) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// Lookup returns the value of the first param named key.
func Lookup(params []Param, key string) (string, bool) {
	for _, p := range params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}
