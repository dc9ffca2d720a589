// Package normalize turns catalog response bodies into media items.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shapedtime/catalogd/internal/media"
)

// ErrEnvelope is returned when the top-level shape of a body is not what the
// catalog schema promises.
var ErrEnvelope = errors.New("malformed envelope")

// Normalizer converts raw response bodies of one catalog schema.
//
// List appends the items of a list page to acc and returns the extended
// slice. Detail returns the fully populated item, or no items when the body
// held nothing usable.
type Normalizer interface {
	Schema() string
	List(raw []byte, acc []media.Media) ([]media.Media, error)
	Detail(raw []byte) ([]media.Media, error)
}

// SkipObserver is told about every record dropped during normalization.
type SkipObserver interface {
	Skipped(schema string)
}

type base struct {
	schema string
	caps   media.Capabilities
	skips  SkipObserver
	log    *slog.Logger
}

func newBase(schema string, caps media.Capabilities, skips SkipObserver) base {
	return base{
		schema: schema,
		caps:   caps,
		skips:  skips,
		log:    slog.With("component", "normalizer", "schema", schema),
	}
}

func (b *base) Schema() string { return b.schema }

func (b *base) skip(reason string, err error) {
	b.log.Debug("Skipping record", "reason", reason, "error", err)
	if b.skips != nil {
		b.skips.Skipped(b.schema)
	}
}

// records splits a top-level JSON array into its elements without decoding
// them, so one bad record cannot fail the page.
func records(raw []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected array", ErrEnvelope)
	}
	var out []json.RawMessage
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvelope, err)
	}
	return out, nil
}

func object(raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected object", ErrEnvelope)
	}
	return json.RawMessage(trimmed), nil
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number (integral or not) or a numeric string.
type flexInt int

func (i *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", string(s))
	}
	*i = flexInt(f)
	return nil
}

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", string(s))
	}
	*f = flexFloat(v)
	return nil
}

type images struct {
	Poster string `json:"poster"`
	Fanart string `json:"fanart"`
	Banner string `json:"banner"`
}

type ratingInfo struct {
	Percentage flexFloat `json:"percentage"`
	Votes      flexInt   `json:"votes"`
}

// percentRating renders a 0-100 percentage as a 0-10 score with one decimal.
func percentRating(r *ratingInfo) string {
	if r == nil {
		return ""
	}
	return strconv.FormatFloat(float64(r.Percentage)/10, 'f', 1, 64)
}

// scoreRating renders a score that is already on a 0-10 scale.
func scoreRating(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// joinGenres title-cases each genre and joins them with ", ".
func joinGenres(genres []string) string {
	if len(genres) == 0 {
		return ""
	}
	caser := cases.Title(language.English)
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		out = append(out, caser.String(g))
	}
	return strings.Join(out, ", ")
}
