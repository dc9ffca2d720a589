package normalize

import (
	"encoding/json"
	"strings"

	"github.com/shapedtime/catalogd/internal/media"
)

// genericRecord covers the movie catalog and the anime catalog. Anime
// records carry a type; movie records don't.
type genericRecord struct {
	ID            string                             `json:"_id"`
	IMDBID        string                             `json:"imdb_id"`
	Type          string                             `json:"type"`
	Title         string                             `json:"title"`
	Year          flexString                         `json:"year"`
	Synopsis      string                             `json:"synopsis"`
	Runtime       flexString                         `json:"runtime"`
	Certification string                             `json:"certification"`
	Trailer       string                             `json:"trailer"`
	Genres        []string                           `json:"genres"`
	Images        images                             `json:"images"`
	Rating        *ratingInfo                        `json:"rating"`
	NumSeasons    flexInt                            `json:"num_seasons"`
	Torrents      map[string]map[string]movieTorrent `json:"torrents"`
	Episodes      []json.RawMessage                  `json:"episodes"`
}

type movieTorrent struct {
	URL   string  `json:"url"`
	Seed  flexInt `json:"seed"`
	Peer  flexInt `json:"peer"`
	Seeds flexInt `json:"seeds"`
	Peers flexInt `json:"peers"`
}

func (t movieTorrent) counts() (int, int) {
	return max(int(t.Seed), int(t.Seeds)), max(int(t.Peer), int(t.Peers))
}

// Generic normalizes the popcorn-style movie and anime catalogs.
type Generic struct {
	base
}

// NewGeneric returns a normalizer named schema (e.g. "movies", "anime").
// skips may be nil.
func NewGeneric(schema string, caps media.Capabilities, skips SkipObserver) *Generic {
	return &Generic{base: newBase(schema, caps, skips)}
}

func (n *Generic) List(raw []byte, acc []media.Media) ([]media.Media, error) {
	recs, err := records(raw)
	if err != nil {
		return acc, err
	}
	for _, rec := range recs {
		if m := n.decode(rec, false); m != nil {
			acc = append(acc, m)
		}
	}
	return acc, nil
}

func (n *Generic) Detail(raw []byte) ([]media.Media, error) {
	obj, err := object(raw)
	if err != nil {
		return nil, err
	}
	if m := n.decode(obj, true); m != nil {
		return []media.Media{m}, nil
	}
	return nil, nil
}

func (n *Generic) decode(rec json.RawMessage, detail bool) media.Media {
	var r genericRecord
	if err := json.Unmarshal(rec, &r); err != nil {
		n.skip("decode", err)
		return nil
	}

	switch strings.ToLower(r.Type) {
	case "", "movie":
		id := r.IMDBID
		if id == "" {
			id = r.ID
		}
		if id == "" {
			n.skip("missing id", nil)
			return nil
		}
		return n.movie(id, &r)
	case "show":
		if r.ID == "" && r.IMDBID == "" {
			n.skip("missing id", nil)
			return nil
		}
		sr := &showRecord{
			ID:         r.ID,
			IMDBID:     r.IMDBID,
			Title:      r.Title,
			Year:       r.Year,
			NumSeasons: r.NumSeasons,
			Images:     r.Images,
			Rating:     r.Rating,
			Genres:     r.Genres,
			Synopsis:   r.Synopsis,
			Runtime:    r.Runtime,
			Episodes:   r.Episodes,
		}
		if detail {
			return fullShow(sr, n.caps, &n.base)
		}
		return shallowShow(sr, n.caps)
	default:
		n.skip("unknown type "+r.Type, nil)
		return nil
	}
}

func (n *Generic) movie(id string, r *genericRecord) *media.Movie {
	m := media.NewMovie(n.caps)
	m.VideoID = id
	m.IMDBID = r.IMDBID
	m.Title = r.Title
	m.Year = string(r.Year)
	m.Genre = joinGenres(r.Genres)
	m.Rating = percentRating(r.Rating)
	m.TrailerURL = r.Trailer
	m.Runtime = string(r.Runtime)
	m.Synopsis = r.Synopsis
	m.Certification = r.Certification
	m.SetArtwork(r.Images.Poster, r.Images.Fanart)

	for lang, qualities := range r.Torrents {
		for label, t := range qualities {
			if t.URL == "" {
				continue
			}
			quality := qualityKey(label)
			seeds, peers := t.counts()
			tor := media.NewTorrent(t.URL, seeds, peers, "")
			tor.Quality = quality
			tor.Language = lang
			m.AddTorrent(lang, quality, tor)
		}
	}
	return m
}
