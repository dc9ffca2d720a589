package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/shapedtime/catalogd/internal/media"
)

type ytsEnvelope struct {
	Status        string          `json:"status"`
	StatusMessage string          `json:"status_message"`
	Data          json.RawMessage `json:"data"`
}

type ytsData struct {
	MovieCount flexInt           `json:"movie_count"`
	Movies     []json.RawMessage `json:"movies"`
}

type ytsMovie struct {
	ID                      flexInt      `json:"id"`
	IMDBCode                string       `json:"imdb_code"`
	Title                   string       `json:"title"`
	TitleEnglish            string       `json:"title_english"`
	Year                    flexInt      `json:"year"`
	Rating                  flexFloat    `json:"rating"`
	Runtime                 flexInt      `json:"runtime"`
	Genres                  []string     `json:"genres"`
	Synopsis                string       `json:"synopsis"`
	Summary                 string       `json:"summary"`
	TrailerCode             string       `json:"yt_trailer_code"`
	Language                string       `json:"language"`
	MPARating               string       `json:"mpa_rating"`
	MediumCoverImage        string       `json:"medium_cover_image"`
	LargeCoverImage         string       `json:"large_cover_image"`
	BackgroundImageOriginal string       `json:"background_image_original"`
	Torrents                []ytsTorrent `json:"torrents"`
}

type ytsTorrent struct {
	URL     string  `json:"url"`
	Hash    string  `json:"hash"`
	Quality string  `json:"quality"`
	Type    string  `json:"type"`
	Seeds   flexInt `json:"seeds"`
	Peers   flexInt `json:"peers"`
}

// YTS normalizes the YTS list_movies envelope.
type YTS struct {
	base
}

// NewYTS returns a normalizer for the YTS catalog. skips may be nil.
func NewYTS(caps media.Capabilities, skips SkipObserver) *YTS {
	return &YTS{base: newBase("yts", caps, skips)}
}

func (n *YTS) List(raw []byte, acc []media.Media) ([]media.Media, error) {
	movies, err := n.unwrap(raw)
	if err != nil {
		return acc, err
	}
	for _, rec := range movies {
		var r ytsMovie
		if err := json.Unmarshal(rec, &r); err != nil {
			n.skip("decode", err)
			continue
		}
		m := n.movie(&r)
		if m.VideoID == "" {
			n.skip("missing id", nil)
			continue
		}
		acc = append(acc, m)
	}
	return acc, nil
}

// Detail decodes a single movie object. The YTS provider never fetches
// details, but a stored list item can be re-read this way.
func (n *YTS) Detail(raw []byte) ([]media.Media, error) {
	obj, err := object(raw)
	if err != nil {
		return nil, err
	}
	var r ytsMovie
	if err := json.Unmarshal(obj, &r); err != nil {
		n.skip("decode", err)
		return nil, nil
	}
	m := n.movie(&r)
	if m.VideoID == "" {
		return nil, nil
	}
	return []media.Media{m}, nil
}

func (n *YTS) unwrap(raw []byte) ([]json.RawMessage, error) {
	obj, err := object(raw)
	if err != nil {
		return nil, err
	}
	var env ytsEnvelope
	if err := json.Unmarshal(obj, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvelope, err)
	}
	if env.Status != "ok" {
		return nil, fmt.Errorf("%w: status %q: %s", ErrEnvelope, env.Status, env.StatusMessage)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("%w: missing data", ErrEnvelope)
	}
	var data ytsData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvelope, err)
	}
	return data.Movies, nil
}

func (n *YTS) movie(r *ytsMovie) *media.Movie {
	m := media.NewMovie(n.caps)

	m.VideoID = r.IMDBCode
	if m.VideoID == "" && r.ID > 0 {
		m.VideoID = strconv.Itoa(int(r.ID))
	}
	m.IMDBID = r.IMDBCode
	m.Title = r.TitleEnglish
	if m.Title == "" {
		m.Title = r.Title
	}
	if r.Year > 0 {
		m.Year = strconv.Itoa(int(r.Year))
	}
	m.Genre = joinGenres(r.Genres)
	m.Rating = scoreRating(float64(r.Rating))
	if r.TrailerCode != "" {
		m.TrailerURL = "https://youtube.com/watch?v=" + r.TrailerCode
	}
	if r.Runtime > 0 {
		m.Runtime = strconv.Itoa(int(r.Runtime))
	}
	m.Synopsis = r.Synopsis
	if m.Synopsis == "" {
		m.Synopsis = r.Summary
	}
	m.Certification = r.MPARating

	full := r.LargeCoverImage
	if full == "" || strings.Contains(full, media.PlaceholderSentinel) {
		full = r.BackgroundImageOriginal
	}
	m.SetImages(r.MediumCoverImage, full, r.BackgroundImageOriginal)

	lang := languageName(r.Language)
	for _, t := range r.Torrents {
		quality := qualityKey(t.Quality)
		if quality == "" {
			continue
		}
		tor := media.NewTorrent(t.URL, int(t.Seeds), int(t.Peers), t.Hash)
		tor.Quality = quality
		tor.Language = lang
		if tor.URL == "" {
			magnet, err := tor.Magnet(m.Title)
			if err != nil {
				n.skip("torrent without url or hash", err)
				continue
			}
			tor.URL = magnet
		}
		if _, exists := m.Torrents[lang][quality]; exists {
			continue
		}
		m.AddTorrent(lang, quality, tor)
	}
	return m
}

// languageName maps a language code to its English display name,
// defaulting to English.
func languageName(code string) string {
	if code == "" {
		code = "en"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
