package media

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant of a Media value.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindShow    Kind = "show"
	KindEpisode Kind = "episode"
)

// Media is a catalog entry. It is implemented only by *Movie, *Show and
// *Episode; consumers switch over those three.
type Media interface {
	Kind() Kind
	Base() *Item
	isMedia()
}

// Item holds the fields shared by every Media variant.
type Item struct {
	VideoID     string `json:"video_id"`
	IMDBID      string `json:"imdb_id,omitempty"`
	Title       string `json:"title"`
	Year        string `json:"year,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Rating      string `json:"rating,omitempty"`
	Image       string `json:"image,omitempty"`
	FullImage   string `json:"full_image,omitempty"`
	HeaderImage string `json:"header_image,omitempty"`

	// Resolved by the presentation layer; the fetch layer only attaches them.
	Subtitles SubtitleLookup `json:"-"`
	Metadata  MetadataLookup `json:"-"`
}

// Base returns the shared fields.
func (i *Item) Base() *Item { return i }

// Attach wires the capabilities of caps onto the item.
func (i *Item) Attach(caps Capabilities) {
	i.Subtitles = caps.Subtitles
	i.Metadata = caps.Metadata
}

// PlaceholderSentinel marks the artwork a catalog serves when it has none.
const PlaceholderSentinel = "posterholder"

// SetArtwork fills the image fields from raw poster and fanart URLs.
// Thumbnails use the "/medium/" rendition, FullImage keeps the original.
// Nothing is set when the poster is a placeholder.
func (i *Item) SetArtwork(poster, fanart string) {
	if poster == "" || strings.Contains(poster, PlaceholderSentinel) {
		return
	}
	i.Image = mediumVariant(poster)
	i.FullImage = poster
	if fanart != "" && !strings.Contains(fanart, PlaceholderSentinel) {
		i.HeaderImage = mediumVariant(fanart)
	}
}

// SetImages fills the image fields from ready-made thumbnail, full and
// header URLs. Placeholders are left empty.
func (i *Item) SetImages(thumb, full, header string) {
	i.Image = artwork(thumb)
	i.FullImage = artwork(full)
	i.HeaderImage = artwork(header)
}

func artwork(u string) string {
	if strings.Contains(u, PlaceholderSentinel) {
		return ""
	}
	return u
}

func mediumVariant(u string) string {
	return strings.Replace(u, "/original/", "/medium/", 1)
}

// Movie is a single film.
type Movie struct {
	Item
	TrailerURL    string                        `json:"trailer,omitempty"`
	Runtime       string                        `json:"runtime,omitempty"`
	Synopsis      string                        `json:"synopsis,omitempty"`
	Certification string                        `json:"certification,omitempty"`
	Torrents      map[string]map[string]Torrent `json:"torrents,omitempty"`
}

// NewMovie returns an empty movie wired to caps.
func NewMovie(caps Capabilities) *Movie {
	m := &Movie{Torrents: make(map[string]map[string]Torrent)}
	m.Attach(caps)
	return m
}

func (*Movie) Kind() Kind { return KindMovie }
func (*Movie) isMedia()   {}

// AddTorrent files t under language key and quality label.
func (m *Movie) AddTorrent(key, quality string, t Torrent) {
	if m.Torrents == nil {
		m.Torrents = make(map[string]map[string]Torrent)
	}
	byQuality, ok := m.Torrents[key]
	if !ok {
		byQuality = make(map[string]Torrent)
		m.Torrents[key] = byQuality
	}
	byQuality[quality] = t
}

// Status is the airing state of a show.
type Status string

const (
	StatusEnded      Status = "ENDED"
	StatusContinuing Status = "CONTINUING"
	StatusCanceled   Status = "CANCELED"
	StatusUnknown    Status = "UNKNOWN"
)

// ParseStatus maps a catalog status string to a Status.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ended":
		return StatusEnded
	case "returning series", "in production", "continuing":
		return StatusContinuing
	case "canceled", "cancelled":
		return StatusCanceled
	default:
		return StatusUnknown
	}
}

// Show is a TV series. Episodes are only present after a detail fetch.
type Show struct {
	Item
	TVDBID     string     `json:"tvdb_id,omitempty"`
	NumSeasons int        `json:"num_seasons"`
	Status     Status     `json:"status"`
	Country    string     `json:"country,omitempty"`
	Network    string     `json:"network,omitempty"`
	Synopsis   string     `json:"synopsis,omitempty"`
	Runtime    string     `json:"runtime,omitempty"`
	AirDay     string     `json:"air_day,omitempty"`
	AirTime    string     `json:"air_time,omitempty"`
	Episodes   []*Episode `json:"episodes,omitempty"`
}

// NewShow returns an empty show wired to caps.
func NewShow(caps Capabilities) *Show {
	s := &Show{Status: StatusUnknown}
	s.Attach(caps)
	return s
}

func (*Show) Kind() Kind { return KindShow }
func (*Show) isMedia()   {}

// Episode is one episode of a show.
type Episode struct {
	Item
	ShowName  string             `json:"show_name"`
	DateBased bool               `json:"date_based"`
	Aired     int64              `json:"aired"`
	Overview  string             `json:"overview,omitempty"`
	Season    int                `json:"season"`
	Episode   int                `json:"episode"`
	Torrents  map[string]Torrent `json:"torrents,omitempty"`
}

// NewEpisode returns an empty episode wired to caps.
func NewEpisode(caps Capabilities) *Episode {
	e := &Episode{Torrents: make(map[string]Torrent)}
	e.Attach(caps)
	return e
}

func (*Episode) Kind() Kind { return KindEpisode }
func (*Episode) isMedia()   {}

// EpisodeKey is the identity of an episode within its show.
func EpisodeKey(season, episode int) string {
	return "S" + strconv.Itoa(season) + "E" + strconv.Itoa(episode)
}

// EpisodeVideoID derives an episode id from its show id.
func EpisodeVideoID(showVideoID string, season, episode int) string {
	return showVideoID + strconv.Itoa(season) + strconv.Itoa(episode)
}

// Visitor has one function per Media variant. Nil functions are skipped.
type Visitor struct {
	Movie   func(*Movie) error
	Show    func(*Show) error
	Episode func(*Episode) error
}

// Visit calls the function of v matching m's variant.
func Visit(m Media, v Visitor) error {
	switch x := m.(type) {
	case *Movie:
		if v.Movie != nil {
			return v.Movie(x)
		}
	case *Show:
		if v.Show != nil {
			return v.Show(x)
		}
	case *Episode:
		if v.Episode != nil {
			return v.Episode(x)
		}
	default:
		return fmt.Errorf("unknown media variant %T", m)
	}
	return nil
}
