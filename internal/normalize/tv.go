package normalize

import (
	"encoding/json"
	"sort"

	"github.com/shapedtime/catalogd/internal/media"
)

type showRecord struct {
	ID         string      `json:"_id"`
	IMDBID     string      `json:"imdb_id"`
	TVDBID     flexString  `json:"tvdb_id"`
	Title      string      `json:"title"`
	Year       flexString  `json:"year"`
	NumSeasons flexInt     `json:"num_seasons"`
	Seasons    flexInt     `json:"seasons"`
	Images     images      `json:"images"`
	Rating     *ratingInfo `json:"rating"`
	Genres     []string    `json:"genres"`

	// Detail only.
	Status   string            `json:"status"`
	Country  string            `json:"country"`
	Network  string            `json:"network"`
	Synopsis string            `json:"synopsis"`
	Runtime  flexString        `json:"runtime"`
	AirDay   string            `json:"air_day"`
	AirTime  string            `json:"air_time"`
	Episodes []json.RawMessage `json:"episodes"`
}

func (r *showRecord) id() string {
	if r.IMDBID != "" {
		return r.IMDBID
	}
	return r.ID
}

type episodeRecord struct {
	Season     *flexInt                  `json:"season"`
	Episode    *flexInt                  `json:"episode"`
	Title      string                    `json:"title"`
	Overview   string                    `json:"overview"`
	FirstAired flexInt                   `json:"first_aired"`
	DateBased  bool                      `json:"date_based"`
	Torrents   map[string]episodeTorrent `json:"torrents"`
}

type episodeTorrent struct {
	URL   string  `json:"url"`
	Seeds flexInt `json:"seeds"`
	Peers flexInt `json:"peers"`
}

// TV normalizes the show catalog schema.
type TV struct {
	base
}

// NewTV returns a normalizer for the show catalog. skips may be nil.
func NewTV(caps media.Capabilities, skips SkipObserver) *TV {
	return &TV{base: newBase("tv", caps, skips)}
}

func (n *TV) List(raw []byte, acc []media.Media) ([]media.Media, error) {
	recs, err := records(raw)
	if err != nil {
		return acc, err
	}
	for _, rec := range recs {
		var r showRecord
		if err := json.Unmarshal(rec, &r); err != nil {
			n.skip("decode", err)
			continue
		}
		if r.id() == "" {
			n.skip("missing id", nil)
			continue
		}
		acc = append(acc, shallowShow(&r, n.caps))
	}
	return acc, nil
}

func (n *TV) Detail(raw []byte) ([]media.Media, error) {
	obj, err := object(raw)
	if err != nil {
		return nil, err
	}
	var r showRecord
	if err := json.Unmarshal(obj, &r); err != nil {
		n.skip("decode", err)
		return nil, nil
	}
	if r.id() == "" {
		n.skip("missing id", nil)
		return nil, nil
	}
	return []media.Media{fullShow(&r, n.caps, &n.base)}, nil
}

func shallowShow(r *showRecord, caps media.Capabilities) *media.Show {
	s := media.NewShow(caps)
	s.VideoID = r.id()
	s.IMDBID = r.IMDBID
	s.TVDBID = string(r.TVDBID)
	s.Title = r.Title
	s.Year = string(r.Year)
	s.NumSeasons = int(r.NumSeasons)
	if s.NumSeasons == 0 {
		s.NumSeasons = int(r.Seasons)
	}
	s.Rating = percentRating(r.Rating)
	s.Genre = joinGenres(r.Genres)
	s.SetArtwork(r.Images.Poster, r.Images.Fanart)
	return s
}

func fullShow(r *showRecord, caps media.Capabilities, b *base) *media.Show {
	s := shallowShow(r, caps)
	s.Status = media.ParseStatus(r.Status)
	s.Country = r.Country
	s.Network = r.Network
	s.Synopsis = r.Synopsis
	s.Runtime = string(r.Runtime)
	s.AirDay = r.AirDay
	s.AirTime = r.AirTime
	s.Episodes = episodes(s, r.Episodes, caps, b)
	return s
}

// episodes builds the episode list of show, keeping the first occurrence of
// each season/episode pair. A malformed episode is dropped on its own.
func episodes(show *media.Show, raw []json.RawMessage, caps media.Capabilities, b *base) []*media.Episode {
	seen := make(map[string]struct{}, len(raw))
	out := make([]*media.Episode, 0, len(raw))

	for _, rec := range raw {
		var r episodeRecord
		if err := json.Unmarshal(rec, &r); err != nil {
			b.skip("episode decode", err)
			continue
		}
		if r.Season == nil || r.Episode == nil {
			b.skip("episode missing number", nil)
			continue
		}
		season, number := int(*r.Season), int(*r.Episode)

		key := media.EpisodeKey(season, number)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		ep := media.NewEpisode(caps)
		ep.ShowName = show.Title
		ep.Title = r.Title
		ep.Overview = r.Overview
		ep.DateBased = r.DateBased
		ep.Aired = int64(r.FirstAired)
		ep.Season = season
		ep.Episode = number
		ep.VideoID = media.EpisodeVideoID(show.VideoID, season, number)
		ep.IMDBID = show.IMDBID
		ep.Image = show.HeaderImage
		ep.FullImage = show.HeaderImage
		ep.HeaderImage = show.HeaderImage

		for label, t := range r.Torrents {
			// "0" duplicates the best quality under an unnamed key.
			if label == "0" || t.URL == "" {
				continue
			}
			quality := qualityKey(label)
			tor := media.NewTorrent(t.URL, int(t.Seeds), int(t.Peers), "")
			tor.Quality = quality
			ep.Torrents[quality] = tor
		}

		out = append(out, ep)
	}

	// Mirrors return episodes in arbitrary order; callers get them by
	// season, then episode.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].Episode < out[j].Episode
	})
	return out
}
