package media

import "context"

// SubtitleRequest identifies the item subtitles are wanted for.
type SubtitleRequest struct {
	IMDBID    string
	Season    int // 0 for movies
	Episode   int // 0 for movies
	Languages []string
}

// Subtitle is one subtitle file offered for an item.
type Subtitle struct {
	FileID    int    `json:"file_id"`
	Language  string `json:"language"`
	Release   string `json:"release,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	Downloads int    `json:"downloads"`
}

// SubtitleLookup finds subtitles for an item at display time.
type SubtitleLookup interface {
	Subtitles(ctx context.Context, req SubtitleRequest) ([]Subtitle, error)
}

// Metadata is extra information from an enrichment source.
type Metadata struct {
	TMDBID    int    `json:"tmdb_id"`
	Title     string `json:"title"`
	Overview  string `json:"overview,omitempty"`
	PosterURL string `json:"poster_url,omitempty"`
	Year      int    `json:"year,omitempty"`
}

// MetadataLookup enriches an item with metadata from another source.
type MetadataLookup interface {
	Lookup(ctx context.Context, kind Kind, imdbID string) (*Metadata, error)
}

// Capabilities are the lookups a provider hands to every item it builds.
// Metadata may be nil.
type Capabilities struct {
	Subtitles SubtitleLookup
	Metadata  MetadataLookup
}

// SubtitleRequestFor builds the subtitle request for m.
func SubtitleRequestFor(m Media, languages []string) SubtitleRequest {
	req := SubtitleRequest{IMDBID: m.Base().IMDBID, Languages: languages}
	if ep, ok := m.(*Episode); ok {
		req.Season = ep.Season
		req.Episode = ep.Episode
	}
	return req
}
