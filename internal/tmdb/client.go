package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shapedtime/catalogd/internal/media"
)

const (
	DefaultBaseURL  = "https://api.themoviedb.org/3"
	DefaultImageURL = "https://image.tmdb.org/t/p/w500"
)

// ErrNotFound is returned when TMDB knows nothing about an IMDB id.
var ErrNotFound = errors.New("not found")

// Client is a TMDB API client
type Client struct {
	apiKey     string
	baseURL    string
	imageURL   string
	httpClient *http.Client
}

var _ media.MetadataLookup = (*Client)(nil)

// NewClient creates a new TMDB client. An empty baseURL selects the public API.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		imageURL: DefaultImageURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Movie represents a movie from TMDB
type Movie struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Overview    string `json:"overview"`
	PosterPath  string `json:"poster_path"`
}

// Year extracts the year from the release date
func (m *Movie) Year() int {
	return year(m.ReleaseDate)
}

// Show represents a TV show from TMDB
type Show struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	FirstAirDate string `json:"first_air_date"`
	Overview     string `json:"overview"`
	PosterPath   string `json:"poster_path"`
}

// Year extracts the year from the first air date
func (s *Show) Year() int {
	return year(s.FirstAirDate)
}

func year(date string) int {
	if len(date) < 4 {
		return 0
	}
	var y int
	fmt.Sscanf(date[:4], "%d", &y)
	return y
}

// FindResult is the response of the find-by-external-id endpoint.
type FindResult struct {
	MovieResults []Movie `json:"movie_results"`
	TVResults    []Show  `json:"tv_results"`
}

// Find looks up everything TMDB has for an IMDB id.
func (c *Client) Find(ctx context.Context, imdbID string) (*FindResult, error) {
	endpoint := fmt.Sprintf("%s/find/%s?external_source=imdb_id", c.baseURL, url.PathEscape(imdbID))

	result := &FindResult{}
	if err := c.get(ctx, endpoint, result); err != nil {
		return nil, err
	}

	return result, nil
}

// Lookup returns TMDB metadata for an item. Shows and episodes resolve to
// the show entry.
func (c *Client) Lookup(ctx context.Context, kind media.Kind, imdbID string) (*media.Metadata, error) {
	if c.apiKey == "" {
		return nil, errors.New("TMDB API key not configured")
	}
	if imdbID == "" {
		return nil, ErrNotFound
	}

	found, err := c.Find(ctx, imdbID)
	if err != nil {
		return nil, err
	}

	switch kind {
	case media.KindMovie:
		if len(found.MovieResults) == 0 {
			return nil, ErrNotFound
		}
		m := found.MovieResults[0]
		return &media.Metadata{
			TMDBID:    m.ID,
			Title:     m.Title,
			Overview:  m.Overview,
			PosterURL: c.poster(m.PosterPath),
			Year:      m.Year(),
		}, nil
	default:
		if len(found.TVResults) == 0 {
			return nil, ErrNotFound
		}
		s := found.TVResults[0]
		return &media.Metadata{
			TMDBID:    s.ID,
			Title:     s.Name,
			Overview:  s.Overview,
			PosterURL: c.poster(s.PosterPath),
			Year:      s.Year(),
		}, nil
	}
}

func (c *Client) poster(path string) string {
	if path == "" {
		return ""
	}
	return c.imageURL + path
}

// get performs a GET request and decodes the response
func (c *Client) get(ctx context.Context, endpoint string, v interface{}) error {
	// Add API key
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}

	q := u.Query()
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
