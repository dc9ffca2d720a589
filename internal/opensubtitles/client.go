// Package opensubtitles implements subtitle lookup against the
// OpenSubtitles REST API.
package opensubtitles

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shapedtime/catalogd/internal/media"
)

const (
	DefaultBaseURL = "https://api.opensubtitles.com/api/v1"
	userAgent      = "catalogd v1.0"

	defaultHTTPTimeout = 30 * time.Second

	// Token management
	tokenValidDuration   = 24 * time.Hour
	tokenRefreshDuration = 23 * time.Hour
)

// ErrNotConfigured is returned by every call when no API key is set.
var ErrNotConfigured = errors.New("OpenSubtitles API key not configured")

// Config holds the client credentials. BaseURL defaults to the public API.
type Config struct {
	APIKey    string
	Username  string
	Password  string
	BaseURL   string
	Languages []string
}

// Client is an OpenSubtitles API client
type Client struct {
	apiKey     string
	username   string
	password   string
	baseURL    string
	languages  []string
	httpClient *http.Client

	// Token management
	mu       sync.RWMutex
	token    string
	tokenExp time.Time
}

var _ media.SubtitleLookup = (*Client)(nil)

// NewClient creates a new OpenSubtitles client
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		apiKey:    cfg.APIKey,
		username:  cfg.Username,
		password:  cfg.Password,
		baseURL:   base,
		languages: cfg.Languages,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
	}
}

// IsConfigured returns true if the client has an API key configured
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Subtitles lists subtitles for the item req identifies, most downloaded
// first. An empty language list falls back to the client's languages.
func (c *Client) Subtitles(ctx context.Context, req media.SubtitleRequest) ([]media.Subtitle, error) {
	imdb, err := parseIMDBID(req.IMDBID)
	if err != nil {
		return nil, err
	}

	params := SearchParams{
		IMDBID:    imdb,
		Type:      "movie",
		Languages: req.Languages,
	}
	if len(params.Languages) == 0 {
		params.Languages = c.languages
	}
	if req.Season > 0 || req.Episode > 0 {
		params.Type = "episode"
		params.SeasonNumber = req.Season
		params.EpisodeNumber = req.Episode
	}

	resp, err := c.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	var out []media.Subtitle
	for _, r := range resp.Data {
		for _, f := range r.Attributes.Files {
			out = append(out, media.Subtitle{
				FileID:    f.FileID,
				Language:  r.Attributes.Language,
				Release:   r.Attributes.Release,
				FileName:  f.FileName,
				Downloads: r.Attributes.DownloadCount,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Downloads > out[j].Downloads })
	return out, nil
}

// Search searches for subtitles matching the given parameters
func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	query := url.Values{}

	if params.Type == "episode" {
		query.Set("type", "episode")
		if params.IMDBID > 0 {
			query.Set("parent_imdb_id", strconv.Itoa(params.IMDBID))
		}
		if params.SeasonNumber > 0 {
			query.Set("season_number", strconv.Itoa(params.SeasonNumber))
		}
		if params.EpisodeNumber > 0 {
			query.Set("episode_number", strconv.Itoa(params.EpisodeNumber))
		}
	} else {
		query.Set("type", "movie")
		if params.IMDBID > 0 {
			query.Set("imdb_id", strconv.Itoa(params.IMDBID))
		}
	}

	if len(params.Languages) > 0 {
		query.Set("languages", strings.Join(params.Languages, ","))
	}

	endpoint := fmt.Sprintf("%s/subtitles?%s", c.baseURL, query.Encode())

	var result SearchResponse
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return &result, nil
}

// Download downloads a subtitle file by file ID
// Returns the subtitle content as bytes and the filename
func (c *Client) Download(ctx context.Context, fileID int) ([]byte, string, error) {
	if !c.IsConfigured() {
		return nil, "", ErrNotConfigured
	}

	if err := c.ensureToken(ctx); err != nil {
		return nil, "", fmt.Errorf("failed to authenticate: %w", err)
	}

	endpoint := fmt.Sprintf("%s/download", c.baseURL)
	reqBody := DownloadRequest{FileID: fileID}

	var downloadResp DownloadResponse
	if err := c.post(ctx, endpoint, reqBody, &downloadResp, true); err != nil {
		return nil, "", fmt.Errorf("download request failed: %w", err)
	}

	if downloadResp.Link == "" {
		return nil, "", fmt.Errorf("no download link in response")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadResp.Link, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read subtitle content: %w", err)
	}

	return content, downloadResp.FileName, nil
}

// parseIMDBID turns "tt0133093" into 133093.
func parseIMDBID(id string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(id), "tt"))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid IMDB id %q", id)
	}
	return n, nil
}

// ensureToken ensures we have a valid authentication token
func (c *Client) ensureToken(ctx context.Context) error {
	c.mu.RLock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	return c.login(ctx)
}

// login authenticates and obtains a token
func (c *Client) login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.token != "" && time.Now().Before(c.tokenExp) {
		return nil
	}

	// Without credentials the API key alone allows limited downloads.
	if c.username == "" || c.password == "" {
		c.token = "anonymous"
		c.tokenExp = time.Now().Add(tokenValidDuration)
		return nil
	}

	endpoint := fmt.Sprintf("%s/login", c.baseURL)
	reqBody := LoginRequest{
		Username: c.username,
		Password: c.password,
	}

	var loginResp LoginResponse
	if err := c.post(ctx, endpoint, reqBody, &loginResp, false); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if loginResp.Token == "" {
		return fmt.Errorf("no token in login response")
	}

	c.token = loginResp.Token
	c.tokenExp = time.Now().Add(tokenRefreshDuration)

	return nil
}

// get performs a GET request
func (c *Client) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req, false)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, result)
}

// post performs a POST request
func (c *Client) post(ctx context.Context, endpoint string, body interface{}, result interface{}, useToken bool) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req, useToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, result)
}

// setHeaders sets common headers
func (c *Client) setHeaders(req *http.Request, useToken bool) {
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	if useToken {
		c.mu.RLock()
		token := c.token
		c.mu.RUnlock()

		if token != "" && token != "anonymous" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// handleResponse processes the HTTP response
func (c *Client) handleResponse(resp *http.Response, result interface{}) error {
	if resp.StatusCode == http.StatusUnauthorized {
		// Clear token to force re-login
		c.mu.Lock()
		c.token = ""
		c.tokenExp = time.Time{}
		c.mu.Unlock()
		return fmt.Errorf("unauthorized - invalid API key or token")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited - too many requests")
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
