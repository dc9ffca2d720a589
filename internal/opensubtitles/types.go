package opensubtitles

// SearchParams contains parameters for subtitle search
type SearchParams struct {
	IMDBID        int      // numeric IMDB id of the movie, or of the show for episodes
	Type          string   // "movie" or "episode"
	SeasonNumber  int      // Season number (for episodes)
	EpisodeNumber int      // Episode number (for episodes)
	Languages     []string // ISO 639-1 language codes
}

// SearchResponse is the API response for subtitle search
type SearchResponse struct {
	TotalPages int              `json:"total_pages"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	Data       []SubtitleResult `json:"data"`
}

// SubtitleResult represents a single subtitle from search results
type SubtitleResult struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Attributes SubtitleAttributes `json:"attributes"`
}

// SubtitleAttributes contains the subtitle metadata
type SubtitleAttributes struct {
	SubtitleID      string         `json:"subtitle_id"`
	Language        string         `json:"language"`
	DownloadCount   int            `json:"download_count"`
	HearingImpaired bool           `json:"hearing_impaired"`
	FPS             float64        `json:"fps"`
	Release         string         `json:"release"`
	UploadDate      string         `json:"upload_date"`
	Files           []SubtitleFile `json:"files"`
}

// SubtitleFile represents a file within a subtitle entry
type SubtitleFile struct {
	FileID   int    `json:"file_id"`
	CDNumber int    `json:"cd_number"`
	FileName string `json:"file_name"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the API response for login
type LoginResponse struct {
	Token  string `json:"token"`
	Status int    `json:"status"`
}

// DownloadRequest is the request body for download
type DownloadRequest struct {
	FileID int `json:"file_id"`
}

// DownloadResponse is the API response for download
type DownloadResponse struct {
	Link      string `json:"link"`
	FileName  string `json:"file_name"`
	Remaining int    `json:"remaining"`
	Message   string `json:"message"`
}
