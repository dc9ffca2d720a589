package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shapedtime/catalogd/internal/catalog"
	"github.com/shapedtime/catalogd/internal/media"
	"github.com/shapedtime/catalogd/internal/search"
)

// StatusClientClosedRequest is reported when the caller went away before
// the catalog answered.
const StatusClientClosedRequest = 499

// SubtitleDownloader fetches the content of one subtitle file.
type SubtitleDownloader interface {
	Download(ctx context.Context, fileID int) ([]byte, string, error)
}

// SubtitleObserver is told about every subtitle lookup.
type SubtitleObserver interface {
	SubtitleLookup(err error)
}

// Options are the optional collaborators of a Server.
type Options struct {
	Capabilities media.Capabilities
	Languages    []string
	Downloader   SubtitleDownloader
	Observer     SubtitleObserver
	Timeout      time.Duration
}

// Server represents the REST API server
type Server struct {
	router     *gin.Engine
	registry   *catalog.Registry
	aggregator *search.Aggregator
	caps       media.Capabilities
	languages  []string
	downloader SubtitleDownloader
	observer   SubtitleObserver
	timeout    time.Duration
	seen       *itemCache
	log        *slog.Logger
}

// NewServer creates a new API server
func NewServer(registry *catalog.Registry, aggregator *search.Aggregator, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}

	s := &Server{
		router:     gin.New(),
		registry:   registry,
		aggregator: aggregator,
		caps:       opts.Capabilities,
		languages:  opts.Languages,
		downloader: opts.Downloader,
		observer:   opts.Observer,
		timeout:    opts.Timeout,
		seen:       newItemCache(defaultSeenItems),
		log:        slog.With("component", "api"),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// Logging middleware
	s.router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("API request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	})

	// CORS for development
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	// Providers
	api.GET("/providers", s.listProviders)
	api.GET("/providers/:name/list", s.listItems)
	api.GET("/providers/:name/items/:id", s.getItem)

	// Search
	api.GET("/search", s.search)

	// Item capabilities
	api.GET("/items/subtitles", s.itemSubtitles)
	api.GET("/items/metadata", s.itemMetadata)
	api.GET("/subtitles/:file_id/download", s.downloadSubtitle)

	// Status
	api.GET("/status", s.getStatus)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Error response helper
func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// catalogError reports a failed catalog call with the status of its kind.
func catalogError(c *gin.Context, err error) {
	kind, ok := catalog.KindOf(err)
	if !ok {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch kind {
	case catalog.TransportFailure, catalog.MalformedEnvelope:
		status = http.StatusBadGateway
	case catalog.EmptyResult:
		status = http.StatusNotFound
	case catalog.EmptyResponse:
		// 204 carries no body; the kind travels in a header.
		c.Header("X-Catalog-Error", kind.String())
		c.Status(http.StatusNoContent)
		return
	case catalog.Cancelled:
		status = StatusClientClosedRequest
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind.String()})
}
