package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shapedtime/catalogd/internal/media"
)

// Subtitle response types

type SubtitleListResponse struct {
	IMDBID    string           `json:"imdb_id"`
	Season    int              `json:"season,omitempty"`
	Episode   int              `json:"episode,omitempty"`
	Subtitles []media.Subtitle `json:"subtitles"`
}

// subject resolves the item named by provider and id, narrowed to one
// episode when season and episode are given.
func (s *Server) subject(c *gin.Context) (media.Media, bool) {
	p, ok := s.provider(c)
	if !ok {
		return nil, false
	}

	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		errorResponse(c, http.StatusBadRequest, "id is required")
		return nil, false
	}
	item := s.item(p.Name(), id)

	seasonStr, episodeStr := c.Query("season"), c.Query("episode")
	if seasonStr == "" && episodeStr == "" {
		return item, true
	}

	season, err1 := strconv.Atoi(seasonStr)
	episode, err2 := strconv.Atoi(episodeStr)
	if err1 != nil || err2 != nil || season < 0 || episode < 1 {
		errorResponse(c, http.StatusBadRequest, "season and episode must be given together as numbers")
		return nil, false
	}

	if show, ok := item.(*media.Show); ok {
		for _, ep := range show.Episodes {
			if ep.Season == season && ep.Episode == episode {
				return ep, true
			}
		}
	}

	ep := media.NewEpisode(media.Capabilities{
		Subtitles: item.Base().Subtitles,
		Metadata:  item.Base().Metadata,
	})
	ep.IMDBID = item.Base().IMDBID
	ep.VideoID = media.EpisodeVideoID(item.Base().VideoID, season, episode)
	ep.ShowName = item.Base().Title
	ep.Season = season
	ep.Episode = episode
	return ep, true
}

// Subtitle handlers

func (s *Server) itemSubtitles(c *gin.Context) {
	item, ok := s.subject(c)
	if !ok {
		return
	}

	lookup := item.Base().Subtitles
	if lookup == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Subtitle service not configured")
		return
	}
	if item.Base().IMDBID == "" {
		errorResponse(c, http.StatusBadRequest, "Item has no IMDB id")
		return
	}

	languages := s.languages
	if langs := c.Query("languages"); langs != "" {
		languages = strings.Split(langs, ",")
	}
	req := media.SubtitleRequestFor(item, languages)

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	subs, err := lookup.Subtitles(ctx, req)
	if s.observer != nil {
		s.observer.SubtitleLookup(err)
	}
	if err != nil {
		s.log.Warn("Subtitle lookup failed", "imdb_id", req.IMDBID, "error", err)
		errorResponse(c, http.StatusBadGateway, err.Error())
		return
	}
	if subs == nil {
		subs = []media.Subtitle{}
	}

	c.JSON(http.StatusOK, SubtitleListResponse{
		IMDBID:    req.IMDBID,
		Season:    req.Season,
		Episode:   req.Episode,
		Subtitles: subs,
	})
}

func (s *Server) downloadSubtitle(c *gin.Context) {
	if s.downloader == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Subtitle service not configured")
		return
	}

	fileID, err := strconv.Atoi(c.Param("file_id"))
	if err != nil || fileID <= 0 {
		errorResponse(c, http.StatusBadRequest, "Invalid file_id")
		return
	}

	content, fileName, err := s.downloader.Download(c.Request.Context(), fileID)
	if err != nil {
		s.log.Warn("Subtitle download failed", "file_id", fileID, "error", err)
		errorResponse(c, http.StatusBadGateway, err.Error())
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, "application/x-subrip", content)
}

// Metadata handlers

func (s *Server) itemMetadata(c *gin.Context) {
	item, ok := s.subject(c)
	if !ok {
		return
	}

	lookup := item.Base().Metadata
	if lookup == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Metadata service not configured")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	meta, err := lookup.Lookup(ctx, item.Kind(), item.Base().IMDBID)
	if err != nil {
		errorResponse(c, http.StatusBadGateway, err.Error())
		return
	}
	c.JSON(http.StatusOK, meta)
}
