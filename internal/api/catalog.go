package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shapedtime/catalogd/internal/catalog"
	"github.com/shapedtime/catalogd/internal/filter"
	"github.com/shapedtime/catalogd/internal/media"
	"github.com/shapedtime/catalogd/internal/metrics"
)

// Provider response types

type ProviderResponse struct {
	Name              string            `json:"name"`
	Label             string            `json:"label"`
	LoadingMessage    string            `json:"loading_message"`
	Navigation        []catalog.NavInfo `json:"navigation"`
	DefaultNavigation int               `json:"default_navigation"`
	Genres            []catalog.Genre   `json:"genres"`
}

type ListResponse struct {
	Provider string         `json:"provider"`
	Page     int            `json:"page"`
	Changed  bool           `json:"changed"`
	Items    []itemResponse `json:"items"`
}

type SearchGroupResponse struct {
	Provider string         `json:"provider"`
	Label    string         `json:"label"`
	Items    []itemResponse `json:"items"`
	Error    string         `json:"error,omitempty"`
}

type MirrorStatus struct {
	Provider string   `json:"provider"`
	Mirrors  []string `json:"mirrors"`
	Index    int      `json:"index"`
}

var errInvalidPage = errors.New("page must be a positive integer")

// Provider handlers

func (s *Server) listProviders(c *gin.Context) {
	providers := s.registry.All()
	out := make([]ProviderResponse, 0, len(providers))
	for _, p := range providers {
		out = append(out, ProviderResponse{
			Name:              p.Name(),
			Label:             p.Label(),
			LoadingMessage:    p.LoadingMessage(),
			Navigation:        p.Navigation(),
			DefaultNavigation: p.DefaultNavigationIndex(),
			Genres:            p.Genres(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"providers": out})
}

func (s *Server) provider(c *gin.Context) (catalog.Provider, bool) {
	name := c.Param("name")
	if name == "" {
		name = c.Query("provider")
	}
	p, ok := s.registry.Get(name)
	if !ok {
		errorResponse(c, http.StatusNotFound, "Unknown provider: "+name)
	}
	return p, ok
}

// parseFilters reads keywords, genre, sort, order, page and lang.
func parseFilters(c *gin.Context) (filter.Filters, error) {
	f := filter.New()

	if kw := strings.TrimSpace(c.Query("keywords")); kw != "" {
		f = f.WithKeywords(kw)
	}
	if genre := strings.TrimSpace(c.Query("genre")); genre != "" {
		f = f.WithGenre(genre)
	}

	sort, err := filter.ParseSort(c.Query("sort"))
	if err != nil {
		return f, err
	}
	f.Sort = sort

	order, err := filter.ParseOrder(c.Query("order"))
	if err != nil {
		return f, err
	}
	f.Order = order

	if pageStr := c.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return f, errInvalidPage
		}
		f = f.WithPage(page)
	}

	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		f.LangCode = lang
	}
	return f, nil
}

func (s *Server) listItems(c *gin.Context) {
	p, ok := s.provider(c)
	if !ok {
		return
	}

	f, err := parseFilters(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	res, err := catalog.Await(ctx, func(cb catalog.Callback) *catalog.Handle {
		return p.List(nil, f, cb)
	})
	if err != nil {
		catalogError(c, err)
		return
	}

	s.seen.put(p.Name(), res.Items...)
	c.JSON(http.StatusOK, ListResponse{
		Provider: p.Name(),
		Page:     res.Filters.PageOrDefault(),
		Changed:  res.Changed,
		Items:    present(res.Items),
	})
}

func (s *Server) getItem(c *gin.Context) {
	p, ok := s.provider(c)
	if !ok {
		return
	}

	item := s.item(p.Name(), c.Param("id"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	res, err := catalog.Await(ctx, func(cb catalog.Callback) *catalog.Handle {
		return p.Detail([]media.Media{item}, 0, cb)
	})
	if err != nil {
		catalogError(c, err)
		return
	}

	full := res.Items[0]
	s.seen.put(p.Name(), full)
	c.JSON(http.StatusOK, itemResponse{Kind: full.Kind(), Item: full})
}

// item returns the remembered item, or a stub carrying only its id.
func (s *Server) item(provider, id string) media.Media {
	if m, ok := s.seen.get(provider, id); ok {
		return m
	}
	return catalog.Stub(provider, id, s.caps)
}

// Search handlers

func (s *Server) search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		errorResponse(c, http.StatusBadRequest, "q is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	groups := []SearchGroupResponse{}
	for g := range s.aggregator.Search(ctx, q) {
		resp := SearchGroupResponse{Provider: g.Provider, Label: g.Label, Items: present(g.Items)}
		if g.Err != nil {
			resp.Error = g.Err.Error()
		} else {
			s.seen.put(g.Provider, g.Items...)
		}
		groups = append(groups, resp)
	}

	if err := ctx.Err(); err != nil {
		s.log.Debug("Search cut short", "keywords", q, "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "groups": groups})
}

// Status handlers

func (s *Server) getStatus(c *gin.Context) {
	var mirrors []MirrorStatus
	for _, p := range s.registry.All() {
		m, ok := p.(metrics.Mirrored)
		if !ok {
			continue
		}
		mirrors = append(mirrors, MirrorStatus{
			Provider: m.Name(),
			Mirrors:  m.Mirrors(),
			Index:    m.MirrorIndex(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"providers": mirrors,
	})
}
