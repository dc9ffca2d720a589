package main

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/shapedtime/catalogd/internal/catalog"
	"github.com/shapedtime/catalogd/internal/config"
	"github.com/shapedtime/catalogd/internal/dispatch"
	"github.com/shapedtime/catalogd/internal/media"
	"github.com/shapedtime/catalogd/internal/metrics"
	"github.com/shapedtime/catalogd/internal/opensubtitles"
	"github.com/shapedtime/catalogd/internal/search"
	"github.com/shapedtime/catalogd/internal/tmdb"
	"github.com/shapedtime/catalogd/internal/transport"
)

// service holds everything a command needs, built from one config.
type service struct {
	cfg        *config.Config
	registry   *catalog.Registry
	aggregator *search.Aggregator
	caps       media.Capabilities
	subtitles  *opensubtitles.Client
	metrics    *metrics.Metrics
	promReg    *prometheus.Registry
	cache      *transport.Cache
	logCloser  io.Closer
}

// load reads the config named by the global flag and sets up logging.
func load(c *cli.Context, printsResults bool) (*config.Config, io.Closer, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, nil, fmt.Errorf("create directories: %w", err)
	}
	closer := setupLogging(cfg.Log, stderrOrStdout(printsResults))
	return cfg, closer, nil
}

// newService wires providers, capabilities and metrics. d is the context
// callbacks are delivered on; sink receives keystroke-driven search
// results and may be nil.
func newService(c *cli.Context, printsResults bool, d dispatch.Dispatcher, sink search.Sink) (*service, error) {
	cfg, closer, err := load(c, printsResults)
	if err != nil {
		return nil, err
	}

	s := &service{cfg: cfg, logCloser: closer}

	s.promReg = prometheus.NewRegistry()
	s.promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.metrics = metrics.New(s.promReg)

	// Capabilities handed to every item
	if cfg.OpenSubtitles.APIKey != "" {
		s.subtitles = opensubtitles.NewClient(opensubtitles.Config{
			APIKey:    cfg.OpenSubtitles.APIKey,
			Username:  cfg.OpenSubtitles.Username,
			Password:  cfg.OpenSubtitles.Password,
			Languages: cfg.OpenSubtitles.Languages,
		})
		s.caps.Subtitles = s.subtitles
		slog.Info("OpenSubtitles client initialized")
	} else {
		slog.Warn("OpenSubtitles API key not configured, subtitle lookup will be unavailable")
	}
	if cfg.TMDB.APIKey != "" {
		s.caps.Metadata = tmdb.NewClient(cfg.TMDB.APIKey, "")
		slog.Info("TMDB client initialized")
	}

	// Transport
	var doer transport.Doer = transport.NewClient(cfg.RequestTimeout(), cfg.HTTP.UserAgent)
	if cfg.Cache.Enabled {
		s.cache, err = transport.NewCache(doer, cfg.CacheTTL())
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open response cache: %w", err)
		}
		doer = s.cache
	}

	deps := catalog.Deps{
		Doer:         doer,
		Calls:        transport.NewCalls(),
		Runner:       catalog.NewRunner(cfg.HTTP.MaxConcurrent),
		Dispatcher:   d,
		Capabilities: s.caps,
		Observer:     s.metrics,
		Skips:        s.metrics,
	}

	var mirrored []metrics.Mirrored
	s.registry, mirrored, err = registerProviders(cfg.Providers, deps)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.promReg.MustRegister(metrics.NewMirrorCollector(mirrored...))

	s.aggregator = search.New(s.registry.All(), sink, search.Options{
		Delay:          cfg.SearchDelay(),
		MinQueryLength: cfg.Search.MinQueryLength,
		Dispatcher:     d,
	})

	return s, nil
}

// registerProviders builds every enabled provider. An enabled provider
// with an unknown name is a configuration error.
func registerProviders(providers map[string]config.ProviderConfig, deps catalog.Deps) (*catalog.Registry, []metrics.Mirrored, error) {
	for name, pc := range providers {
		if pc.Enabled && !slices.Contains(catalog.Names(), name) {
			return nil, nil, fmt.Errorf("unknown provider %q (known: %v)", name, catalog.Names())
		}
	}

	registry := catalog.NewRegistry()
	var mirrored []metrics.Mirrored
	for _, name := range catalog.Names() {
		pc, ok := providers[name]
		if !ok || !pc.Enabled {
			continue
		}
		src, ok := catalog.New(name, catalog.Options{Mirrors: pc.Mirrors, Limit: pc.Limit}, deps)
		if !ok {
			return nil, nil, fmt.Errorf("unknown provider %q", name)
		}
		if err := registry.Register(src); err != nil {
			return nil, nil, err
		}
		mirrored = append(mirrored, src)
		slog.Debug("Provider registered", "provider", name, "mirrors", len(src.Mirrors()))
	}
	return registry, mirrored, nil
}

func (s *service) provider(name string) (catalog.Provider, error) {
	p, ok := s.registry.Get(name)
	if !ok {
		return nil, cli.Exit(fmt.Sprintf("unknown or disabled provider %q (known: %v)", name, catalog.Names()), 2)
	}
	return p, nil
}

// Close cancels in-flight calls and releases resources. It is safe on a
// partly built service.
func (s *service) Close() {
	if s.aggregator != nil {
		s.aggregator.Close()
	}
	if s.registry != nil {
		s.registry.CancelAll()
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			slog.Warn("Failed to close response cache", "error", err)
		}
	}
	s.logCloser.Close()
}
