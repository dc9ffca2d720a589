package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/shapedtime/catalogd/internal/catalog"
	"github.com/shapedtime/catalogd/internal/dispatch"
	"github.com/shapedtime/catalogd/internal/filter"
	"github.com/shapedtime/catalogd/internal/media"
)

var listCommand = &cli.Command{
	Name:      "list",
	Usage:     "print one page of a provider's catalog as JSON",
	ArgsUsage: "<provider>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "sort", Value: "popularity", Usage: "popularity, trending, rating, date, year or alphabet"},
		&cli.StringFlag{Name: "order", Value: "desc", Usage: "asc or desc"},
		&cli.StringFlag{Name: "genre", Usage: "genre key"},
		&cli.StringFlag{Name: "keywords", Aliases: []string{"q"}, Usage: "free-text query"},
		&cli.IntFlag{Name: "page", Usage: "page number, starting at 1"},
		&cli.StringFlag{Name: "lang", Value: filter.DefaultLang, Usage: "language code"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("usage: catalogd list <provider>", 2)
		}
		f, err := filtersFromFlags(c)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}

		s, err := newService(c, true, dispatch.Inline{}, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := s.provider(c.Args().First())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := catalog.Await(ctx, func(cb catalog.Callback) *catalog.Handle {
			return p.List(nil, f, cb)
		})
		if err != nil {
			return err
		}
		return printJSON(res.Items)
	},
}

var detailCommand = &cli.Command{
	Name:      "detail",
	Usage:     "print the full form of one item as JSON",
	ArgsUsage: "<provider> <id>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return cli.Exit("usage: catalogd detail <provider> <id>", 2)
		}

		s, err := newService(c, true, dispatch.Inline{}, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := s.provider(c.Args().Get(0))
		if err != nil {
			return err
		}
		item := catalog.Stub(p.Name(), c.Args().Get(1), s.caps)

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := catalog.Await(ctx, func(cb catalog.Callback) *catalog.Handle {
			return p.Detail([]media.Media{item}, 0, cb)
		})
		if err != nil {
			return err
		}
		return printJSON(res.Items[0])
	},
}

var searchCommand = &cli.Command{
	Name:      "search",
	Usage:     "search every enabled provider and print the groups as JSON lines",
	ArgsUsage: "<keywords>",
	Action: func(c *cli.Context) error {
		keywords := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
		if keywords == "" {
			return cli.Exit("usage: catalogd search <keywords>", 2)
		}

		s, err := newService(c, true, dispatch.Inline{}, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		enc := json.NewEncoder(os.Stdout)
		for g := range s.aggregator.Search(ctx, keywords) {
			line := map[string]any{"provider": g.Provider, "label": g.Label, "items": g.Items}
			if g.Err != nil {
				line["error"] = g.Err.Error()
			}
			if err := enc.Encode(line); err != nil {
				return err
			}
		}
		return ctx.Err()
	},
}

func filtersFromFlags(c *cli.Context) (filter.Filters, error) {
	f := filter.New()

	sort, err := filter.ParseSort(c.String("sort"))
	if err != nil {
		return f, err
	}
	order, err := filter.ParseOrder(c.String("order"))
	if err != nil {
		return f, err
	}
	f.Sort = sort
	f.Order = order
	f.LangCode = c.String("lang")

	if kw := c.String("keywords"); kw != "" {
		f = f.WithKeywords(kw)
	}
	if genre := c.String("genre"); genre != "" {
		f = f.WithGenre(genre)
	}
	if page := c.Int("page"); page > 0 {
		f = f.WithPage(page)
	} else if page < 0 {
		return f, fmt.Errorf("page must be positive")
	}
	return f, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
