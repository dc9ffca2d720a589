package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/shapedtime/catalogd/internal/dispatch"
	"github.com/shapedtime/catalogd/internal/search"
)

var interactiveCommand = &cli.Command{
	Name:  "interactive",
	Usage: "search as you type: each line replaces the query, an empty line submits it",
	Action: func(c *cli.Context) error {
		loop := dispatch.NewLoop(64)
		defer loop.Close()

		printer := &groupPrinter{out: os.Stdout}
		s, err := newService(c, true, loop, printer)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		lines := make(chan string)
		go func() {
			defer close(lines)
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				lines <- scanner.Text()
			}
		}()

		var current string
		for {
			select {
			case <-ctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					s.aggregator.Wait()
					loop.Sync()
					return nil
				}
				if strings.TrimSpace(line) == "" {
					s.aggregator.Submit(current)
					continue
				}
				current = line
				s.aggregator.Query(current)
			}
		}
	},
}

// groupPrinter renders search groups. It runs on the dispatch loop, so it
// needs no locking.
type groupPrinter struct {
	out io.Writer
}

func (p *groupPrinter) Clear() {
	fmt.Fprintln(p.out, "----")
}

func (p *groupPrinter) Group(g search.Group) {
	if g.Err != nil {
		fmt.Fprintf(p.out, "%s: %v\n", g.Label, g.Err)
		return
	}
	fmt.Fprintf(p.out, "%s (%d)\n", g.Label, len(g.Items))
	for _, m := range g.Items {
		b := m.Base()
		fmt.Fprintf(p.out, "  %-10s %s (%s) %s\n", b.VideoID, b.Title, b.Year, b.Rating)
	}
}
