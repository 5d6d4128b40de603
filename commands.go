package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pascalwiersma/omroep-generator/internal/notify"
	"github.com/pascalwiersma/omroep-generator/internal/report"
	"github.com/pascalwiersma/omroep-generator/internal/route"
	"github.com/pascalwiersma/omroep-generator/internal/server"
	"github.com/pascalwiersma/omroep-generator/internal/session"
)

type StationsCmd struct {
	Query   string   `arg:"" help:"Part of a station name"`
	Exclude []string `help:"Station names to leave out"`
}

func (c *StationsCmd) Run(g *Globals) error {
	for _, name := range g.Directory.Match(c.Query, c.Exclude...) {
		fmt.Println(name)
	}
	return nil
}

type CatalogCmd struct{}

func (c *CatalogCmd) Run(g *Globals) error {
	sess := newSession(g)

	fmt.Println("Train types:")
	for _, t := range sess.TrainTypes() {
		fmt.Println("  " + t)
	}
	fmt.Println("Notices:")
	for _, n := range sess.NoticeCatalog() {
		fmt.Println("  " + n)
	}
	return nil
}

type RouteCmd struct {
	From string `required:"" help:"Departure station"`
	To   string `required:"" help:"Destination station"`
	Time string `help:"Departure time (HH:MM), tomorrow at 10:00 when omitted"`
}

func (c *RouteCmd) Run(g *Globals, ctx context.Context) error {
	sess := newSession(g)

	if err := selectJourney(ctx, sess, c.From, c.To, c.Time); err != nil {
		return err
	}

	for _, stop := range sess.IntermediateStops() {
		fmt.Println(stop)
	}
	return nil
}

type ComposeCmd struct {
	TrainType string   `required:"" help:"Train type, e.g. Intercity"`
	From      string   `required:"" help:"Departure station"`
	To        string   `required:"" help:"Destination station"`
	Time      string   `required:"" help:"Departure time (HH:MM)"`
	Notice    []string `help:"Service notice to append (repeatable)"`
	SkipStop  []string `help:"Intermediate stop to leave out (repeatable)"`
	Push      bool     `help:"Publish the announcement through Pushover"`
}

func (c *ComposeCmd) Run(g *Globals, ctx context.Context) error {
	sess := newSession(g)

	if err := sess.SetTrainType(c.TrainType); err != nil {
		return err
	}

	if err := selectJourney(ctx, sess, c.From, c.To, c.Time); err != nil {
		// The announcement can still be composed without intermediate stops.
		if !errors.Is(err, route.ErrRouteFetch) {
			return err
		}
		g.Logger.WithField("error", err).Warn("composing without route")
	}

	for _, stop := range c.SkipStop {
		sess.RemoveStop(stop)
	}
	for _, n := range c.Notice {
		if _, err := sess.ToggleNotice(n); err != nil {
			return err
		}
	}

	text, err := sess.Compose()
	if err != nil {
		return err
	}
	fmt.Println(text)

	if !c.Push {
		return nil
	}

	pushoverToken := os.Getenv("PUSHOVER_TOKEN")
	pushoverUser := os.Getenv("PUSHOVER_USER")
	if pushoverToken == "" || pushoverUser == "" {
		return errors.New("PUSHOVER_TOKEN and PUSHOVER_USER environment variables are required for --push")
	}

	sel := sess.Selection()
	notifier := notify.NewNotifier(pushoverToken, pushoverUser, g.Logger)
	return notifier.Publish(notify.Announcement{
		TrainType: sel.TrainType,
		Departure: fmt.Sprintf("%02d:%02d", *sel.Hour, *sel.Minute),
		Text:      text,
		Notices:   sess.Notices(),
	})
}

type ServeCmd struct {
	Listen string `help:"Listen address, overrides the config file"`
}

func (c *ServeCmd) Run(g *Globals, ctx context.Context) error {
	if c.Listen != "" {
		g.Config.Server.Listen = c.Listen
	}
	return server.New(g.Config, g.Directory, g.Client, version, g.Logger).ListenAndServe(ctx)
}

func newSession(g *Globals) *session.Session {
	coordinator := route.NewCoordinator(g.Client, g.Config.RouteService.Timeout, g.Logger)
	return session.New(g.Directory, coordinator, g.Config.TrainTypes, g.Config.Notices, g.Logger)
}

// selectJourney sets stations and time on sess and waits for the route.
// A failed lookup is reported and returned wrapped in route.ErrRouteFetch.
func selectJourney(ctx context.Context, sess *session.Session, from, to, clock string) error {
	var pending <-chan route.Outcome
	track := func(ch <-chan route.Outcome) {
		if ch != nil {
			pending = ch
		}
	}

	ch, err := sess.SelectFrom(ctx, from)
	if err != nil {
		return err
	}
	track(ch)

	ch, err = sess.SelectTo(ctx, to)
	if err != nil {
		return err
	}
	track(ch)

	if clock != "" {
		hour, minute, ok := strings.Cut(clock, ":")
		if !ok {
			return fmt.Errorf("invalid departure time %q: expected HH:MM", clock)
		}
		ch, ok = sess.SetHour(ctx, hour)
		if !ok {
			return fmt.Errorf("invalid departure hour %q", hour)
		}
		track(ch)
		ch, ok = sess.SetMinute(ctx, minute)
		if !ok {
			return fmt.Errorf("invalid departure minute %q", minute)
		}
		track(ch)
	}

	if pending == nil {
		return nil
	}

	select {
	case out := <-pending:
		if out.Err != nil {
			report.RouteFailure(out.Err, from, to)
			return out.Err
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
