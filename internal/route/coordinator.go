package route

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pascalwiersma/omroep-generator/internal/metrics"
)

// DefaultHour is used when no departure time has been chosen.
const DefaultHour = 10

var ErrRouteFetch = errors.New("route fetch failed")

// Finder looks up the ordered stops between two stations.
type Finder interface {
	FindRoute(ctx context.Context, from, to string, at time.Time) ([]string, error)
}

// Outcome describes how a triggered request was resolved. Stale outcomes
// were superseded by a later trigger and did not touch the route.
type Outcome struct {
	Seq   uint64
	Stops []string
	Err   error
	Stale bool
}

// Coordinator owns the route stops for the current from/to pair. Every
// trigger gets a sequence number; only the response to the most recently
// issued request is applied.
type Coordinator struct {
	finder  Finder
	timeout time.Duration
	logger  *logrus.Logger
	now     func() time.Time

	mu      sync.Mutex
	seq     uint64
	from    string
	to      string
	stops   []string
	loading bool
	lastErr error
	cancel  context.CancelFunc
}

func NewCoordinator(finder Finder, timeout time.Duration, logger *logrus.Logger) *Coordinator {
	return &Coordinator{
		finder:  finder,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// ResolveDeparture returns the departure time sent to the Route Service:
// the next calendar day at hour:minute, or at 10:00 when either is unset.
func ResolveDeparture(now time.Time, hour, minute *int) time.Time {
	h, m := DefaultHour, 0
	if hour != nil && minute != nil {
		h, m = *hour, *minute
	}
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), h, m, 0, 0, now.Location())
}

// Trigger recomputes the route for the given selection. With a missing
// station the stops are cleared without contacting the Route Service.
// Otherwise a fetch is started in the background; the returned channel
// receives its Outcome once and is then closed.
func (c *Coordinator) Trigger(ctx context.Context, from, to string, hour, minute *int) <-chan Outcome {
	done := make(chan Outcome, 1)

	c.mu.Lock()
	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.from, c.to = from, to

	if from == "" || to == "" {
		c.stops = nil
		c.loading = false
		c.lastErr = nil
		c.mu.Unlock()

		done <- Outcome{Seq: seq}
		close(done)
		return done
	}

	var (
		reqCtx context.Context
		cancel context.CancelFunc
	)
	if c.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		reqCtx, cancel = context.WithCancel(ctx)
	}
	c.cancel = cancel
	c.loading = true
	at := ResolveDeparture(c.now(), hour, minute)
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"seq":       seq,
		"from":      from,
		"to":        to,
		"departure": at.Format("2006-01-02T15:04"),
	}).Debug("requesting route")

	go func() {
		defer close(done)
		defer cancel()

		start := time.Now()
		stops, err := c.finder.FindRoute(reqCtx, from, to, at)
		metrics.RouteRequestDuration.Observe(time.Since(start).Seconds())

		done <- c.apply(seq, from, to, stops, err)
	}()

	return done
}

func (c *Coordinator) apply(seq uint64, from, to string, stops []string, err error) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := Outcome{Seq: seq}
	if err != nil {
		out.Err = fmt.Errorf("%w: %s -> %s: %w", ErrRouteFetch, from, to, err)
	}

	if seq != c.seq {
		out.Stale = true
		metrics.RouteRequests.WithLabelValues(metrics.OutcomeStale).Inc()
		c.logger.WithFields(logrus.Fields{
			"seq":    seq,
			"latest": c.seq,
		}).Debug("discarding stale route response")
		return out
	}

	c.loading = false
	c.cancel = nil

	if out.Err != nil {
		c.lastErr = out.Err
		out.Stops = slices.Clone(c.stops)
		metrics.RouteRequests.WithLabelValues(metrics.OutcomeFailure).Inc()
		c.logger.WithFields(logrus.Fields{
			"seq":   seq,
			"from":  from,
			"to":    to,
			"error": err,
		}).Warn("route fetch failed, keeping previous stops")
		return out
	}

	c.stops = slices.Clone(stops)
	c.lastErr = nil
	out.Stops = slices.Clone(stops)
	metrics.RouteRequests.WithLabelValues(metrics.OutcomeSuccess).Inc()
	c.logger.WithFields(logrus.Fields{
		"seq":   seq,
		"from":  from,
		"to":    to,
		"stops": len(stops),
	}).Info("route updated")

	return out
}

// RemoveStop drops every entry equal to station from the route without
// fetching again.
func (c *Coordinator) RemoveStop(station string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops = slices.DeleteFunc(c.stops, func(s string) bool { return s == station })
}

// Stops returns a copy of the full route, endpoints included.
func (c *Coordinator) Stops() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.stops)
}

// IntermediateStops returns the route without the from and to stations.
func (c *Coordinator) IntermediateStops() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.from == "" || c.to == "" || len(c.stops) == 0 {
		return []string{}
	}

	via := make([]string, 0, len(c.stops))
	for _, s := range c.stops {
		if s == c.from || s == c.to {
			continue
		}
		via = append(via, s)
	}
	return via
}

// Loading reports whether the most recent request is still in flight.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LastError returns the failure of the most recent request, if any.
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
