package route

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type result struct {
	stops []string
	err   error
}

type call struct {
	from    string
	to      string
	at      time.Time
	release chan result
}

// gatedFinder blocks every lookup until the test releases it, ignoring
// cancellation so responses can be resolved in any order.
type gatedFinder struct {
	calls chan *call
}

func newGatedFinder() *gatedFinder {
	return &gatedFinder{calls: make(chan *call, 8)}
}

func (f *gatedFinder) FindRoute(_ context.Context, from, to string, at time.Time) ([]string, error) {
	c := &call{from: from, to: to, at: at, release: make(chan result, 1)}
	f.calls <- c
	r := <-c.release
	return r.stops, r.err
}

func (f *gatedFinder) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for route request")
		return nil
	}
}

type finderFunc func(ctx context.Context, from, to string, at time.Time) ([]string, error)

func (f finderFunc) FindRoute(ctx context.Context, from, to string, at time.Time) ([]string, error) {
	return f(ctx, from, to, at)
}

func staticFinder(stops ...string) Finder {
	return finderFunc(func(context.Context, string, string, time.Time) ([]string, error) {
		return stops, nil
	})
}

func wait(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for route outcome")
		return Outcome{}
	}
}

func newTestCoordinator(finder Finder) (*Coordinator, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	c := NewCoordinator(finder, time.Second, logger)
	c.now = func() time.Time {
		return time.Date(2026, time.October, 16, 14, 30, 0, 0, time.Local)
	}
	return c, hook
}

func intp(v int) *int { return &v }

func TestResolveDeparture(t *testing.T) {
	now := time.Date(2026, time.October, 16, 23, 30, 0, 0, time.Local)

	t.Run("ExplicitTime", func(t *testing.T) {
		got := ResolveDeparture(now, intp(9), intp(5))
		want := time.Date(2026, time.October, 17, 9, 5, 0, 0, time.Local)
		if !got.Equal(want) {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})

	t.Run("DefaultsToTenOClock", func(t *testing.T) {
		want := time.Date(2026, time.October, 17, 10, 0, 0, 0, time.Local)
		for _, tc := range []struct {
			hour, minute *int
		}{
			{nil, nil},
			{intp(9), nil},
			{nil, intp(5)},
		} {
			if got := ResolveDeparture(now, tc.hour, tc.minute); !got.Equal(want) {
				t.Errorf("Expected %v, got %v", want, got)
			}
		}
	})

	t.Run("YearRollover", func(t *testing.T) {
		eve := time.Date(2026, time.December, 31, 8, 0, 0, 0, time.Local)
		got := ResolveDeparture(eve, intp(0), intp(0))
		want := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.Local)
		if !got.Equal(want) {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})
}

func TestTrigger(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		finder := newGatedFinder()
		c, _ := newTestCoordinator(finder)

		done := c.Trigger(context.Background(), "Schagen", "Den Helder", intp(9), intp(5))
		req := finder.next(t)
		if req.from != "Schagen" || req.to != "Den Helder" {
			t.Errorf("Expected Schagen -> Den Helder, got %s -> %s", req.from, req.to)
		}
		if want := time.Date(2026, time.October, 17, 9, 5, 0, 0, time.Local); !req.at.Equal(want) {
			t.Errorf("Expected departure %v, got %v", want, req.at)
		}
		if !c.Loading() {
			t.Errorf("Expected loading while request is in flight")
		}

		req.release <- result{stops: []string{"Schagen", "Anna Paulowna", "Den Helder"}}
		out := wait(t, done)
		if out.Err != nil || out.Stale {
			t.Fatalf("Expected applied outcome, got %+v", out)
		}
		if c.Loading() {
			t.Errorf("Expected loading to be cleared")
		}
		if got := c.IntermediateStops(); !slices.Equal(got, []string{"Anna Paulowna"}) {
			t.Errorf("Expected [Anna Paulowna], got %v", got)
		}
	})

	t.Run("MissingStationClearsWithoutFetching", func(t *testing.T) {
		var calls int
		finder := finderFunc(func(context.Context, string, string, time.Time) ([]string, error) {
			calls++
			return []string{"Schagen", "Anna Paulowna", "Den Helder"}, nil
		})
		c, _ := newTestCoordinator(finder)

		wait(t, c.Trigger(context.Background(), "Schagen", "Den Helder", nil, nil))
		if len(c.Stops()) != 3 {
			t.Fatalf("Expected 3 stops, got %v", c.Stops())
		}

		out := wait(t, c.Trigger(context.Background(), "Schagen", "", nil, nil))
		if out.Err != nil || out.Stale {
			t.Errorf("Expected clean reset outcome, got %+v", out)
		}
		if calls != 1 {
			t.Errorf("Expected 1 fetch, got %d", calls)
		}
		if len(c.Stops()) != 0 {
			t.Errorf("Expected stops to be cleared, got %v", c.Stops())
		}
		if len(c.IntermediateStops()) != 0 {
			t.Errorf("Expected intermediate stops to be cleared, got %v", c.IntermediateStops())
		}
	})

	t.Run("ClearDiscardsInFlightResponse", func(t *testing.T) {
		finder := newGatedFinder()
		c, _ := newTestCoordinator(finder)

		pending := c.Trigger(context.Background(), "Schagen", "Den Helder", nil, nil)
		req := finder.next(t)
		wait(t, c.Trigger(context.Background(), "", "Den Helder", nil, nil))

		req.release <- result{stops: []string{"Schagen", "Anna Paulowna", "Den Helder"}}
		if out := wait(t, pending); !out.Stale {
			t.Errorf("Expected stale outcome, got %+v", out)
		}
		if len(c.Stops()) != 0 {
			t.Errorf("Expected stops to stay empty, got %v", c.Stops())
		}
	})

	t.Run("OutOfOrderResponses", func(t *testing.T) {
		finder := newGatedFinder()
		c, _ := newTestCoordinator(finder)

		first := c.Trigger(context.Background(), "Schagen", "Den Helder", intp(9), intp(0))
		r1 := finder.next(t)
		second := c.Trigger(context.Background(), "Schagen", "Den Helder", intp(10), intp(0))
		r2 := finder.next(t)

		r2.release <- result{stops: []string{"Schagen", "Anna Paulowna", "Den Helder"}}
		out2 := wait(t, second)
		if out2.Stale || out2.Err != nil {
			t.Fatalf("Expected second request to apply, got %+v", out2)
		}

		r1.release <- result{stops: []string{"Schagen", "Den Helder Zuid", "Den Helder"}}
		out1 := wait(t, first)
		if !out1.Stale {
			t.Errorf("Expected first request to be stale, got %+v", out1)
		}
		if out1.Seq >= out2.Seq {
			t.Errorf("Expected increasing sequence numbers, got %d then %d", out1.Seq, out2.Seq)
		}

		want := []string{"Schagen", "Anna Paulowna", "Den Helder"}
		if got := c.Stops(); !slices.Equal(got, want) {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})

	t.Run("FailureKeepsPreviousStops", func(t *testing.T) {
		finder := newGatedFinder()
		c, hook := newTestCoordinator(finder)

		ok := c.Trigger(context.Background(), "Schagen", "Den Helder", nil, nil)
		finder.next(t).release <- result{stops: []string{"Schagen", "Anna Paulowna", "Den Helder"}}
		wait(t, ok)

		failed := c.Trigger(context.Background(), "Schagen", "Den Helder", intp(8), intp(15))
		finder.next(t).release <- result{err: errors.New("connection refused")}
		out := wait(t, failed)

		if !errors.Is(out.Err, ErrRouteFetch) {
			t.Errorf("Expected ErrRouteFetch, got %v", out.Err)
		}
		if !errors.Is(c.LastError(), ErrRouteFetch) {
			t.Errorf("Expected LastError to be ErrRouteFetch, got %v", c.LastError())
		}
		if got := c.IntermediateStops(); !slices.Equal(got, []string{"Anna Paulowna"}) {
			t.Errorf("Expected previous stops to be kept, got %v", got)
		}
		if entry := hook.LastEntry(); entry == nil || entry.Level != logrus.WarnLevel {
			t.Errorf("Expected a warning to be logged, got %+v", entry)
		}

		again := c.Trigger(context.Background(), "Schagen", "Den Helder", intp(8), intp(15))
		finder.next(t).release <- result{stops: []string{"Schagen", "Den Helder"}}
		wait(t, again)
		if c.LastError() != nil {
			t.Errorf("Expected LastError to be cleared after success, got %v", c.LastError())
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		finder := finderFunc(func(ctx context.Context, _, _ string, _ time.Time) ([]string, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
		c, _ := newTestCoordinator(finder)
		c.timeout = 20 * time.Millisecond

		out := wait(t, c.Trigger(context.Background(), "Schagen", "Den Helder", nil, nil))
		if !errors.Is(out.Err, context.DeadlineExceeded) {
			t.Errorf("Expected deadline exceeded, got %v", out.Err)
		}
		if !errors.Is(out.Err, ErrRouteFetch) {
			t.Errorf("Expected ErrRouteFetch, got %v", out.Err)
		}
	})
}

func TestIntermediateStops(t *testing.T) {
	c, _ := newTestCoordinator(staticFinder("Schagen", "Anna Paulowna", "Schagen", "Den Helder Zuid", "Den Helder"))

	if got := c.IntermediateStops(); len(got) != 0 {
		t.Errorf("Expected no stops before any trigger, got %v", got)
	}

	wait(t, c.Trigger(context.Background(), "Schagen", "Den Helder", nil, nil))
	want := []string{"Anna Paulowna", "Den Helder Zuid"}
	if got := c.IntermediateStops(); !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestRemoveStop(t *testing.T) {
	c, _ := newTestCoordinator(staticFinder("Alkmaar", "Heerhugowaard", "Schagen", "Anna Paulowna", "Den Helder"))
	wait(t, c.Trigger(context.Background(), "Alkmaar", "Den Helder", nil, nil))

	c.RemoveStop("Schagen")
	once := c.Stops()
	c.RemoveStop("Schagen")
	twice := c.Stops()

	want := []string{"Alkmaar", "Heerhugowaard", "Anna Paulowna", "Den Helder"}
	if !slices.Equal(once, want) {
		t.Errorf("Expected %v, got %v", want, once)
	}
	if !slices.Equal(once, twice) {
		t.Errorf("Expected removal to be idempotent, got %v then %v", once, twice)
	}

	c.RemoveStop("Zwolle")
	if got := c.Stops(); !slices.Equal(got, want) {
		t.Errorf("Expected removing an unknown stop to be a no-op, got %v", got)
	}
	if got := c.IntermediateStops(); !slices.Equal(got, []string{"Heerhugowaard", "Anna Paulowna"}) {
		t.Errorf("Expected [Heerhugowaard Anna Paulowna], got %v", got)
	}
}
