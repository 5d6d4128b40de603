package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pascalwiersma/omroep-generator/internal/announcement"
	"github.com/pascalwiersma/omroep-generator/internal/metrics"
	"github.com/pascalwiersma/omroep-generator/internal/notice"
	"github.com/pascalwiersma/omroep-generator/internal/route"
	"github.com/pascalwiersma/omroep-generator/internal/station"
)

// Session is the state a presentation layer drives: the selection, the
// derived route and the chosen notices. Mutations of from, to, hour or
// minute recompute the route and return the channel of the fetch they
// scheduled (nil when nothing changed).
type Session struct {
	directory   *station.Directory
	coordinator *route.Coordinator
	trainTypes  []string
	logger      *logrus.Logger

	mu      sync.Mutex
	sel     announcement.Selection
	notices *notice.Selector
}

func New(
	directory *station.Directory,
	coordinator *route.Coordinator,
	trainTypes []string,
	notices []string,
	logger *logrus.Logger,
) *Session {
	if len(trainTypes) == 0 {
		trainTypes = announcement.DefaultTrainTypes
	}
	return &Session{
		directory:   directory,
		coordinator: coordinator,
		trainTypes:  slices.Clone(trainTypes),
		logger:      logger,
		notices:     notice.NewSelector(notices),
	}
}

func (s *Session) TrainTypes() []string {
	return slices.Clone(s.trainTypes)
}

func (s *Session) NoticeCatalog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notices.Catalog()
}

func (s *Session) SetTrainType(trainType string) error {
	if !slices.Contains(s.trainTypes, trainType) {
		return fmt.Errorf("%w: %q", announcement.ErrUnknownTrainType, trainType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.TrainType = trainType
	return nil
}

// SetHour applies typed hour digits. It returns false, leaving the
// selection untouched, when the text is not a valid hour.
func (s *Session) SetHour(ctx context.Context, text string) (<-chan route.Outcome, bool) {
	hour, ok := announcement.ParseHour(text)
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if equalInt(s.sel.Hour, hour) {
		return nil, true
	}
	s.sel.Hour = hour
	return s.recompute(ctx), true
}

func (s *Session) SetMinute(ctx context.Context, text string) (<-chan route.Outcome, bool) {
	minute, ok := announcement.ParseMinute(text)
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if equalInt(s.sel.Minute, minute) {
		return nil, true
	}
	s.sel.Minute = minute
	return s.recompute(ctx), true
}

func (s *Session) SelectFrom(ctx context.Context, name string) (<-chan route.Outcome, error) {
	if !s.directory.Contains(name) {
		return nil, fmt.Errorf("%w: %q", station.ErrUnknownStation, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sel.From == name {
		return nil, nil
	}
	s.sel.From = name
	return s.recompute(ctx), nil
}

// ClearFrom unsets the departure station, which also empties the route.
func (s *Session) ClearFrom(ctx context.Context) <-chan route.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.From = ""
	return s.recompute(ctx)
}

func (s *Session) SelectTo(ctx context.Context, name string) (<-chan route.Outcome, error) {
	if !s.directory.Contains(name) {
		return nil, fmt.Errorf("%w: %q", station.ErrUnknownStation, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sel.To == name {
		return nil, nil
	}
	s.sel.To = name
	return s.recompute(ctx), nil
}

func (s *Session) ClearTo(ctx context.Context) <-chan route.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.To = ""
	return s.recompute(ctx)
}

// recompute is the single trigger for route derivation. Callers hold s.mu
// so triggers are issued in mutation order.
func (s *Session) recompute(ctx context.Context) <-chan route.Outcome {
	return s.coordinator.Trigger(ctx, s.sel.From, s.sel.To, s.sel.Hour, s.sel.Minute)
}

// RemoveStop drops an intermediate stop from the current route.
func (s *Session) RemoveStop(name string) {
	s.coordinator.RemoveStop(name)
}

func (s *Session) ToggleNotice(n string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notices.Toggle(n)
}

// FromSuggestions matches query against the station directory.
func (s *Session) FromSuggestions(query string) []string {
	return s.directory.Match(query)
}

// ToSuggestions matches query, leaving out the chosen departure station.
func (s *Session) ToSuggestions(query string) []string {
	s.mu.Lock()
	from := s.sel.From
	s.mu.Unlock()

	if from == "" {
		return s.directory.Match(query)
	}
	return s.directory.Match(query, from)
}

// Compose builds the announcement from the current state.
func (s *Session) Compose() (string, error) {
	s.mu.Lock()
	sel := s.sel.Clone()
	notices := s.notices.Selected()
	s.mu.Unlock()

	text, err := announcement.Compose(sel, s.coordinator.IntermediateStops(), notices)
	if err != nil {
		if errors.Is(err, announcement.ErrIncompleteSelection) {
			metrics.IncompleteSelections.Inc()
		}
		return "", err
	}

	metrics.AnnouncementsComposed.Inc()
	s.logger.WithFields(logrus.Fields{
		"train_type": sel.TrainType,
		"from":       sel.From,
		"to":         sel.To,
		"notices":    len(notices),
	}).Debug("announcement composed")

	return text, nil
}

func (s *Session) Selection() announcement.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Clone()
}

func (s *Session) IntermediateStops() []string {
	return s.coordinator.IntermediateStops()
}

func (s *Session) Notices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notices.Selected()
}

func (s *Session) Loading() bool {
	return s.coordinator.Loading()
}

func (s *Session) LastError() error {
	return s.coordinator.LastError()
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
