package announcement

import (
	"errors"
	"strconv"
	"strings"
)

var ErrUnknownTrainType = errors.New("unknown train type")

// DefaultTrainTypes is the built-in train type catalog.
var DefaultTrainTypes = []string{
	"Intercity",
	"Sprinter",
	"Intercity Direct",
	"Thalys",
	"Eurostar",
	"IC Direct",
	"ICE",
	"Nightjet",
	"IC Berlijn",
}

// Selection holds the operator's choices. A nil Hour or Minute means the
// value has not been chosen yet, which is distinct from zero.
type Selection struct {
	TrainType string
	From      string
	To        string
	Hour      *int
	Minute    *int
}

// Complete reports whether every field required for composition is set.
func (s Selection) Complete() bool {
	return s.TrainType != "" && s.From != "" && s.To != "" && s.Hour != nil && s.Minute != nil
}

// Clone returns a copy that shares no memory with s.
func (s Selection) Clone() Selection {
	c := s
	if s.Hour != nil {
		h := *s.Hour
		c.Hour = &h
	}
	if s.Minute != nil {
		m := *s.Minute
		c.Minute = &m
	}
	return c
}

// ParseHour validates typed hour digits. Non-digits are dropped; a result
// with no digits clears the field (nil, true). Values outside 0-23 or
// longer than two digits are rejected (nil, false).
func ParseHour(text string) (*int, bool) {
	return parseDigits(text, 23)
}

// ParseMinute is ParseHour for the 0-59 range.
func ParseMinute(text string) (*int, bool) {
	return parseDigits(text, 59)
}

func parseDigits(text string, max int) (*int, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)

	if digits == "" {
		return nil, true
	}
	if len(digits) > 2 {
		return nil, false
	}

	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 || n > max {
		return nil, false
	}
	return &n, true
}
