// Package extract turns raw spreadsheet rows into week/day/event lines,
// keeping only nights whose closing data is present.
package extract

import (
	"errors"
	"fmt"
	"regexp"
)

// Validation errors returned by Segment.Validate.
var (
	ErrEmptySegment    = errors.New("empty segment")
	ErrMissingField    = errors.New("action and time are required")
	ErrBadTime         = errors.New("time must be H:MM or HH:MM")
	ErrBadHours        = errors.New("hours must be D.DD or DD.DD")
	ErrBadAction       = errors.New("action must start with b, s or w")
	ErrHoursNotAllowed = errors.New("suspend must not carry hours")
	ErrHoursRequired   = errors.New("wake must carry hours")
)

var (
	timeRe  = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)
	hoursRe = regexp.MustCompile(`^\d{1,2}\.\d{2}$`)
)

// Segment is one day slot of a raw row: action, time, hours.
type Segment [3]string

// Action returns the raw action field.
func (s Segment) Action() string { return s[0] }

// Time returns the raw clock time field.
func (s Segment) Time() string { return s[1] }

// Hours returns the raw duration field, possibly empty.
func (s Segment) Hours() string { return s[2] }

// Blank reports whether all three fields are empty.
func (s Segment) Blank() bool {
	return s[0] == "" && s[1] == "" && s[2] == ""
}

// Validate checks the segment in a fixed order and returns the first failure.
func (s Segment) Validate() error {
	if s.Blank() {
		return ErrEmptySegment
	}
	if s.Action() == "" || s.Time() == "" {
		return ErrMissingField
	}
	if !timeRe.MatchString(s.Time()) {
		return fmt.Errorf("%w: %q", ErrBadTime, s.Time())
	}
	if s.Hours() != "" && !hoursRe.MatchString(s.Hours()) {
		return fmt.Errorf("%w: %q", ErrBadHours, s.Hours())
	}
	switch Action(s.Action()[0]) {
	case ActionBegin:
	case ActionSuspend:
		if s.Hours() != "" {
			return ErrHoursNotAllowed
		}
	case ActionWake:
		if s.Hours() == "" {
			return ErrHoursRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrBadAction, s.Action())
	}
	return nil
}

// Valid reports whether Validate succeeds.
func (s Segment) Valid() bool {
	return s.Validate() == nil
}

// Event builds the event a valid segment describes.
func (s Segment) Event() Event {
	return Event{
		Action:    Action(s.Action()[0]),
		ClockTime: s.Time(),
		Hours:     s.Hours(),
	}
}
