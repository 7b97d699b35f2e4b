package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DaysInWeek is the number of Days in a Week.
const DaysInWeek = 7

const dateLayout = "2006-01-02"

// Action identifies what happened at an event's clock time.
type Action byte

// Actions read from input (b, s, w) and the markers written by the policy (N, Y).
const (
	ActionBegin   Action = 'b'
	ActionSuspend Action = 's'
	ActionWake    Action = 'w'
	ActionNoData  Action = 'N'
	ActionResumed Action = 'Y'
)

// Event is one timestamped action within a Day.
type Event struct {
	Action    Action
	ClockTime string
	// Hours is empty or a decimal with two fractional digits. On a begin
	// event it is the length of the preceding night.
	Hours string
}

// Complete reports whether the event carries hours.
func (e Event) Complete() bool {
	return e.Hours != ""
}

// String renders the event in the extract wire format.
func (e Event) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "action: %c, time: %s", e.Action, e.ClockTime)
	if e.Hours != "" {
		b.WriteString(", hours: ")
		b.WriteString(formatHours(e.Hours))
	}
	return b.String()
}

func formatHours(hours string) string {
	f, err := strconv.ParseFloat(hours, 64)
	if err != nil {
		return hours
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// Day holds the events recorded for one calendar date, in input order.
type Day struct {
	Date   time.Time
	Events []Event
}

// Header renders the day header line.
func (d Day) Header() string {
	return "    " + d.Date.Format(dateLayout)
}

// Week is seven consecutive Days starting on a Sunday.
type Week struct {
	Days [DaysInWeek]Day
}

// NewWeek builds an empty Week starting at sunday. It panics if sunday is
// not a Sunday.
func NewWeek(sunday time.Time) *Week {
	if sunday.Weekday() != time.Sunday {
		panic(fmt.Sprintf("extract: week must start on a Sunday, got %s (%s)",
			sunday.Format(dateLayout), sunday.Weekday()))
	}
	w := &Week{}
	for i := range w.Days {
		w.Days[i] = Day{Date: sunday.AddDate(0, 0, i)}
	}
	return w
}

// Sunday returns the first date of the week.
func (w *Week) Sunday() time.Time {
	return w.Days[0].Date
}

// Header renders the week header and its underline as one line.
func (w *Week) Header() string {
	header := fmt.Sprintf("\nWeek of Sunday, %s:", w.Sunday().Format(dateLayout))
	return header + "\n" + strings.Repeat("=", len(header)-2)
}
