package extract

import (
	"time"

	"go.uber.org/zap"
)

// Builder assembles the Week currently being read.
type Builder struct {
	log  *zap.Logger
	week *Week
}

// NewBuilder returns a Builder with no open week.
func NewBuilder(log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{log: log}
}

// Week returns the open week, or nil.
func (b *Builder) Week() *Week {
	return b.week
}

// Reset drops the open week.
func (b *Builder) Reset() {
	b.week = nil
}

// LookForWeek opens a new Week when token is a Sunday date. Any other date
// is logged and leaves the builder without a week.
func (b *Builder) LookForWeek(token string) bool {
	date, err := ParseDateToken(token)
	if err != nil {
		b.log.Warn("invalid date found in input", zap.String("token", token), zap.Error(err))
		b.week = nil
		return false
	}
	if !isSunday(date) {
		b.log.Warn("non-Sunday date found in input", zap.String("date", date.Format(dateLayout)))
		b.week = nil
		return false
	}
	b.week = NewWeek(date)
	return true
}

// GetEvents appends an Event to the matching Day for every valid segment.
// Blank slots are skipped quietly, malformed ones with a warning. It
// returns true iff at least one event was added.
func (b *Builder) GetEvents(segments [DaysInWeek]Segment) bool {
	if b.week == nil {
		return false
	}
	added := false
	for i, seg := range segments {
		if seg.Blank() {
			continue
		}
		if err := seg.Validate(); err != nil {
			b.log.Warn("segment not valid",
				zap.Strings("segment", seg[:]),
				zap.String("date", b.week.Days[i].Date.Format(dateLayout)),
				zap.Error(err))
			continue
		}
		b.week.Days[i].Events = append(b.week.Days[i].Events, seg.Event())
		added = true
	}
	return added
}

func isSunday(date time.Time) bool {
	return date.Weekday() == time.Sunday
}
