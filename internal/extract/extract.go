package extract

import (
	"bufio"
	"fmt"
	"io"

	"go.uber.org/zap"
)

type state int

const (
	stateNoWeek state = iota
	stateInWeek
)

func (s state) String() string {
	if s == stateInWeek {
		return "in-week"
	}
	return "no-week"
}

// Extractor reads raw rows and writes week/day/event lines to a Sink.
// It is not safe for concurrent use.
type Extractor struct {
	log     *zap.Logger
	builder *Builder
	policy  *Policy
	buf     Buffer
	sink    Sink
	state   state
	weeks   int
}

// New returns an Extractor writing to sink.
func New(sink Sink, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{
		log:     log,
		builder: NewBuilder(log),
		policy:  NewPolicy(log),
		sink:    sink,
	}
}

// Weeks returns how many weeks have been serialized so far.
func (x *Extractor) Weeks() int {
	return x.weeks
}

// Feed processes one raw input line.
func (x *Extractor) Feed(line string) {
	x.state = x.transition(ClassifyRow(line))
}

// Finish closes any open week and writes everything still buffered.
func (x *Extractor) Finish() {
	if x.state == stateInWeek {
		x.closeWeek()
		x.state = stateNoWeek
	}
	if x.policy.InMissingData() {
		x.log.Info("input ends inside a missing-data span")
	}
	x.policy.Drain(&x.buf, x.sink)
}

// Run feeds every line of r and then calls Finish. Lines of any length are
// accepted. Finish runs even when reading fails, so weeks read so far are
// still written.
func (x *Extractor) Run(r io.Reader) error {
	reader := bufio.NewReader(r)
	var readErr error
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			x.Feed(line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			readErr = fmt.Errorf("failed to read input: %w", err)
			break
		}
	}
	x.Finish()
	return readErr
}

func (x *Extractor) transition(row Row) state {
	switch x.state {
	case stateNoWeek:
		if !row.HasDate() {
			return stateNoWeek
		}
		if !x.builder.LookForWeek(row.DateToken) {
			return stateNoWeek
		}
		x.readRow(row)
		return stateInWeek
	case stateInWeek:
		if row.Blank() {
			x.closeWeek()
			return stateNoWeek
		}
		if row.HasDate() {
			x.log.Warn("date row inside a week; reading its segments only",
				zap.String("token", row.DateToken),
				zap.String("week", x.builder.Week().Sunday().Format(dateLayout)))
		}
		x.readRow(row)
		return stateInWeek
	default:
		panic(fmt.Sprintf("extract: unknown state %d", x.state))
	}
}

func (x *Extractor) readRow(row Row) {
	if !x.builder.GetEvents(row.Segments) {
		x.log.Debug("row added no events", zap.Stringer("state", x.state))
	}
}

// closeWeek serializes the open week into the buffer. Each begin event is
// decided by the policy before its own line is appended.
func (x *Extractor) closeWeek() {
	week := x.builder.Week()
	if week == nil {
		return
	}
	x.buf.Append(HeaderOf(week.Header()))
	for _, day := range week.Days {
		x.buf.Append(HeaderOf(day.Header()))
		for _, ev := range day.Events {
			if ev.Action == ActionBegin {
				x.policy.Decide(ev, day.Date, &x.buf, x.sink)
			}
			x.buf.Append(EventOf(ev))
		}
	}
	x.weeks++
	x.builder.Reset()
}

// Extract reads raw rows from r and writes the extract stream to w.
func Extract(r io.Reader, w io.Writer, log *zap.Logger) error {
	sink := NewLineWriter(w)
	x := New(sink, log)
	if err := x.Run(r); err != nil {
		return err
	}
	x.log.Info("extract finished", zap.Int("weeks", x.Weeks()))
	return sink.Err()
}
