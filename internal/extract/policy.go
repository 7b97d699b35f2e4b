package extract

import (
	"time"

	"go.uber.org/zap"
)

// Policy decides, at every begin event, whether the buffered night before
// it is complete enough to write out.
type Policy struct {
	log *zap.Logger
	// inMissingData is set after a night is pruned and cleared when the
	// next complete night is flushed.
	inMissingData bool
}

// NewPolicy returns a Policy logging to log.
func NewPolicy(log *zap.Logger) *Policy {
	if log == nil {
		log = zap.NewNop()
	}
	return &Policy{log: log}
}

// InMissingData reports whether the last decision pruned a night and no
// complete night has been flushed since.
func (p *Policy) InMissingData() bool {
	return p.inMissingData
}

// Decide runs before begin is appended to buf. A begin with hours closes the
// preceding night: buf is flushed to sink. A begin without hours means the
// preceding night is incomplete: its event lines are pruned from buf.
func (p *Policy) Decide(begin Event, day time.Time, buf *Buffer, sink Sink) {
	if begin.Complete() {
		p.flush(buf, sink)
		return
	}
	p.log.Info("incomplete night(s) before date", zap.String("date", day.Format(dateLayout)))
	p.discard(buf, sink)
}

func (p *Policy) flush(buf *Buffer, sink Sink) {
	for i := 0; i < buf.Len(); i++ {
		line := buf.At(i)
		if p.inMissingData && line.Kind == EventLine && line.Event.Action == ActionBegin {
			line.Event.Action = ActionResumed
			buf.Set(i, line)
			p.inMissingData = false
		}
		sink.Emit(line.String())
	}
	buf.Clear()
}

// discard walks buf from the tail. Event lines are removed until a complete
// begin line is found; that line becomes a no-data marker and is emitted.
// Header lines stay where they are.
func (p *Policy) discard(buf *Buffer, sink Sink) {
	for i := buf.Len() - 1; i >= 0; i-- {
		line := buf.At(i)
		if line.IsCompleteBegin() {
			buf.Remove(i)
			sink.Emit(EventOf(Event{Action: ActionNoData, ClockTime: line.Event.ClockTime}).String())
			break
		}
		if line.Kind == EventLine {
			buf.Remove(i)
			p.log.Debug("discarded incomplete event", zap.String("line", line.String()))
		}
	}
	p.inMissingData = true
}

// Drain writes every pending line verbatim. It is used at end of input,
// where the last night's completeness cannot be known.
func (p *Policy) Drain(buf *Buffer, sink Sink) {
	for _, line := range buf.Lines() {
		sink.Emit(line.String())
	}
	buf.Clear()
}
