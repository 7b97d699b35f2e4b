package extract

import (
	"fmt"
	"io"
)

// LineKind tells header lines from event lines inside a Buffer.
type LineKind int

const (
	// HeaderLine is a week or day header; the policy never removes it.
	HeaderLine LineKind = iota
	// EventLine is a serialized Event.
	EventLine
)

// Line is one pending output line.
type Line struct {
	Kind   LineKind
	Header string
	Event  Event
}

// HeaderOf wraps header text as a Line.
func HeaderOf(text string) Line {
	return Line{Kind: HeaderLine, Header: text}
}

// EventOf wraps an Event as a Line.
func EventOf(e Event) Line {
	return Line{Kind: EventLine, Event: e}
}

// String renders the line as it is written to the sink.
func (l Line) String() string {
	if l.Kind == HeaderLine {
		return l.Header
	}
	return l.Event.String()
}

// IsCompleteBegin reports whether the line is a begin event with hours.
func (l Line) IsCompleteBegin() bool {
	return l.Kind == EventLine && l.Event.Action == ActionBegin && l.Event.Complete()
}

// Buffer is the ordered sequence of lines not yet written to the sink.
// It is addressed by index so lines can be removed during a backward scan.
type Buffer struct {
	lines []Line
}

// Append adds a line at the tail.
func (b *Buffer) Append(l Line) {
	b.lines = append(b.lines, l)
}

// Len returns the number of pending lines.
func (b *Buffer) Len() int {
	return len(b.lines)
}

// At returns the line at index i.
func (b *Buffer) At(i int) Line {
	return b.lines[i]
}

// Set replaces the line at index i.
func (b *Buffer) Set(i int, l Line) {
	b.lines[i] = l
}

// Remove deletes the line at index i, keeping the order of the rest.
func (b *Buffer) Remove(i int) Line {
	l := b.lines[i]
	b.lines = append(b.lines[:i], b.lines[i+1:]...)
	return l
}

// Lines returns a copy of the pending lines.
func (b *Buffer) Lines() []Line {
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// Clear drops every pending line.
func (b *Buffer) Clear() {
	b.lines = b.lines[:0]
}

// Sink receives finalized lines for the next stage.
type Sink interface {
	Emit(line string)
}

// LineWriter is a Sink that writes newline-terminated lines to an io.Writer.
// After the first write error further lines are dropped; Err reports it.
type LineWriter struct {
	w   io.Writer
	err error
}

// NewLineWriter returns a LineWriter over w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w}
}

// Emit writes line followed by a newline.
func (lw *LineWriter) Emit(line string) {
	if lw.err != nil {
		return
	}
	if _, err := fmt.Fprintln(lw.w, line); err != nil {
		lw.err = fmt.Errorf("failed to write output: %w", err)
	}
}

// Err returns the first write error, if any.
func (lw *LineWriter) Err() error {
	return lw.err
}
