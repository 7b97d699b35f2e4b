// Package transform rewrites the extract stream into NIGHT and NAP records.
package transform

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tells night records from nap records.
type Kind int

// Record kinds.
const (
	KindNight Kind = iota
	KindNap
)

func (k Kind) String() string {
	if k == KindNap {
		return "NAP"
	}
	return "NIGHT"
}

// Record is one line of transform output.
type Record struct {
	Kind Kind
	// Date is set on nights only, as YYYY-MM-DD.
	Date string
	// Start is HH:MM.
	Start   string
	NoData  bool
	Resumed bool
	// Duration is set on naps only, as decimal hours HH.QQ.
	Duration string
}

// String renders the record in the transform wire format.
func (r Record) String() string {
	if r.Kind == KindNap {
		return fmt.Sprintf("NAP, %s, %s", r.Start, r.Duration)
	}
	return fmt.Sprintf("NIGHT, %s, %s, %t, %t", r.Date, r.Start, r.NoData, r.Resumed)
}

// ParseRecord reads one line of transform output.
func ParseRecord(line string) (Record, error) {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	switch fields[0] {
	case "NIGHT":
		if len(fields) != 5 {
			return Record{}, fmt.Errorf("night record needs 5 fields, got %d: %q", len(fields), line)
		}
		noData, err := strconv.ParseBool(fields[3])
		if err != nil {
			return Record{}, fmt.Errorf("invalid no-data flag in %q: %w", line, err)
		}
		resumed, err := strconv.ParseBool(fields[4])
		if err != nil {
			return Record{}, fmt.Errorf("invalid resumed flag in %q: %w", line, err)
		}
		return Record{Kind: KindNight, Date: fields[1], Start: fields[2], NoData: noData, Resumed: resumed}, nil
	case "NAP":
		if len(fields) != 3 {
			return Record{}, fmt.Errorf("nap record needs 3 fields, got %d: %q", len(fields), line)
		}
		return Record{Kind: KindNap, Start: fields[1], Duration: fields[2]}, nil
	default:
		return Record{}, fmt.Errorf("unknown record %q", line)
	}
}
