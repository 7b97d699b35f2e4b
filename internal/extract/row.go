package extract

import (
	"regexp"
	"strings"
	"time"
)

// RowFields is the number of comma-separated fields kept from each row.
const RowFields = 1 + DaysInWeek*3

var dateTokenRe = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)

// Row is one input line split into its date token and day segments.
type Row struct {
	DateToken string
	Segments  [DaysInWeek]Segment
	blank     bool
}

// HasDate reports whether field 0 looks like an M/D/YYYY token.
func (r Row) HasDate() bool {
	return r.DateToken != ""
}

// Blank reports whether every kept field was empty.
func (r Row) Blank() bool {
	return r.blank
}

// ClassifyRow splits a raw line into a Row. It only looks at structure;
// segment contents are checked by Segment.Validate.
func ClassifyRow(line string) Row {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), ",")
	if len(fields) > RowFields {
		fields = fields[:RowFields]
	}
	var padded [RowFields]string
	blank := true
	for i, f := range fields {
		padded[i] = strings.TrimSpace(f)
		if padded[i] != "" {
			blank = false
		}
	}

	row := Row{blank: blank}
	if dateTokenRe.MatchString(padded[0]) {
		row.DateToken = padded[0]
	}
	for i := 0; i < DaysInWeek; i++ {
		copy(row.Segments[i][:], padded[1+3*i:4+3*i])
	}
	return row
}

// ParseDateToken converts an M/D/YYYY token to a UTC calendar date.
func ParseDateToken(token string) (time.Time, error) {
	return time.Parse("1/2/2006", token)
}
