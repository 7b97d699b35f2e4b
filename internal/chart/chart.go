// Package chart draws one text row per day from the extract stream, one
// cell per quarter hour.
package chart

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// QuartersPerDay is the number of cells in a row.
const QuartersPerDay = 24 * 4

const dateLayout = "2006-01-02"

// State is what a quarter hour cell shows.
type State int

// Cell states.
const (
	NoData State = iota
	Asleep
	Awake
)

// Symbol returns the character drawn for the state.
func (s State) Symbol() rune {
	switch s {
	case Asleep:
		return '█'
	case Awake:
		return ' '
	default:
		return '░'
	}
}

// Row is one calendar day of cells.
type Row struct {
	Date  time.Time
	Cells [QuartersPerDay]State
}

var (
	dayHeaderRe = regexp.MustCompile(`^ {4}(\d{4}-\d{2}-\d{2})$`)
	actionRe    = regexp.MustCompile(`^action: ([bswNY]), time: (\d{1,2}):(\d{2})`)
)

type change struct {
	date    time.Time
	quarter int
	state   State
}

// Build reads extract output and returns one Row per date from the earliest
// to the latest day header seen. Weeks may arrive in any order; changes are
// replayed in calendar order. Cells before the first event are NoData.
func Build(r io.Reader, log *zap.Logger) ([]Row, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var (
		first, last, current time.Time
		haveDate             bool
		changes              []change
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if m := dayHeaderRe.FindStringSubmatch(line); m != nil {
			date, err := time.Parse(dateLayout, m[1])
			if err != nil {
				log.Warn("bad day header", zap.String("line", line), zap.Error(err))
				continue
			}
			if !haveDate || date.Before(first) {
				first = date
			}
			if !haveDate || date.After(last) {
				last = date
			}
			if haveDate && date.Before(current) {
				log.Debug("day header out of order", zap.String("date", m[1]))
			}
			current = date
			haveDate = true
			continue
		}
		m := actionRe.FindStringSubmatch(line)
		if m == nil || !haveDate {
			continue
		}
		hour, _ := strconv.Atoi(m[2])
		minute, _ := strconv.Atoi(m[3])
		changes = append(changes, change{
			date:    current,
			quarter: hour*4 + minute/15,
			state:   stateFor(m[1][0]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if !haveDate {
		return nil, nil
	}

	days := dayIndex(first, last) + 1
	if days <= 0 {
		return nil, nil
	}
	rows := make([]Row, days)
	for i := range rows {
		rows[i].Date = first.AddDate(0, 0, i)
	}
	pos := func(c change) int {
		return dayIndex(first, c.date)*QuartersPerDay + c.quarter
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return pos(changes[i]) < pos(changes[j])
	})

	total := days * QuartersPerDay
	state, at := NoData, 0
	for _, c := range changes {
		p := pos(c)
		fill(rows, at, p, state)
		at = p
		state = c.state
	}
	fill(rows, at, total, state)
	return rows, nil
}

// dayIndex counts calendar days from first to date.
func dayIndex(first, date time.Time) int {
	return int(date.Sub(first).Hours() / 24)
}

func stateFor(action byte) State {
	switch action {
	case 'w':
		return Awake
	case 'N':
		return NoData
	default:
		return Asleep
	}
}

func fill(rows []Row, from, to int, state State) {
	if from < 0 {
		from = 0
	}
	if limit := len(rows) * QuartersPerDay; to > limit {
		to = limit
	}
	for i := from; i < to; i++ {
		rows[i/QuartersPerDay].Cells[i%QuartersPerDay] = state
	}
}

// Ruler returns the hour labels aligned over the cells.
func Ruler() string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", len(dateLayout)+2))
	for i := 0; i < 24; i++ {
		label := strconv.Itoa(i % 12)
		switch i {
		case 0:
			label = "12a"
		case 12:
			label = "12p"
		}
		fmt.Fprintf(&b, "%-4s", label)
	}
	return strings.TrimRight(b.String(), " ")
}
