package transform

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	dayHeaderRe = regexp.MustCompile(`^ {4}(\d{4}-\d{2}-\d{2})$`)
	actionRe    = regexp.MustCompile(`^action: ([bswNY]), time: (\d{1,2}:\d{2})(?:, hours: \d{1,2}\.\d{2})?$`)
)

// Transformer turns extract lines into records. It keeps the current date
// and the last time sleep started.
type Transformer struct {
	log       *zap.Logger
	lastDate  string
	lastSleep string
}

// New returns a Transformer logging to log.
func New(log *zap.Logger) *Transformer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transformer{log: log}
}

// Process handles one extract line and returns a record when one is complete.
func (t *Transformer) Process(line string) (Record, bool) {
	switch {
	case line == "", strings.HasPrefix(line, "Week of "), strings.HasPrefix(line, "====="):
		return Record{}, false
	}
	if m := dayHeaderRe.FindStringSubmatch(line); m != nil {
		t.lastDate = m[1]
		return Record{}, false
	}
	m := actionRe.FindStringSubmatch(line)
	if m == nil {
		t.log.Warn("bad value in input", zap.String("line", line))
		return Record{}, false
	}
	at := padTime(m[2])
	switch m[1] {
	case "b":
		t.lastSleep = at
		return Record{Kind: KindNight, Date: t.lastDate, Start: at}, true
	case "N":
		t.lastSleep = at
		return Record{Kind: KindNight, Date: t.lastDate, Start: at, NoData: true}, true
	case "Y":
		t.lastSleep = at
		return Record{Kind: KindNight, Date: t.lastDate, Start: at, Resumed: true}, true
	case "s":
		t.lastSleep = at
		return Record{}, false
	default: // w
		if t.lastSleep == "" {
			t.log.Warn("wake with no preceding sleep", zap.String("line", line))
			return Record{}, false
		}
		return Record{Kind: KindNap, Start: t.lastSleep, Duration: t.duration(at, t.lastSleep)}, true
	}
}

// Run reads every line of r and writes one record per line to w.
func (t *Transformer) Run(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	bw := bufio.NewWriter(w)
	for scanner.Scan() {
		rec, ok := t.Process(strings.TrimRight(scanner.Text(), "\r"))
		if !ok {
			continue
		}
		if _, err := fmt.Fprintln(bw, rec.String()); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

// Transform reads extract output from r and writes records to w.
func Transform(r io.Reader, w io.Writer, log *zap.Logger) error {
	return New(log).Run(r, w)
}

// duration returns wake minus sleep as HH.QQ, wrapping past midnight.
// Minutes are snapped to a quarter hour.
func (t *Transformer) duration(wake, sleep string) string {
	wh, wm := splitTime(wake)
	sh, sm := splitTime(sleep)
	if wm < sm {
		wm += 60
		wh--
	}
	if wh < sh {
		wh += 24
	}
	minutes := wm - sm
	quarter := ClosestQuarter(minutes)
	if quarter != minutes {
		t.log.Warn("duration is not on a quarter hour",
			zap.String("sleep", sleep), zap.String("wake", wake), zap.Int("minutes", minutes))
	}
	return fmt.Sprintf("%02d.%02d", wh-sh, quarter*100/60)
}

// ClosestQuarter snaps a minute count within an hour down or up to 0, 15, 30 or 45.
func ClosestQuarter(minutes int) int {
	switch {
	case minutes < 8:
		return 0
	case minutes < 23:
		return 15
	case minutes < 37:
		return 30
	default:
		return 45
	}
}

func padTime(clock string) string {
	if len(clock) == 4 {
		return "0" + clock
	}
	return clock
}

func splitTime(clock string) (int, int) {
	h, m, _ := strings.Cut(clock, ":")
	hour, _ := strconv.Atoi(h)
	minute, _ := strconv.Atoi(m)
	return hour, minute
}
