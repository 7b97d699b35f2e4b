// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/sleepetl/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints totals for nights that have recorded sleep.
// No-data nights are counted but left out of the averages.
func RenderSummary(w io.Writer, nights []model.NightSummary, window int) error {
	if len(nights) == 0 {
		_, err := fmt.Fprintln(w, "No nights found.")
		return err
	}
	var hours []float64
	noData := 0
	longest := 0.0
	for _, n := range nights {
		if n.NoData {
			noData++
			continue
		}
		hours = append(hours, n.Hours())
		longest = math.Max(longest, n.Hours())
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Nights: %d", len(nights)),
		fmt.Sprintf("No-data nights: %d", noData),
	}
	if len(hours) > 0 {
		var total float64
		for _, h := range hours {
			total += h
		}
		lines = append(lines,
			fmt.Sprintf("Avg hours: %.2f", total/float64(len(hours))),
			fmt.Sprintf("Longest: %.2f", longest),
			fmt.Sprintf("Trend (%d-night avg): %s", window, Sparkline(MovingAverage(hours, window))),
		)
	}
	lines = append(lines, "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderNightTable prints one row per night.
func RenderNightTable(w io.Writer, nights []model.NightSummary) error {
	if len(nights) == 0 {
		return nil
	}
	headers := []string{"Date", "Bedtime", "Naps", "Hours", "Flags"}
	rows := make([][]string, 0, len(nights))
	for _, n := range nights {
		rows = append(rows, []string{
			n.StartDate.Format("2006-01-02 Mon"),
			n.StartTime,
			fmt.Sprintf("%d", n.NapCount),
			fmt.Sprintf("%.2f", n.Hours()),
			flags(n),
		})
	}
	rightAlign := map[int]bool{2: true, 3: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func flags(n model.NightSummary) string {
	var parts []string
	if n.NoData {
		parts = append(parts, "no-data")
	}
	if n.Resumed {
		parts = append(parts, "resumed")
	}
	return strings.Join(parts, ",")
}

// RenderNaps prints each night followed by its naps, indented.
func RenderNaps(w io.Writer, nights []model.NightSummary, naps map[int64][]model.Nap) error {
	for _, n := range nights {
		if _, err := fmt.Fprintf(w, "%s %s\n", n.StartDate.Format("2006-01-02"), n.StartTime); err != nil {
			return err
		}
		for _, nap := range naps[n.NightID] {
			if _, err := fmt.Fprintf(w, "    %s %s\n", nap.StartTime, nap.Duration); err != nil {
				return err
			}
		}
	}
	if len(nights) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
