// Package model defines shared data structures.
package model

import "time"

// Night is one sleep night as stored by the load stage.
type Night struct {
	ID        int64
	StartDate time.Time
	// StartTime is the bedtime as HH:MM.
	StartTime string
	// NoData marks a night whose interior data was pruned.
	NoData bool
	// Resumed marks the first night after a no-data span.
	Resumed bool
	Naps    []Nap
}

// Nap is one sleep interval inside a night, including the main sleep.
type Nap struct {
	ID        int64
	NightID   int64
	StartTime string
	// Duration is an H:MM interval.
	Duration string
}

// NightSummary aggregates a stored night for reporting.
type NightSummary struct {
	NightID   int64
	StartDate time.Time
	StartTime string
	NoData    bool
	Resumed   bool
	NapCount  int
	Minutes   int
}

// Hours returns the summed nap time in hours.
func (s NightSummary) Hours() float64 {
	return float64(s.Minutes) / 60
}

// ReportConfig defines filters and options for the nights report.
type ReportConfig struct {
	Since  *time.Time
	Last   int
	Window int
	// Naps asks for every night's naps to be loaded too.
	Naps bool
}
