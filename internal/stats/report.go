package stats

import (
	"context"
	"fmt"

	"github.com/verte-zerg/sleepetl/internal/model"
)

// NightLister reads stored nights and their naps.
type NightLister interface {
	ListNightSummaries(ctx context.Context, cfg model.ReportConfig) ([]model.NightSummary, error)
	ListNaps(ctx context.Context, nightID int64) ([]model.Nap, error)
}

// Report contains precomputed data for the nights report.
type Report struct {
	Nights []model.NightSummary
	// Naps is keyed by night ID and only filled when cfg.Naps is set.
	Naps   map[int64][]model.Nap
	Window int
}

// BuildReport loads nights and keeps the last cfg.Last of them.
func BuildReport(ctx context.Context, st NightLister, cfg model.ReportConfig) (Report, error) {
	nights, err := st.ListNightSummaries(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(nights) > cfg.Last {
		nights = nights[len(nights)-cfg.Last:]
	}
	report := Report{Nights: nights, Window: cfg.Window}
	if !cfg.Naps {
		return report, nil
	}
	report.Naps = make(map[int64][]model.Nap, len(nights))
	for _, n := range nights {
		naps, err := st.ListNaps(ctx, n.NightID)
		if err != nil {
			return Report{}, fmt.Errorf("failed to list naps for night %d: %w", n.NightID, err)
		}
		report.Naps[n.NightID] = naps
	}
	return report, nil
}
