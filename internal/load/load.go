// Package load turns transform records into nights and writes them to the
// store, or prints them when no store is wanted.
package load

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/sleepetl/internal/model"
	"github.com/verte-zerg/sleepetl/internal/store"
	"github.com/verte-zerg/sleepetl/internal/transform"
)

// ErrBadFraction is returned for decimal hours not on a quarter hour.
var ErrBadFraction = errors.New("fraction is not a quarter hour")

var fractionMinutes = map[string]string{
	"00": "00",
	"25": "15",
	"50": "30",
	"75": "45",
}

// Saver persists nights.
type Saver interface {
	SaveNights(ctx context.Context, nights []model.Night) (store.SaveResult, error)
}

// DecimalToInterval converts decimal hours such as "3.25" to "3:15".
func DecimalToInterval(dec string) (string, error) {
	whole, frac, ok := strings.Cut(dec, ".")
	if !ok {
		return "", fmt.Errorf("invalid decimal hours %q", dec)
	}
	hours, err := strconv.Atoi(whole)
	if err != nil {
		return "", fmt.Errorf("invalid decimal hours %q: %w", dec, err)
	}
	minutes, ok := fractionMinutes[frac]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrBadFraction, dec)
	}
	return fmt.Sprintf("%d:%s", hours, minutes), nil
}

// ReadNights parses transform records from r. Naps attach to the most
// recent night; naps before any night and unparseable lines are logged
// and skipped.
func ReadNights(r io.Reader, log *zap.Logger) ([]model.Night, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var nights []model.Night
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rec, err := transform.ParseRecord(line)
		if err != nil {
			log.Warn("skipping record", zap.Error(err))
			continue
		}
		switch rec.Kind {
		case transform.KindNight:
			date, err := time.Parse("2006-01-02", rec.Date)
			if err != nil {
				log.Warn("skipping night with bad date", zap.String("line", line), zap.Error(err))
				continue
			}
			nights = append(nights, model.Night{
				StartDate: date,
				StartTime: rec.Start,
				NoData:    rec.NoData,
				Resumed:   rec.Resumed,
			})
		case transform.KindNap:
			if len(nights) == 0 {
				log.Warn("nap before any night", zap.String("line", line))
				continue
			}
			interval, err := DecimalToInterval(rec.Duration)
			if err != nil {
				log.Warn("skipping nap with bad duration", zap.String("line", line), zap.Error(err))
				continue
			}
			last := &nights[len(nights)-1]
			last.Naps = append(last.Naps, model.Nap{StartTime: rec.Start, Duration: interval})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return nights, nil
}

// Store reads records from r and saves them with saver.
func Store(ctx context.Context, r io.Reader, saver Saver, log *zap.Logger) (store.SaveResult, error) {
	nights, err := ReadNights(r, log)
	if err != nil {
		return store.SaveResult{}, err
	}
	res, err := saver.SaveNights(ctx, nights)
	if err != nil {
		return store.SaveResult{}, fmt.Errorf("failed to store nights: %w", err)
	}
	return res, nil
}

// Print reads records from r and writes the nights they describe to w.
func Print(r io.Reader, w io.Writer, log *zap.Logger) error {
	nights, err := ReadNights(r, log)
	if err != nil {
		return err
	}
	for _, night := range nights {
		if _, err := fmt.Fprintf(w, "night %s %s no-data=%t resumed=%t\n",
			night.StartDate.Format("2006-01-02"), night.StartTime, night.NoData, night.Resumed); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		for _, nap := range night.Naps {
			if _, err := fmt.Fprintf(w, "    nap %s %s\n", nap.StartTime, nap.Duration); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}
	return nil
}
