package peaks

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/de-tools/job-pulse/pkg/models/domain"
)

const DefaultTopN = 4

var ErrInvalidTopN = errors.New("top_n must be at least 1")

// Options control peak selection.
// Year and Month are optional; when either is zero the month of the latest
// date in the frame is used.
type Options struct {
	TopN     int
	Baseline float64
	Year     int
	Month    time.Month
}

// TopPeaks selects the TopN highest days of a month.
// The frame is summed per day first, so rows of several sources sharing a
// date count as one day.
func TopPeaks(frame domain.Frame, opts Options) (domain.PeakSet, error) {
	if opts.TopN < 1 {
		return domain.PeakSet{}, fmt.Errorf("%w: got %d", ErrInvalidTopN, opts.TopN)
	}

	totals := frame.DailyTotals()

	year, month := opts.Year, opts.Month
	if year == 0 || month == 0 {
		if len(totals) == 0 {
			return domain.PeakSet{}, nil
		}
		latest := totals[len(totals)-1].Date
		year, month = latest.Year(), latest.Month()
	}

	set := domain.PeakSet{Year: year, Month: month}

	inMonth := make([]domain.DailyTotal, 0, len(totals))
	for _, t := range totals {
		if t.Date.Year() == year && t.Date.Month() == month {
			inMonth = append(inMonth, t)
		}
	}
	if len(inMonth) == 0 {
		return set, nil
	}

	sort.SliceStable(inMonth, func(i, j int) bool {
		if inMonth[i].Value != inMonth[j].Value {
			return inMonth[i].Value > inMonth[j].Value
		}
		return inMonth[i].Date.Before(inMonth[j].Date)
	})

	n := opts.TopN
	if n > len(inMonth) {
		n = len(inMonth)
	}

	set.Entries = make([]domain.PeakEntry, 0, n)
	for i, t := range inMonth[:n] {
		set.Entries = append(set.Entries, domain.PeakEntry{
			Date:      t.Date,
			Value:     t.Value,
			Rank:      i + 1,
			Baseline:  opts.Baseline,
			Variation: opts.Baseline - t.Value,
		})
	}

	sort.Slice(set.Entries, func(i, j int) bool {
		return set.Entries[i].Date.Before(set.Entries[j].Date)
	})

	return set, nil
}

// Variations compares every day of the frame against the baseline.
func Variations(frame domain.Frame, baseline float64) []domain.Variation {
	totals := frame.DailyTotals()
	out := make([]domain.Variation, 0, len(totals))
	for _, t := range totals {
		out = append(out, domain.Variation{
			Date:      t.Date,
			Total:     t.Value,
			Baseline:  baseline,
			Variation: baseline - t.Value,
		})
	}
	return out
}
