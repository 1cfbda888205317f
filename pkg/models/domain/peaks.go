package domain

import "time"

// PeakEntry is one of the top-N days of a month.
// Variation is Baseline - Value; positive means the day stayed under baseline.
type PeakEntry struct {
	Date      time.Time
	Value     float64
	Rank      int
	Baseline  float64
	Variation float64
}

// PeakSet holds the peak days selected for a single month.
// Entries are sorted by date; Rank reflects the value-descending order.
type PeakSet struct {
	Year    int
	Month   time.Month
	Entries []PeakEntry
}

func (p PeakSet) Empty() bool {
	return len(p.Entries) == 0
}

// Variation compares a day's total against the configured baseline
type Variation struct {
	Date      time.Time
	Total     float64
	Baseline  float64
	Variation float64
}
