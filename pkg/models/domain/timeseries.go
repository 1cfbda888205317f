package domain

import (
	"sort"
	"time"
)

// DataPoint is a single daily job count, optionally tagged with its source
type DataPoint struct {
	Date      time.Time
	SourceTag string
	Value     float64
}

// DailyTotal is the sum of every point sharing a calendar day
type DailyTotal struct {
	Date  time.Time
	Value float64
}

// ColumnMapping names the columns a tabular dataset uses for each field.
// Source is optional; DateLayout defaults to DefaultDateLayout.
type ColumnMapping struct {
	Date       string `mapstructure:"date"`
	Value      string `mapstructure:"value"`
	Source     string `mapstructure:"source"`
	DateLayout string `mapstructure:"date_layout"`
}

const DefaultDateLayout = "2006-01-02"

func (m ColumnMapping) Layout() string {
	if m.DateLayout == "" {
		return DefaultDateLayout
	}
	return m.DateLayout
}

// Frame is an ordered collection of data points.
// Skipped counts the rows that were excluded while building the frame because
// their date or value could not be parsed.
type Frame struct {
	Points  []DataPoint
	Skipped int
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func NewFrame(points ...DataPoint) Frame {
	normalized := make([]DataPoint, 0, len(points))
	for _, p := range points {
		p.Date = Day(p.Date)
		normalized = append(normalized, p)
	}
	return Frame{Points: normalized}
}

func (f Frame) Len() int {
	return len(f.Points)
}

func (f Frame) Empty() bool {
	return len(f.Points) == 0
}

func (f Frame) Sum() float64 {
	var total float64
	for _, p := range f.Points {
		total += p.Value
	}
	return total
}

// Tags returns the distinct non-empty source tags in ascending order.
func (f Frame) Tags() []string {
	seen := make(map[string]struct{})
	for _, p := range f.Points {
		if p.SourceTag == "" {
			continue
		}
		seen[p.SourceTag] = struct{}{}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// WithTag returns the points carrying the given source tag.
func (f Frame) WithTag(tag string) Frame {
	out := Frame{}
	for _, p := range f.Points {
		if p.SourceTag == tag {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// Retag returns a copy of the frame with every point tagged as tag.
func (f Frame) Retag(tag string) Frame {
	out := Frame{Points: make([]DataPoint, len(f.Points)), Skipped: f.Skipped}
	for i, p := range f.Points {
		p.SourceTag = tag
		out.Points[i] = p
	}
	return out
}

// Append returns a new frame holding the points of f followed by other.
func (f Frame) Append(other Frame) Frame {
	points := make([]DataPoint, 0, len(f.Points)+len(other.Points))
	points = append(points, f.Points...)
	points = append(points, other.Points...)
	return Frame{Points: points, Skipped: f.Skipped + other.Skipped}
}

// DailyTotals sums values across all tags per calendar day, ascending by date.
func (f Frame) DailyTotals() []DailyTotal {
	sums := make(map[time.Time]float64)
	for _, p := range f.Points {
		sums[Day(p.Date)] += p.Value
	}

	totals := make([]DailyTotal, 0, len(sums))
	for date, value := range sums {
		totals = append(totals, DailyTotal{Date: date, Value: value})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Date.Before(totals[j].Date)
	})
	return totals
}

// Latest returns the most recent date in the frame.
func (f Frame) Latest() (time.Time, bool) {
	var latest time.Time
	for _, p := range f.Points {
		if p.Date.After(latest) {
			latest = p.Date
		}
	}
	return latest, !latest.IsZero()
}
