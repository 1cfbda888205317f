package domain

import "time"

// RunMode decides whether a publish run carries peak analysis
type RunMode int

const (
	RunModeMonthly RunMode = iota
	RunModeDaily
)

func (m RunMode) String() string {
	switch m {
	case RunModeDaily:
		return "daily"
	default:
		return "monthly"
	}
}

type SectionKind string

const (
	SectionKindChart       SectionKind = "chart"
	SectionKindTable       SectionKind = "table"
	SectionKindPlaceholder SectionKind = "placeholder"
)

// Placeholder markers let consumers tell an intentionally omitted section from
// one that failed to render.
const (
	MarkerPeaksSuppressed = "peaks-suppressed"
	MarkerRenderError     = "render-error"
)

// Report represents a complete rendered report
type Report struct {
	Title       string
	Mode        RunMode
	GeneratedAt time.Time
	GeneratedBy string
	Sections    []ReportSection
}

// ReportSection is the renderer's unit of output.
// Columns is the header row; each Row is one labeled numeric series.
type ReportSection struct {
	Title       string
	Kind        SectionKind
	Columns     []string
	Rows        []SeriesRow
	Placeholder *Placeholder
}

// SeriesRow represents one line of a chart or table
type SeriesRow struct {
	Label  string
	Values []float64
}

type Placeholder struct {
	Marker  string
	Message string
}

func (s ReportSection) IsPlaceholder() bool {
	return s.Kind == SectionKindPlaceholder && s.Placeholder != nil
}

// HasMarker reports whether any section of the report is a placeholder with the given marker.
func (r Report) HasMarker(marker string) bool {
	for _, s := range r.Sections {
		if s.IsPlaceholder() && s.Placeholder.Marker == marker {
			return true
		}
	}
	return false
}
