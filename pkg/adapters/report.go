package adapters

import (
	"github.com/de-tools/job-pulse/pkg/models/api"
	"github.com/de-tools/job-pulse/pkg/models/domain"
)

func MapReportDomainToApi(r domain.Report) api.Report {
	sections := make([]api.ReportSection, 0, len(r.Sections))
	for _, s := range r.Sections {
		sections = append(sections, MapReportSectionDomainToApi(s))
	}
	report := api.Report{
		Title:       r.Title,
		Mode:        r.Mode.String(),
		GeneratedBy: r.GeneratedBy,
		Sections:    sections,
	}
	if !r.GeneratedAt.IsZero() {
		at := r.GeneratedAt
		report.GeneratedAt = &at
	}
	return report
}

func MapReportSectionDomainToApi(s domain.ReportSection) api.ReportSection {
	section := api.ReportSection{
		Title:   s.Title,
		Kind:    string(s.Kind),
		Columns: s.Columns,
	}
	for _, row := range s.Rows {
		section.Rows = append(section.Rows, api.SeriesRow{Label: row.Label, Values: row.Values})
	}
	if s.Placeholder != nil {
		section.Placeholder = &api.Placeholder{
			Marker:  s.Placeholder.Marker,
			Message: s.Placeholder.Message,
		}
	}
	return section
}
