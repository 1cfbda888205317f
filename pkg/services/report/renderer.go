package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/de-tools/job-pulse/pkg/services/peaks"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// Input carries everything a report is rendered from.
// GeneratedAt and GeneratedBy are supplied by the caller so that identical
// inputs always render identical reports.
type Input struct {
	Title       string
	Mode        domain.RunMode
	Combined    domain.Frame
	PerSource   map[string]domain.Frame
	Baseline    float64
	TopN        int
	Year        int
	Month       time.Month
	GeneratedAt time.Time
	GeneratedBy string
}

type sectionBuilder struct {
	title string
	build func() (domain.ReportSection, error)
}

// Render assembles the report sections.
// A section whose builder fails is replaced by a render-error placeholder;
// the remaining sections are still rendered.
func Render(ctx context.Context, in Input) domain.Report {
	logger := zerolog.Ctx(ctx)

	builders := []sectionBuilder{
		{title: "Daily Job Totals", build: func() (domain.ReportSection, error) { return dailyTotals(in) }},
		{title: "Baseline vs Daily Total", build: func() (domain.ReportSection, error) { return baselineVariation(in) }},
	}

	if len(in.Combined.Tags()) > 1 {
		builders = append(builders, sectionBuilder{
			title: "Jobs by Source",
			build: func() (domain.ReportSection, error) { return crossSource(in) },
		})
	}

	builders = append(builders, peakBuilders(in)...)
	builders = append(builders, sectionBuilder{
		title: "Daily Summary",
		build: func() (domain.ReportSection, error) { return dailySummary(in) },
	})

	out := domain.Report{
		Title:       in.Title,
		Mode:        in.Mode,
		GeneratedAt: in.GeneratedAt,
		GeneratedBy: in.GeneratedBy,
		Sections:    make([]domain.ReportSection, 0, len(builders)),
	}

	for _, b := range builders {
		section, err := safeBuild(b)
		if err != nil {
			logger.Error().Err(err).Str("section", b.title).Msg("section failed to render")
			section = domain.ReportSection{
				Title: b.title,
				Kind:  domain.SectionKindPlaceholder,
				Placeholder: &domain.Placeholder{
					Marker:  domain.MarkerRenderError,
					Message: err.Error(),
				},
			}
		}
		out.Sections = append(out.Sections, section)
	}

	return out
}

func safeBuild(b sectionBuilder) (section domain.ReportSection, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", domain.ErrRender, b.title, r)
		}
	}()

	section, err = b.build()
	if err != nil {
		return section, fmt.Errorf("%w: %s: %w", domain.ErrRender, b.title, err)
	}
	return section, nil
}

func dailyTotals(in Input) (domain.ReportSection, error) {
	totals := in.Combined.DailyTotals()
	if len(totals) == 0 {
		return domain.ReportSection{}, fmt.Errorf("no daily totals")
	}

	section := domain.ReportSection{
		Title:   "Daily Job Totals",
		Kind:    domain.SectionKindChart,
		Columns: []string{"Date", "Total Jobs"},
	}
	for _, t := range totals {
		section.Rows = append(section.Rows, domain.SeriesRow{
			Label:  t.Date.Format(dateLayout),
			Values: []float64{t.Value},
		})
	}
	return section, nil
}

func baselineVariation(in Input) (domain.ReportSection, error) {
	section := domain.ReportSection{
		Title:   "Baseline vs Daily Total",
		Kind:    domain.SectionKindChart,
		Columns: []string{"Date", "Baseline", "Total Jobs", "Variation"},
	}
	for _, v := range peaks.Variations(in.Combined, in.Baseline) {
		section.Rows = append(section.Rows, domain.SeriesRow{
			Label:  v.Date.Format(dateLayout),
			Values: []float64{v.Baseline, v.Total, v.Variation},
		})
	}
	return section, nil
}

func crossSource(in Input) (domain.ReportSection, error) {
	section := domain.ReportSection{
		Title:   "Jobs by Source",
		Kind:    domain.SectionKindChart,
		Columns: []string{"Source", "Total Jobs", "Days Reported", "Daily Average", "Busiest Day Jobs"},
	}

	for _, tag := range in.Combined.Tags() {
		totals := in.Combined.WithTag(tag).DailyTotals()
		if len(totals) == 0 {
			continue
		}

		var sum, busiest float64
		for _, t := range totals {
			sum += t.Value
			if t.Value > busiest {
				busiest = t.Value
			}
		}
		days := float64(len(totals))
		section.Rows = append(section.Rows, domain.SeriesRow{
			Label:  tag,
			Values: []float64{sum, days, sum / days, busiest},
		})
	}
	return section, nil
}

func peakBuilders(in Input) []sectionBuilder {
	if in.Mode == domain.RunModeDaily {
		return []sectionBuilder{{
			title: "Peak Days",
			build: func() (domain.ReportSection, error) {
				return domain.ReportSection{
					Title: "Peak Days",
					Kind:  domain.SectionKindPlaceholder,
					Placeholder: &domain.Placeholder{
						Marker:  domain.MarkerPeaksSuppressed,
						Message: "Peak and variance analysis is not part of daily reports.",
					},
				}, nil
			},
		}}
	}

	year, month := in.Year, in.Month
	if year == 0 || month == 0 {
		if latest, ok := in.Combined.Latest(); ok {
			year, month = latest.Year(), latest.Month()
		}
	}
	opts := peaks.Options{TopN: in.TopN, Baseline: in.Baseline, Year: year, Month: month}
	period := fmt.Sprintf("%s %d", month, year)

	globalTitle := fmt.Sprintf("Top %d Peak Days - %s", in.TopN, period)
	builders := []sectionBuilder{{
		title: globalTitle,
		build: func() (domain.ReportSection, error) { return peakTable(globalTitle, in.Combined, opts) },
	}}

	tags := make([]string, 0, len(in.PerSource))
	for tag := range in.PerSource {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		frame := in.PerSource[tag]
		title := fmt.Sprintf("Top %d Peak Days - %s - %s", in.TopN, tag, period)
		builders = append(builders, sectionBuilder{
			title: title,
			build: func() (domain.ReportSection, error) { return peakTable(title, frame, opts) },
		})
	}
	return builders
}

func peakTable(title string, frame domain.Frame, opts peaks.Options) (domain.ReportSection, error) {
	set, err := peaks.TopPeaks(frame, opts)
	if err != nil {
		return domain.ReportSection{}, err
	}

	section := domain.ReportSection{
		Title:   title,
		Kind:    domain.SectionKindTable,
		Columns: []string{"Date", "Rank", "Jobs", "Baseline", "Variation"},
	}
	for _, e := range set.Entries {
		section.Rows = append(section.Rows, domain.SeriesRow{
			Label:  e.Date.Format(dateLayout),
			Values: []float64{float64(e.Rank), e.Value, e.Baseline, e.Variation},
		})
	}
	return section, nil
}

func dailySummary(in Input) (domain.ReportSection, error) {
	reporting := make(map[time.Time]map[string]struct{})
	for _, p := range in.Combined.Points {
		date := domain.Day(p.Date)
		if reporting[date] == nil {
			reporting[date] = make(map[string]struct{})
		}
		reporting[date][p.SourceTag] = struct{}{}
	}

	section := domain.ReportSection{
		Title:   "Daily Summary",
		Kind:    domain.SectionKindTable,
		Columns: []string{"Date", "Total Jobs", "Sources Reporting", "Baseline", "Variation"},
	}
	for _, v := range peaks.Variations(in.Combined, in.Baseline) {
		section.Rows = append(section.Rows, domain.SeriesRow{
			Label:  v.Date.Format(dateLayout),
			Values: []float64{v.Total, float64(len(reporting[v.Date])), v.Baseline, v.Variation},
		})
	}
	return section, nil
}
