package chart

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/de-tools/job-pulse/pkg/models/domain"
	gochart "github.com/wcharczuk/go-chart/v2"
)

const dateLayout = "2006-01-02"

var ErrNotChart = errors.New("section is not a chart")

// RenderSVG draws a chart section.
// Sections labeled by date become one time series per value column; any
// other section becomes a bar chart of its first value column.
func RenderSVG(section domain.ReportSection, w io.Writer) error {
	if section.Kind != domain.SectionKindChart {
		return fmt.Errorf("%w: %q is %s", ErrNotChart, section.Title, section.Kind)
	}
	if len(section.Rows) == 0 {
		return fmt.Errorf("chart %q has no rows", section.Title)
	}

	if dates, ok := rowDates(section.Rows); ok {
		return renderTimeSeries(section, dates, w)
	}
	return renderBars(section, w)
}

func rowDates(rows []domain.SeriesRow) ([]time.Time, bool) {
	dates := make([]time.Time, 0, len(rows))
	for _, r := range rows {
		d, err := time.Parse(dateLayout, r.Label)
		if err != nil {
			return nil, false
		}
		dates = append(dates, d)
	}
	return dates, true
}

func renderTimeSeries(section domain.ReportSection, dates []time.Time, w io.Writer) error {
	if len(dates) < 2 {
		return fmt.Errorf("chart %q needs at least two dates", section.Title)
	}

	var series []gochart.Series
	for col := 1; col < len(section.Columns); col++ {
		ys := make([]float64, 0, len(section.Rows))
		for _, r := range section.Rows {
			if col-1 >= len(r.Values) {
				return fmt.Errorf("chart %q row %s is missing column %q", section.Title, r.Label, section.Columns[col])
			}
			ys = append(ys, r.Values[col-1])
		}
		series = append(series, gochart.TimeSeries{
			Name:    section.Columns[col],
			XValues: dates,
			YValues: ys,
		})
	}

	graph := gochart.Chart{
		Title:  section.Title,
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if err := graph.Render(gochart.SVG, w); err != nil {
		return fmt.Errorf("failed to render chart %q: %w", section.Title, err)
	}
	return nil
}

func renderBars(section domain.ReportSection, w io.Writer) error {
	bars := make([]gochart.Value, 0, len(section.Rows))
	for _, r := range section.Rows {
		if len(r.Values) == 0 {
			continue
		}
		bars = append(bars, gochart.Value{Label: r.Label, Value: r.Values[0]})
	}

	graph := gochart.BarChart{
		Title:    section.Title,
		Height:   512,
		BarWidth: 60,
		Bars:     bars,
	}
	if err := graph.Render(gochart.SVG, w); err != nil {
		return fmt.Errorf("failed to render chart %q: %w", section.Title, err)
	}
	return nil
}
