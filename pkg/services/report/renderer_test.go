package report

import (
	"context"
	"testing"
	"time"

	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedAt = time.Date(2024, 10, 1, 8, 30, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2024, 9, d, 0, 0, 0, 0, time.UTC)
}

func scenarioInput(mode domain.RunMode) Input {
	hk := domain.NewFrame(
		domain.DataPoint{Date: day(1), Value: 100},
		domain.DataPoint{Date: day(2), Value: 150},
	)
	uk := domain.NewFrame(domain.DataPoint{Date: day(1), Value: 200})

	return Input{
		Title:       "Job Volume - September",
		Mode:        mode,
		Combined:    hk.Retag("HK").Append(uk.Retag("UK")),
		PerSource:   map[string]domain.Frame{"HK": hk, "UK": uk},
		Baseline:    1899206,
		TopN:        4,
		GeneratedAt: generatedAt,
		GeneratedBy: "reporter",
	}
}

func titles(r domain.Report) []string {
	var out []string
	for _, s := range r.Sections {
		out = append(out, s.Title)
	}
	return out
}

func TestRender_MonthlySections(t *testing.T) {
	// When
	r := Render(context.Background(), scenarioInput(domain.RunModeMonthly))

	// Then
	assert.Equal(t, []string{
		"Daily Job Totals",
		"Baseline vs Daily Total",
		"Jobs by Source",
		"Top 4 Peak Days - September 2024",
		"Top 4 Peak Days - HK - September 2024",
		"Top 4 Peak Days - UK - September 2024",
		"Daily Summary",
	}, titles(r))
	assert.Equal(t, generatedAt, r.GeneratedAt)
	assert.Equal(t, "reporter", r.GeneratedBy)
	assert.False(t, r.HasMarker(domain.MarkerPeaksSuppressed))
	assert.False(t, r.HasMarker(domain.MarkerRenderError))

	totals := r.Sections[0]
	assert.Equal(t, domain.SectionKindChart, totals.Kind)
	assert.Equal(t, []domain.SeriesRow{
		{Label: "2024-09-01", Values: []float64{300}},
		{Label: "2024-09-02", Values: []float64{150}},
	}, totals.Rows)

	globalPeaks := r.Sections[3]
	assert.Equal(t, domain.SectionKindTable, globalPeaks.Kind)
	require.Len(t, globalPeaks.Rows, 2)
	assert.Equal(t, []float64{1, 300, 1899206, 1899206 - 300}, globalPeaks.Rows[0].Values)

	bySource := r.Sections[2]
	require.Len(t, bySource.Rows, 2)
	assert.Equal(t, "HK", bySource.Rows[0].Label)
	assert.Equal(t, []float64{250, 2, 125, 150}, bySource.Rows[0].Values)

	summary := r.Sections[6]
	assert.Equal(t, []float64{300, 2, 1899206, 1899206 - 300}, summary.Rows[0].Values)
	assert.Equal(t, []float64{150, 1, 1899206, 1899206 - 150}, summary.Rows[1].Values)
}

func TestRender_DailySuppressesPeaks(t *testing.T) {
	r := Render(context.Background(), scenarioInput(domain.RunModeDaily))

	assert.True(t, r.HasMarker(domain.MarkerPeaksSuppressed))
	for _, s := range r.Sections {
		assert.NotContains(t, s.Title, "Peak Days -")
	}
	assert.Contains(t, titles(r), "Daily Summary")
	assert.Contains(t, titles(r), "Baseline vs Daily Total")
}

func TestRender_SingleSourceHasNoCrossSourceSection(t *testing.T) {
	in := scenarioInput(domain.RunModeMonthly)
	in.Combined = in.PerSource["HK"].Retag("HK")
	in.PerSource = map[string]domain.Frame{"HK": in.PerSource["HK"]}

	r := Render(context.Background(), in)
	assert.NotContains(t, titles(r), "Jobs by Source")
}

func TestRender_FailedSectionBecomesPlaceholder(t *testing.T) {
	// Given: an invalid top-N breaks every peak table
	in := scenarioInput(domain.RunModeMonthly)
	in.TopN = 0

	// When
	r := Render(context.Background(), in)

	// Then
	assert.True(t, r.HasMarker(domain.MarkerRenderError))
	failed := 0
	for _, s := range r.Sections {
		if s.IsPlaceholder() {
			failed++
			assert.Equal(t, domain.MarkerRenderError, s.Placeholder.Marker)
			assert.Contains(t, s.Placeholder.Message, "top_n")
		}
	}
	assert.Equal(t, 3, failed)
	assert.Equal(t, "Daily Summary", r.Sections[len(r.Sections)-1].Title)
	assert.Equal(t, domain.SectionKindTable, r.Sections[len(r.Sections)-1].Kind)
}

func TestRender_IsDeterministic(t *testing.T) {
	first := Render(context.Background(), scenarioInput(domain.RunModeMonthly))
	second := Render(context.Background(), scenarioInput(domain.RunModeMonthly))
	assert.Equal(t, first, second)
}

func TestSafeBuild_RecoversPanics(t *testing.T) {
	_, err := safeBuild(sectionBuilder{
		title: "broken",
		build: func() (domain.ReportSection, error) { panic("boom") },
	})
	assert.ErrorIs(t, err, domain.ErrRender)
	assert.Contains(t, err.Error(), "boom")
}
