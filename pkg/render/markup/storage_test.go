package markup

import (
	"strings"
	"testing"
	"time"

	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() domain.Report {
	return domain.Report{
		Title:       "Job Volume <HK & UK>",
		Mode:        domain.RunModeMonthly,
		GeneratedAt: time.Date(2024, 10, 1, 8, 30, 0, 0, time.UTC),
		GeneratedBy: "reporter",
		Sections: []domain.ReportSection{
			{
				Title:   "Daily Job Totals",
				Kind:    domain.SectionKindChart,
				Columns: []string{"Date", "Total Jobs"},
				Rows: []domain.SeriesRow{
					{Label: "2024-09-01", Values: []float64{300}},
					{Label: "2024-09-02", Values: []float64{150.5}},
				},
			},
			{
				Title: "Peak Days",
				Kind:  domain.SectionKindPlaceholder,
				Placeholder: &domain.Placeholder{
					Marker:  domain.MarkerPeaksSuppressed,
					Message: "suppressed",
				},
			},
			{
				Title:   "Daily Summary",
				Kind:    domain.SectionKindTable,
				Columns: []string{"Date", "Total Jobs"},
				Rows:    []domain.SeriesRow{{Label: "2024-09-01", Values: []float64{1899206}}},
			},
		},
	}
}

func TestRender_TablesStartWithHeaderRow(t *testing.T) {
	body, err := Render(sampleReport())
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(body, "<table>"))
	assert.Contains(t, body, "<table><tbody>\n<tr><th>Date</th><th>Total Jobs</th></tr>\n<tr><td>2024-09-01</td><td>300</td></tr>")
	assert.Contains(t, body, "<td>150.5</td>")
	assert.Contains(t, body, "<td>1899206</td>")
}

func TestRender_ChartSectionsUseChartMacro(t *testing.T) {
	body, err := Render(sampleReport())
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(body, `ac:name="chart"`))
}

func TestRender_PlaceholderCarriesMarker(t *testing.T) {
	body, err := Render(sampleReport())
	require.NoError(t, err)

	assert.Contains(t, body, "[peaks-suppressed] suppressed")
	assert.Contains(t, body, `ac:name="info"`)
}

func TestRender_EscapesText(t *testing.T) {
	body, err := Render(sampleReport())
	require.NoError(t, err)

	assert.Contains(t, body, "Job Volume &lt;HK &amp; UK&gt;")
	assert.Contains(t, body, "Generated 2024-10-01 08:30 UTC by reporter")
}

func TestRender_IsStable(t *testing.T) {
	first, err := Render(sampleReport())
	require.NoError(t, err)
	second, err := Render(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
