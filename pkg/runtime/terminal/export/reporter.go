package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/job-pulse/pkg/models/store"
	"github.com/de-tools/job-pulse/pkg/services/publish"
)

type TableConfig struct {
	LabelWidth int
	ValueWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		LabelWidth: 14,
		ValueWidth: 18,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) funcMap() template.FuncMap {
	return template.FuncMap{
		"formatRow": func(label string, values []string) string {
			cells := make([]string, 0, len(values)+1)
			cells = append(cells, fmt.Sprintf(" %-*s ", c.config.LabelWidth, label))
			for _, v := range values {
				cells = append(cells, fmt.Sprintf(" %*s ", c.config.ValueWidth, v))
			}
			return "|" + strings.Join(cells, "|") + "|"
		},
		"separator": func(columns int) string {
			parts := []string{strings.Repeat("-", c.config.LabelWidth+2)}
			for i := 1; i < columns; i++ {
				parts = append(parts, strings.Repeat("-", c.config.ValueWidth+2))
			}
			return "+" + strings.Join(parts, "+") + "+"
		},
		"numbers": func(values []float64) []string {
			out := make([]string, len(values))
			for i, v := range values {
				out[i] = formatNumber(v)
			}
			return out
		},
		"tail": func(columns []string) []string {
			if len(columns) == 0 {
				return nil
			}
			return columns[1:]
		},
		"head": func(columns []string) string {
			if len(columns) == 0 {
				return ""
			}
			return columns[0]
		},
		"states": func(states []publish.State) string {
			out := make([]string, len(states))
			for i, s := range states {
				out[i] = string(s)
			}
			return strings.Join(out, " -> ")
		},
	}
}

const resultTemplate = `
{{.Report.Title}} ({{.Mode}} report)
Run: {{.RunID}}
States: {{states .States}}
Action: {{.Action}}{{with .Document}}
Document: {{.ID}} (version {{.Version}}){{end}}
{{range .Report.Sections}}
=== {{.Title}} ===
{{- if .Placeholder}}
[{{.Placeholder.Marker}}] {{.Placeholder.Message}}
{{- else}}
{{separator (len .Columns)}}
{{formatRow (head .Columns) (tail .Columns)}}
{{separator (len .Columns)}}
{{range .Rows}}{{formatRow .Label (numbers .Values)}}
{{end}}{{separator (len .Columns)}}
{{- end}}
{{end}}
`

// Handle prints the outcome of a publish run and its report tables
func (c *Reporter) Handle(result *publish.Result) error {
	t, err := template.New("report").Funcs(c.funcMap()).Parse(resultTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, result)
}

const historyTemplate = `
{{- if not .}}No publish history found.
{{else}}{{range .}}{{.PublishedAt.Format "2006-01-02 15:04:05"}}  {{printf "%-10s" .Status}} {{printf "%-8s" .Action}} {{.Title}} [{{.Space}}]{{with .Version}} v{{.}}{{end}}{{with .Error}}
    error: {{.}}{{end}}
{{end}}{{end}}`

// HandleHistory prints publish history records, most recent first
func (c *Reporter) HandleHistory(records []store.PublishRecord) error {
	t, err := template.New("history").Parse(historyTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, records)
}
