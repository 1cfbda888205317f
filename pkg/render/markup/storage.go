package markup

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/de-tools/job-pulse/pkg/models/domain"
)

const timestampLayout = "2006-01-02 15:04 MST"

const storageTemplate = `<p><strong>{{.Title}}</strong> ({{.Mode}} report)</p>
{{- if not .GeneratedAt.IsZero}}
<p>Generated {{.GeneratedAt.Format "` + timestampLayout + `"}}{{if .GeneratedBy}} by {{.GeneratedBy}}{{end}}</p>
{{- end}}
{{- range .Sections}}
<h2>{{.Title}}</h2>
{{- if .IsPlaceholder}}
<ac:structured-macro ac:name="{{panel .Placeholder.Marker}}"><ac:parameter ac:name="title">{{.Placeholder.Marker}}</ac:parameter><ac:rich-text-body><p>[{{.Placeholder.Marker}}] {{.Placeholder.Message}}</p></ac:rich-text-body></ac:structured-macro>
{{- else}}
{{- if eq .Kind "chart"}}
<ac:structured-macro ac:name="chart"><ac:parameter ac:name="type">line</ac:parameter><ac:parameter ac:name="title">{{.Title}}</ac:parameter><ac:rich-text-body>
{{- end}}
<table><tbody>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{- range .Rows}}
<tr><td>{{.Label}}</td>{{range .Values}}<td>{{number .}}</td>{{end}}</tr>
{{- end}}
</tbody></table>
{{- if eq .Kind "chart"}}
</ac:rich-text-body></ac:structured-macro>
{{- end}}
{{- end}}
{{- end}}
`

var storage = template.Must(template.New("storage").Funcs(template.FuncMap{
	"number": formatNumber,
	"panel": func(marker string) string {
		if marker == domain.MarkerRenderError {
			return "warning"
		}
		return "info"
	},
}).Parse(storageTemplate))

// Render turns a report into storage-format XHTML.
// Every non-placeholder section becomes a table whose first row is the header.
func Render(report domain.Report) (string, error) {
	var buf bytes.Buffer
	if err := storage.Execute(&buf, report); err != nil {
		return "", fmt.Errorf("failed to render storage markup: %w", err)
	}
	return buf.String(), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
