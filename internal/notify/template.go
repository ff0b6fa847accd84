// Package notify renders run summaries and delivers them to Shoutrrr
// services.
package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/pipewright/pipewright/internal/report"
)

// Data holds the fields available to notification templates.
type Data struct {
	Project   string
	Status    string
	Timestamp string
	Total     int
	Succeeded int
	Failed    int
	Duration  string
}

// DefaultTemplate is used when the config does not set one.
const DefaultTemplate = `{{ .Status }} {{ .Project }}: {{ .Succeeded }}/{{ .Total }} steps succeeded in {{ .Duration }}`

// BuildData constructs template data from a generated report.
func BuildData(rep *report.Report) Data {
	return Data{
		Project:   rep.Project,
		Status:    rep.Summary.Status,
		Timestamp: rep.Timestamp,
		Total:     rep.Summary.TotalStages,
		Succeeded: rep.Summary.SuccessfulStages,
		Failed:    rep.Summary.FailedStages,
		Duration:  fmt.Sprintf("%.2fs", rep.Summary.TotalDuration),
	}
}

// Render executes a Go text/template string with Sprig functions over the
// run data.
func Render(tmplStr string, data Data) (string, error) {
	t, err := template.New("notify").Funcs(sprig.TxtFuncMap()).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
