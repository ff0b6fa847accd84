// Package report aggregates stage results into the serialized pipeline
// report. Generation is a pure transformation; persistence is separate.
package report

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/pipewright/pipewright/internal/executor"
)

// DefaultPath is where `run` saves the report unless told otherwise.
const DefaultPath = "ci_report.json"

// Overall status values. Steps carry the lowercase executor.Status values;
// the summary keeps the uppercase convention downstream tooling expects.
const (
	OverallSuccess = "SUCCESS"
	OverallFailed  = "FAILED"
)

const (
	truncateLimit   = 500
	truncateMarker  = "..."
	timestampFormat = "2006-01-02 15:04:05"
)

// Report is the serialized summary of one pipeline run. Field names are a
// stable contract; downstream tooling parses them.
type Report struct {
	Project   string            `json:"project"`
	Timestamp string            `json:"timestamp"`
	Summary   Summary           `json:"summary"`
	Stages    map[string][]Step `json:"stages"`
}

type Summary struct {
	TotalStages      int     `json:"total_stages"`
	SuccessfulStages int     `json:"successful_stages"`
	FailedStages     int     `json:"failed_stages"`
	TotalDuration    float64 `json:"total_duration"`
	Status           string  `json:"status"`
}

// Step is one formatted execution record within a stage.
type Step struct {
	Step     int             `json:"step"`
	Status   executor.Status `json:"status"`
	Duration float64         `json:"duration"`
	ExitCode int             `json:"exit_code"`
	Output   string          `json:"output"`
	Error    string          `json:"error,omitempty"`
}

// Generate aggregates the three stage result sets into a report. Counters and
// the duration sum cover only results actually produced; commands skipped by
// fail-fast contribute nothing.
func Generate(project string, build, test, deploy []executor.Result) *Report {
	var summary Summary
	for _, results := range [][]executor.Result{build, test, deploy} {
		for _, r := range results {
			summary.TotalStages++
			switch r.Status {
			case executor.StatusSuccess:
				summary.SuccessfulStages++
			case executor.StatusFailed:
				summary.FailedStages++
			}
			summary.TotalDuration += r.Duration.Seconds()
		}
	}

	summary.Status = OverallSuccess
	if summary.FailedStages > 0 {
		summary.Status = OverallFailed
	}

	return &Report{
		Project:   project,
		Timestamp: time.Now().Format(timestampFormat),
		Summary:   summary,
		Stages: map[string][]Step{
			"build":  formatSteps(build),
			"test":   formatSteps(test),
			"deploy": formatSteps(deploy),
		},
	}
}

func formatSteps(results []executor.Result) []Step {
	steps := make([]Step, 0, len(results))
	for i, r := range results {
		steps = append(steps, Step{
			Step:     i + 1,
			Status:   r.Status,
			Duration: r.Duration.Seconds(),
			ExitCode: r.ExitCode,
			Output:   Truncate(r.Output),
			Error:    Truncate(r.Error),
		})
	}
	return steps
}

// Truncate cuts text to its first 500 characters and appends a marker.
// Shorter text passes through unchanged, which makes truncation idempotent.
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= truncateLimit {
		return s
	}
	return string(runes[:truncateLimit]) + truncateMarker
}

// Save writes the report as indented JSON.
func Save(r *Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// Load reads a previously saved report.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return &r, nil
}
