package executor

import "time"

// ExitCodeNone is reported when a command produced no exit code of its own:
// it timed out or could not be launched.
const ExitCodeNone = -1

// Result captures the outcome of one command execution. Failures are stored
// in the result rather than returned, so the caller always has something to
// report.
type Result struct {
	Name     string
	Status   Status
	Duration time.Duration
	Output   string // captured stdout
	Error    string // captured stderr, or a timeout/launch failure message; empty means absent
	ExitCode int
}

func (r Result) Failed() bool {
	return r.Status == StatusFailed
}
