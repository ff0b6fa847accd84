// Package executor runs single shell commands with a wall-clock timeout,
// capturing their output and exit code. Timeouts and launch failures are
// reported as data, never as returned errors.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Options configures a single command execution.
type Options struct {
	Name    string        // label for reporting; not required to be unique
	Command string        // command line, interpreted by the host shell
	Timeout time.Duration // zero means no timeout
	Dir     string        // working directory; empty inherits the caller's
	Env     []string      // extra KEY=VALUE entries appended to the inherited environment
}

// Execute runs one shell command and captures its outcome. Non-zero exits,
// timeouts and launch failures all come back as a Failed Result; Execute
// itself never fails.
//
// The context is consulted only before the process starts. A command that is
// already running is never interrupted by cancellation; it runs to completion
// or to its timeout.
func Execute(ctx context.Context, opts Options) Result {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return Result{
			Name:     opts.Name,
			Status:   StatusCancelled,
			Duration: time.Since(start),
			Error:    err.Error(),
			ExitCode: ExitCodeNone,
		}
	}

	cmd := shellCommand(opts.Command)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	// Own process group, so a timeout kill reaches descendants too.
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{
			Name:     opts.Name,
			Status:   StatusFailed,
			Duration: time.Since(start),
			Error:    fmt.Sprintf("starting command: %v", err),
			ExitCode: ExitCodeNone,
		}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var timeoutC <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case err := <-done:
		return completed(opts, start, &stdout, &stderr, err)
	case <-timeoutC:
		killProcessGroup(cmd.Process.Pid)
		// Reap the process and let Wait drain whatever output was buffered
		// before the kill landed.
		<-done
		errMsg := fmt.Sprintf("command timed out after %s", opts.Timeout)
		if s := stderr.String(); s != "" {
			errMsg += "\n" + s
		}
		return Result{
			Name:     opts.Name,
			Status:   StatusFailed,
			Duration: time.Since(start),
			Output:   stdout.String(),
			Error:    errMsg,
			ExitCode: ExitCodeNone,
		}
	}
}

func completed(opts Options, start time.Time, stdout, stderr *bytes.Buffer, err error) Result {
	result := Result{
		Name:     opts.Name,
		Duration: time.Since(start),
		Output:   stdout.String(),
		Error:    stderr.String(),
	}

	switch e := err.(type) {
	case nil:
		result.Status = StatusSuccess
		result.ExitCode = 0
	case *exec.ExitError:
		result.Status = StatusFailed
		result.ExitCode = e.ExitCode()
	default:
		result.Status = StatusFailed
		result.ExitCode = ExitCodeNone
		result.Error = fmt.Sprintf("waiting for command: %v", err)
	}
	return result
}
