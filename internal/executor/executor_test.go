package executor

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestExecute_Success(t *testing.T) {
	result := Execute(context.Background(), Options{
		Name:    "hello",
		Command: "echo hello world",
	})
	if result.Status != StatusSuccess {
		t.Fatalf("status = %s, want success", result.Status)
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", result.ExitCode)
	}
	if !strings.Contains(result.Output, "hello world") {
		t.Errorf("output = %q, missing hello world", result.Output)
	}
	if result.Duration < 0 {
		t.Errorf("duration = %v, want >= 0", result.Duration)
	}
}

func TestExecute_NonZeroExit(t *testing.T) {
	result := Execute(context.Background(), Options{Command: "exit 3"})
	if result.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
	if result.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", result.ExitCode)
	}
}

func TestExecute_StderrCaptured(t *testing.T) {
	result := Execute(context.Background(), Options{Command: "echo oops >&2"})
	if result.Status != StatusSuccess {
		t.Fatalf("status = %s, want success", result.Status)
	}
	if !strings.Contains(result.Error, "oops") {
		t.Errorf("error = %q, missing stderr content", result.Error)
	}
}

func TestExecute_Timeout(t *testing.T) {
	start := time.Now()
	result := Execute(context.Background(), Options{
		Command: "echo started; sleep 10",
		Timeout: 500 * time.Millisecond,
	})
	elapsed := time.Since(start)

	if result.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
	if result.ExitCode != ExitCodeNone {
		t.Errorf("exit code = %d, want %d", result.ExitCode, ExitCodeNone)
	}
	if !strings.Contains(result.Error, "timed out") {
		t.Errorf("error = %q, want timeout message", result.Error)
	}
	// Output produced before the kill is still captured.
	if !strings.Contains(result.Output, "started") {
		t.Errorf("output = %q, missing pre-kill output", result.Output)
	}
	if elapsed > 5*time.Second {
		t.Errorf("execute took %v, should not wait out the sleep", elapsed)
	}
	if result.Duration < 500*time.Millisecond {
		t.Errorf("duration = %v, want at least the timeout", result.Duration)
	}
}

func TestExecute_LaunchFailure(t *testing.T) {
	result := Execute(context.Background(), Options{
		Command: "echo never runs",
		Dir:     "/nonexistent/path/for/sure",
	})
	if result.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
	if result.ExitCode != ExitCodeNone {
		t.Errorf("exit code = %d, want %d", result.ExitCode, ExitCodeNone)
	}
	if result.Error == "" {
		t.Error("error is empty, want launch failure description")
	}
	if result.Output != "" {
		t.Errorf("output = %q, want empty", result.Output)
	}
}

func TestExecute_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Execute(ctx, Options{Command: "echo never runs"})
	if result.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", result.Status)
	}
	if result.Output != "" {
		t.Errorf("output = %q, want empty", result.Output)
	}
}

func TestExecute_WorkingDir(t *testing.T) {
	dir := t.TempDir()
	result := Execute(context.Background(), Options{Command: "pwd", Dir: dir})
	if result.Status != StatusSuccess {
		t.Fatalf("status = %s, want success", result.Status)
	}
	if !strings.Contains(result.Output, dir) {
		t.Errorf("output = %q, want working dir %q", result.Output, dir)
	}
}

func TestExecute_ExtraEnv(t *testing.T) {
	result := Execute(context.Background(), Options{
		Command: "echo value=$PIPEWRIGHT_TEST_VAR",
		Env:     []string{"PIPEWRIGHT_TEST_VAR=abc123"},
	})
	if !strings.Contains(result.Output, "value=abc123") {
		t.Errorf("output = %q, missing injected env var", result.Output)
	}
}

func TestStatus_JSONRoundTrip(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusRunning, StatusSuccess, StatusFailed, StatusCancelled} {
		data, err := s.MarshalJSON()
		if err != nil {
			t.Fatalf("marshal %s: %v", s, err)
		}
		var got Status
		if err := got.UnmarshalJSON(data); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if got != s {
			t.Errorf("round trip = %s, want %s", got, s)
		}
	}
}

func TestStatus_UnknownRejected(t *testing.T) {
	var s Status
	if err := s.UnmarshalJSON([]byte(`"exploded"`)); err == nil {
		t.Error("expected error for unknown status string")
	}
	if _, err := Status(42).MarshalJSON(); err == nil {
		t.Error("expected error for out-of-range status value")
	}
}
