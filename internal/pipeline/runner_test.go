package pipeline

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/executor"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func cmds(lines ...string) []config.Command {
	out := make([]config.Command, len(lines))
	for i, line := range lines {
		out[i] = config.Command{Name: "step", Command: line, Timeout: 30}
	}
	return out
}

func TestRun_AllSuccess(t *testing.T) {
	cfg := &config.Config{
		ProjectName:        "ok",
		BuildCommands:      cmds("exit 0"),
		TestCommands:       cmds("exit 0"),
		DeploymentCommands: cmds("exit 0"),
	}
	out := New(cfg, testLogger()).Run(context.Background())

	if out.Failed() {
		t.Error("expected success")
	}
	if out.Cancelled {
		t.Error("expected not cancelled")
	}
	if len(out.Build) != 1 || len(out.Test) != 1 || len(out.Deploy) != 1 {
		t.Errorf("result counts = %d/%d/%d, want 1/1/1", len(out.Build), len(out.Test), len(out.Deploy))
	}
}

func TestRunStage_FailFast(t *testing.T) {
	cfg := &config.Config{ProjectName: "ff"}
	r := New(cfg, testLogger())

	results := r.RunStage(context.Background(), StageBuild, cmds("echo one", "exit 1", "echo never"))
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 (stopped at first failure)", len(results))
	}
	if results[0].Status != executor.StatusSuccess {
		t.Errorf("results[0] = %s, want success", results[0].Status)
	}
	if results[1].Status != executor.StatusFailed || results[1].ExitCode != 1 {
		t.Errorf("results[1] = %s/%d, want failed/1", results[1].Status, results[1].ExitCode)
	}
}

func TestRunStage_Empty(t *testing.T) {
	r := New(&config.Config{ProjectName: "empty"}, testLogger())
	results := r.RunStage(context.Background(), StageTest, nil)
	if len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
}

func TestRun_BuildFailureSkipsTestAndDeploy(t *testing.T) {
	cfg := &config.Config{
		ProjectName:        "bf",
		BuildCommands:      cmds("exit 1"),
		TestCommands:       cmds("exit 0"),
		DeploymentCommands: cmds("exit 0"),
	}
	out := New(cfg, testLogger()).Run(context.Background())

	if !out.Failed() {
		t.Error("expected failure")
	}
	if len(out.Build) != 1 {
		t.Errorf("build results = %d, want 1", len(out.Build))
	}
	if len(out.Test) != 0 || len(out.Deploy) != 0 {
		t.Errorf("test/deploy results = %d/%d, want 0/0", len(out.Test), len(out.Deploy))
	}
}

func TestRun_TestFailureSkipsDeploy(t *testing.T) {
	cfg := &config.Config{
		ProjectName:        "tf",
		BuildCommands:      cmds("exit 0"),
		TestCommands:       cmds("exit 1"),
		DeploymentCommands: cmds("exit 0"),
	}
	out := New(cfg, testLogger()).Run(context.Background())

	if len(out.Build) != 1 || len(out.Test) != 1 {
		t.Errorf("build/test results = %d/%d, want 1/1", len(out.Build), len(out.Test))
	}
	if len(out.Deploy) != 0 {
		t.Errorf("deploy results = %d, want 0", len(out.Deploy))
	}
}

func TestRun_TimeoutFailsStage(t *testing.T) {
	cfg := &config.Config{
		ProjectName:   "to",
		BuildCommands: cmds("exit 0"),
		TestCommands: []config.Command{
			{Name: "slow", Command: "sleep 10", Timeout: 1},
		},
		DeploymentCommands: cmds("exit 0"),
	}
	out := New(cfg, testLogger()).Run(context.Background())

	if len(out.Test) != 1 {
		t.Fatalf("test results = %d, want 1", len(out.Test))
	}
	res := out.Test[0]
	if res.Status != executor.StatusFailed {
		t.Errorf("status = %s, want failed", res.Status)
	}
	if res.ExitCode != executor.ExitCodeNone {
		t.Errorf("exit code = %d, want %d", res.ExitCode, executor.ExitCodeNone)
	}
	if !strings.Contains(res.Error, "timed out") {
		t.Errorf("error = %q, want timeout message", res.Error)
	}
	if res.Duration > 5*time.Second {
		t.Errorf("duration = %v, should be near the 1s timeout, not the sleep", res.Duration)
	}
	if len(out.Deploy) != 0 {
		t.Errorf("deploy results = %d, want 0", len(out.Deploy))
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &config.Config{
		ProjectName:   "cc",
		BuildCommands: cmds("echo never"),
	}
	out := New(cfg, testLogger()).Run(ctx)

	if !out.Cancelled {
		t.Error("expected cancelled outcome")
	}
	if len(out.Build) != 0 || len(out.Test) != 0 || len(out.Deploy) != 0 {
		t.Errorf("results = %d/%d/%d, want 0/0/0", len(out.Build), len(out.Test), len(out.Deploy))
	}
}

func TestRun_CancelBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &config.Config{
		ProjectName:        "cbs",
		BuildCommands:      cmds("exit 0"),
		TestCommands:       cmds("echo never"),
		DeploymentCommands: cmds("echo never"),
	}
	r := New(cfg, testLogger())
	r.Observer = func(ev Event) {
		if ev.Stage == StageBuild && ev.Status == executor.StatusSuccess {
			cancel()
		}
	}

	out := r.Run(ctx)
	if !out.Cancelled {
		t.Error("expected cancelled outcome")
	}
	if out.Failed() {
		t.Error("cancelled run with no failures should not count as failed")
	}
	if len(out.Build) != 1 {
		t.Errorf("build results = %d, want 1", len(out.Build))
	}
	if len(out.Test) != 0 || len(out.Deploy) != 0 {
		t.Errorf("test/deploy results = %d/%d, want 0/0 after cancel", len(out.Test), len(out.Deploy))
	}
}

func TestRun_ObserverEventOrder(t *testing.T) {
	cfg := &config.Config{
		ProjectName:        "ev",
		BuildCommands:      cmds("exit 0"),
		TestCommands:       cmds("exit 0"),
		DeploymentCommands: cmds("exit 0"),
	}
	r := New(cfg, testLogger())

	var got []string
	r.Observer = func(ev Event) {
		got = append(got, ev.Stage+":"+ev.Status.String())
	}
	r.Run(context.Background())

	want := []string{
		"build:running", "build:success",
		"test:running", "test:success",
		"deploy:running", "deploy:success",
	}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRun_WorkingDirAndEnv(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		ProjectName:          "wd",
		WorkingDirectory:     dir,
		EnvironmentVariables: map[string]string{"PIPE_STAGE_VAR": "xyz"},
		BuildCommands:        cmds("pwd; echo var=$PIPE_STAGE_VAR"),
	}
	out := New(cfg, testLogger()).Run(context.Background())

	if len(out.Build) != 1 {
		t.Fatalf("build results = %d, want 1", len(out.Build))
	}
	output := out.Build[0].Output
	if !strings.Contains(output, dir) {
		t.Errorf("output = %q, missing working dir", output)
	}
	if !strings.Contains(output, "var=xyz") {
		t.Errorf("output = %q, missing env var", output)
	}
}
