// Package pipeline drives the build → test → deploy stage sequence over a
// loaded config, one command at a time.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/executor"
)

// Stage names in execution order.
const (
	StageBuild  = "build"
	StageTest   = "test"
	StageDeploy = "deploy"
)

// Event reports a stage transition to an optional observer. Status is
// StatusRunning when the stage starts; on completion it is StatusSuccess or
// StatusFailed and Results carries the stage's result set.
type Event struct {
	Stage   string
	Status  executor.Status
	Results []executor.Result
}

// Outcome holds the per-stage result sets of one pipeline run. A stage that
// was never attempted has a nil result set.
type Outcome struct {
	Build     []executor.Result
	Test      []executor.Result
	Deploy    []executor.Result
	Cancelled bool
}

func (o Outcome) Failed() bool {
	return hasFailure(o.Build) || hasFailure(o.Test) || hasFailure(o.Deploy)
}

// Runner executes the pipeline for one config. Stages and commands run
// strictly sequentially; command side effects are order-dependent, so no
// concurrency is ever introduced here.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger

	// Observer, when set, receives stage start and completion events. It is
	// called from the running goroutine and must not block.
	Observer func(Event)
}

// New creates a Runner with the given config and logger.
func New(cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{cfg: cfg, logger: logger}
}

// Run executes the three stages in order. A failure in one stage skips every
// later stage; skipped stages produce no results at all. Cancellation is
// observed between commands and between stages only; an in-flight command
// always runs to completion or to its timeout. Run always returns; every
// failure is data in the Outcome.
func (r *Runner) Run(ctx context.Context) Outcome {
	log := r.logger.With("run", uuid.NewString(), "project", r.cfg.ProjectName)
	log.Info("starting pipeline")
	start := time.Now()

	var out Outcome
	deployAttempted := false
	out.Build = r.runStage(ctx, StageBuild, r.cfg.BuildCommands)
	if hasFailure(out.Build) {
		log.Error("build stage failed, skipping test and deploy")
	} else if ctx.Err() == nil {
		out.Test = r.runStage(ctx, StageTest, r.cfg.TestCommands)
		if hasFailure(out.Test) {
			log.Error("test stage failed, skipping deploy")
		} else if ctx.Err() == nil {
			out.Deploy = r.runStage(ctx, StageDeploy, r.cfg.DeploymentCommands)
			deployAttempted = true
		}
	}

	// A run counts as cancelled when the context stopped it short of a
	// natural terminal state (a failure, or a fully attempted deploy stage).
	deployComplete := deployAttempted && !hasFailure(out.Deploy) && len(out.Deploy) == len(r.cfg.DeploymentCommands)
	out.Cancelled = ctx.Err() != nil && !out.Failed() && !deployComplete

	switch {
	case out.Cancelled:
		log.Warn("pipeline cancelled", "duration", time.Since(start))
	case out.Failed():
		log.Info("pipeline completed", "status", "failed", "duration", time.Since(start))
	default:
		log.Info("pipeline completed", "status", "success", "duration", time.Since(start))
	}
	return out
}

// RunStage executes commands strictly in configured order, stopping at the
// first failure. The returned slice holds one result per command attempted,
// including the failing one; commands after it are never attempted. An empty
// command list yields an empty result set.
func (r *Runner) RunStage(ctx context.Context, stage string, commands []config.Command) []executor.Result {
	log := r.logger.With("stage", stage)
	env := r.cfg.EnvList()

	var results []executor.Result
	for _, cmd := range commands {
		if ctx.Err() != nil {
			log.Warn("stage cancelled", "completed", len(results), "configured", len(commands))
			break
		}

		log.Info("executing command", "name", cmd.Name, "timeout_seconds", cmd.Timeout)
		result := executor.Execute(ctx, executor.Options{
			Name:    cmd.Name,
			Command: cmd.Command,
			Timeout: time.Duration(cmd.Timeout) * time.Second,
			Dir:     r.cfg.WorkingDirectory,
			Env:     env,
		})
		results = append(results, result)

		if result.Failed() {
			log.Error("stage failed", "name", cmd.Name, "exit_code", result.ExitCode)
			break
		}
		log.Info("command completed", "name", cmd.Name, "duration", result.Duration)
	}
	return results
}

func (r *Runner) runStage(ctx context.Context, stage string, commands []config.Command) []executor.Result {
	if ctx.Err() != nil {
		return nil
	}
	r.emit(Event{Stage: stage, Status: executor.StatusRunning})
	results := r.RunStage(ctx, stage, commands)

	status := executor.StatusSuccess
	if hasFailure(results) {
		status = executor.StatusFailed
	}
	r.emit(Event{Stage: stage, Status: status, Results: results})
	return results
}

func (r *Runner) emit(ev Event) {
	if r.Observer != nil {
		r.Observer(ev)
	}
}

func hasFailure(results []executor.Result) bool {
	for _, res := range results {
		if res.Failed() {
			return true
		}
	}
	return false
}
