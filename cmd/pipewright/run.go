package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/executor"
	"github.com/pipewright/pipewright/internal/notify"
	"github.com/pipewright/pipewright/internal/pipeline"
	"github.com/pipewright/pipewright/internal/report"
	"github.com/pipewright/pipewright/internal/tui"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	badStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once",
	Long: "Runs the build, test and deploy stages in order, stopping at the first failure.\n" +
		"The exit code is zero only when every executed command succeeded.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interactive, _ := cmd.Flags().GetBool("interactive")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		workDir, _ := cmd.Flags().GetString("workdir")
		reportPath, _ := cmd.Flags().GetString("report")

		logger := setupLogger()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if workDir != "" {
			cfg.WorkingDirectory = workDir
		}

		// Interrupt requests a coarse stop: the in-flight command still runs
		// to completion or timeout, then no further stage starts.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		runner := pipeline.New(cfg, logger)

		var outcome pipeline.Outcome
		var rep *report.Report
		if interactive && isatty.IsTerminal(os.Stdout.Fd()) {
			outcome, rep, err = tui.Run(ctx, runner, cfg.ProjectName)
			if err != nil {
				return err
			}
		} else {
			outcome = runner.Run(ctx)
			rep = report.Generate(cfg.ProjectName, outcome.Build, outcome.Test, outcome.Deploy)
		}

		if err := report.Save(rep, reportPath); err != nil {
			// The computed status stands even when persistence fails.
			logger.Error("saving report", "error", err)
		}

		sendNotifications(cfg, rep, dryRun, logger)
		printReport(rep, outcome.Cancelled)

		if outcome.Failed() || outcome.Cancelled {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolP("interactive", "i", false, "show the interactive run view")
	runCmd.Flags().Bool("dry-run", false, "validate notification targets without sending")
	runCmd.Flags().String("workdir", "", "working directory for all commands")
	runCmd.Flags().String("report", report.DefaultPath, "report output path")
	rootCmd.AddCommand(runCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Resolve(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runAndSave is the non-interactive run used by watch and schedule.
func runAndSave(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	outcome := pipeline.New(cfg, logger).Run(ctx)
	rep := report.Generate(cfg.ProjectName, outcome.Build, outcome.Test, outcome.Deploy)
	if err := report.Save(rep, report.DefaultPath); err != nil {
		logger.Error("saving report", "error", err)
	}
	sendNotifications(cfg, rep, false, logger)
}

func sendNotifications(cfg *config.Config, rep *report.Report, dryRun bool, logger *slog.Logger) {
	if len(cfg.Notifications.Services) == 0 {
		return
	}
	if rep.Summary.Status == report.OverallSuccess && !cfg.Notifications.OnSuccess {
		return
	}

	tmpl := cfg.Notifications.Template
	if tmpl == "" {
		tmpl = notify.DefaultTemplate
	}

	targets, err := notify.ResolveTargets(cfg.Notifications.Services, tmpl, notify.BuildData(rep))
	if err != nil {
		logger.Error("resolving notification targets", "error", err)
		return
	}

	for _, t := range targets {
		if dryRun {
			if err := notify.Validate(t); err != nil {
				logger.Error("notification target invalid", "service", t.ServiceName, "error", err)
				continue
			}
			logger.Info("would notify (dry-run)", "service", t.ServiceName, "message", t.Message)
			continue
		}
		if err := notify.Send(t); err != nil {
			// Delivery failures never change the pipeline status.
			logger.Error("notification failed", "service", t.ServiceName, "error", err)
			continue
		}
		logger.Info("notification sent", "service", t.ServiceName)
	}
}

func printReport(rep *report.Report, cancelled bool) {
	for _, stage := range []string{pipeline.StageBuild, pipeline.StageTest, pipeline.StageDeploy} {
		steps := rep.Stages[stage]
		if len(steps) == 0 {
			fmt.Printf("  %s %s\n", dimStyle.Render("-"), dimStyle.Render(stage+": no commands executed"))
			continue
		}
		for _, step := range steps {
			mark := okStyle.Render("✓")
			if step.Status == executor.StatusFailed {
				mark = badStyle.Render("✗")
			}
			fmt.Printf("  %s %s step %d (%.2fs, exit %d)\n", mark, stage, step.Step, step.Duration, step.ExitCode)
			if step.Status == executor.StatusFailed && step.Error != "" {
				fmt.Printf("      %s\n", firstLine(step.Error))
			}
		}
	}

	status := okStyle.Render(rep.Summary.Status)
	if rep.Summary.Status == report.OverallFailed {
		status = badStyle.Render(rep.Summary.Status)
	}
	if cancelled {
		status = warnStyle.Render("CANCELLED")
	}
	fmt.Printf("\n%s %s: %d/%d steps succeeded in %.2fs\n",
		status, rep.Project, rep.Summary.SuccessfulStages, rep.Summary.TotalStages, rep.Summary.TotalDuration)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
