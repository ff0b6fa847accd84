package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule",
	Long: "Runs the pipeline on the given cron expression until interrupted.\n" +
		"A tick that fires while the previous run is still going is skipped.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, _ := cmd.Flags().GetString("cron")

		logger := setupLogger()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
		if _, err := c.AddFunc(spec, func() {
			logger.Info("scheduled run starting", "cron", spec)
			runAndSave(ctx, cfg, logger)
		}); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", spec, err)
		}

		c.Start()
		logger.Info("scheduler started", "cron", spec)

		<-ctx.Done()
		logger.Info("scheduler stopping")
		// Stop returns a context that is done once in-flight jobs finish.
		<-c.Stop().Done()
		return nil
	},
}

func init() {
	scheduleCmd.Flags().String("cron", "", "cron expression, e.g. \"0 2 * * *\"")
	_ = scheduleCmd.MarkFlagRequired("cron")
	rootCmd.AddCommand(scheduleCmd)
}
