package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the pipeline configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d build, %d test, %d deploy commands, %d notification services\n",
			cfg.ProjectName,
			len(cfg.BuildCommands), len(cfg.TestCommands), len(cfg.DeploymentCommands),
			len(cfg.Notifications.Services))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
