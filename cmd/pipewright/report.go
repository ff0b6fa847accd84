package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report [path]",
	Short: "Show the last saved pipeline report",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := report.DefaultPath
		if len(args) == 1 {
			path = args[0]
		}
		rep, err := report.Load(path)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", rep.Project, rep.Timestamp)
		printReport(rep, false)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
