package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright/internal/report"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rerun the pipeline when files change",
	Long: "Watches the working directory tree and reruns the whole pipeline after\n" +
		"changes settle. Each rerun is a full build, test, deploy pass.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		debounce, _ := cmd.Flags().GetDuration("debounce")

		logger := setupLogger()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		root := cfg.WorkingDirectory
		if root == "" {
			root = "."
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}
		defer watcher.Close()

		if err := watchTree(watcher, root); err != nil {
			return fmt.Errorf("watching %s: %w", root, err)
		}
		logger.Info("watching for changes", "dir", root, "debounce", debounce)

		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return nil

			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if ignoredEvent(ev) {
					continue
				}
				logger.Debug("change detected", "file", ev.Name, "op", ev.Op.String())
				if ev.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						_ = watchTree(watcher, ev.Name)
					}
				}
				pending = time.After(debounce)

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Error("watch error", "error", err)

			case <-pending:
				pending = nil
				runAndSave(ctx, cfg, logger)
			}
		}
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", 500*time.Millisecond, "settle time after the last change before rerunning")
	rootCmd.AddCommand(watchCmd)
}

func watchTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		switch d.Name() {
		case ".git", "node_modules", "vendor":
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// ignoredEvent filters out the runner's own artifacts, which would otherwise
// retrigger the watch loop forever.
func ignoredEvent(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return true
	}
	base := filepath.Base(ev.Name)
	if base == report.DefaultPath {
		return true
	}
	if logFile != "" && base == filepath.Base(logFile) {
		return true
	}
	return false
}
