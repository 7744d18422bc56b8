package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"dailies/internal/history"
	"dailies/internal/host/bridge"
	"dailies/internal/logging"
	"dailies/internal/notifications"
	"dailies/internal/pipeline"
	"dailies/internal/prompt"
	"dailies/internal/runlock"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var assumeYes bool
	var mediaDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import, grade and export a card of media",
		Long: "Run prompts for a project name and a media directory, builds a dated folder\n" +
			"structure in the project's media pool, imports the media onto a new timeline,\n" +
			"applies the configured LUT to every clip and queues a render.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			lock, err := runlock.Acquire(cfg.LockPath())
			if err != nil {
				return err
			}
			defer func() {
				if err := lock.Release(); err != nil {
					logger.Warn("failed to release run lock", logging.Error(err))
				}
			}()

			opts := pipeline.Options{
				Config:    cfg,
				Host:      bridge.NewClientFromConfig(cfg),
				Prompter:  prompt.New(cmd.InOrStdin(), cmd.OutOrStdout()),
				Logger:    logger,
				Notifier:  notifications.NewService(cfg),
				AssumeYes: assumeYes,
				MediaDir:  mediaDir,
			}
			if cfg.History.Enabled {
				store, err := history.Open(cfg)
				if err != nil {
					return fmt.Errorf("open history: %w", err)
				}
				defer store.Close()
				opts.Ledger = store
			}

			runner, err := pipeline.NewRunner(opts)
			if err != nil {
				return err
			}
			result, runErr := runner.Run(cmd.Context())
			if result.Summary.Project != "" {
				printRunSummary(cmd.OutOrStdout(), result)
			}
			if errors.Is(runErr, prompt.ErrInputClosed) {
				return errors.New("input closed before the run finished")
			}
			return runErr
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Start the export without asking for confirmation")
	cmd.Flags().StringVarP(&mediaDir, "media", "m", "", "Media directory (skips the path prompt)")
	return cmd
}

func printRunSummary(out io.Writer, result pipeline.Result) {
	s := result.Summary
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderFields([][2]string{
		{"Run", shortID(result.RunID)},
		{"Outcome", string(result.Outcome)},
		{"Project", valueOrDash(s.Project)},
		{"Media", valueOrDash(s.MediaDir)},
		{"Folder", valueOrDash(s.Folder)},
		{"Timeline", valueOrDash(s.Timeline)},
		{"Clips", strconv.Itoa(s.ClipCount)},
		{"Render job", valueOrDash(s.JobID)},
		{"Duration", formatDuration(result.Duration())},
	}))
}
