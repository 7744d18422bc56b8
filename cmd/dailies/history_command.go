package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dailies/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("list runs: %w", err)
				}
				if asJSON {
					if runs == nil {
						runs = []history.Run{}
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderTable(historyColumns, historyRows(runs, time.Now())))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

var historyColumns = []column{
	{title: "ID"},
	{title: "Started"},
	{title: "Status"},
	{title: "Project"},
	{title: "Folder"},
	{title: "Clips", numeric: true},
	{title: "Duration", numeric: true},
}

func historyRows(runs []history.Run, now time.Time) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			string(run.Status),
			valueOrDash(run.Summary.Project),
			valueOrDash(run.Summary.Folder),
			strconv.Itoa(run.Summary.ClipCount),
			formatDuration(run.Duration()),
		})
	}
	return rows
}
