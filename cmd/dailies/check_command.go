package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"dailies/internal/preflight"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the bridge, grading settings and local directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			fmt.Fprintln(out, "Preflight:")
			for _, result := range results {
				fmt.Fprintln(out, checkLine(result, colorize))
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}
}

// checkLine renders one preflight result as "  Name:   [OK] detail".
func checkLine(result preflight.Result, colorize bool) string {
	status, color := "OK", ansiGreen
	if !result.Passed {
		status, color = "FAIL", ansiRed
	}
	line := strings.TrimRight(fmt.Sprintf("  %-20s [%s] %s", result.Name+":", status, result.Detail), " ")
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
