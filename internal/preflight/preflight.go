package preflight

import (
	"context"

	"dailies/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// RunAll executes every preflight check for the given config. The history
// directory is only checked when the ledger is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.History.Enabled {
		results = append(results, CheckDirectoryAccess("History directory", historyDir(cfg)))
	}
	results = append(results,
		CheckBridge(ctx, cfg.Host.BridgeURL, cfg.Host.APIToken),
		CheckLUT(cfg.Grade),
		CheckRenderFormat(cfg.Render),
		CheckNotifications(cfg.Notifications),
	)
	return results
}
