// Package naming picks collision-free names for the dated media pool folder.
package naming

import (
	"strconv"
	"time"

	"dailies/internal/config"
)

// Layout is the folder structure created for one run.
type Layout struct {
	Folder       string
	SourceMedia  string
	Timeline     string
	TimelineName string
}

// FolderName returns base when no sibling uses it, otherwise the lowest
// base_k with k >= 2 that is free.
func FolderName(base string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		taken[name] = struct{}{}
	}
	if _, ok := taken[base]; !ok {
		return base
	}
	for k := 2; ; k++ {
		candidate := base + "_" + strconv.Itoa(k)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

// Plan derives the run's folder layout from the current date and the names
// already present under the media pool root.
func Plan(now time.Time, existing []string, folders config.Folders) Layout {
	layout := folders.DateLayout
	if layout == "" {
		layout = time.DateOnly
	}
	name := FolderName(now.Format(layout), existing)
	return Layout{
		Folder:       name,
		SourceMedia:  folders.SourceMedia,
		Timeline:     folders.Timeline,
		TimelineName: folders.TimelineName(name),
	}
}
