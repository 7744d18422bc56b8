package logging

import "strings"

const shortRunIDLength = 8

// FormatSubject builds the component/run/stage prefix used in console output,
// e.g. "pipeline run 1a2b3c4d (import_media)".
func FormatSubject(component, runID, stage string) string {
	component = strings.TrimSpace(component)
	runID = strings.TrimSpace(runID)
	stage = strings.TrimSpace(stage)
	if len(runID) > shortRunIDLength {
		runID = runID[:shortRunIDLength]
	}
	parts := make([]string, 0, 3)
	if component != "" {
		parts = append(parts, component)
	}
	switch {
	case runID != "" && stage != "":
		parts = append(parts, "run "+runID+" ("+stage+")")
	case runID != "":
		parts = append(parts, "run "+runID)
	case stage != "":
		parts = append(parts, "("+stage+")")
	}
	return strings.Join(parts, " ")
}
