package main

import (
	"strings"
	"testing"
	"time"

	"dailies/internal/history"
	"dailies/internal/preflight"
)

func TestFormatters(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("shortID = %q", got)
	}
	if got := valueOrDash("  "); got != "-" {
		t.Fatalf("valueOrDash = %q", got)
	}
	if got := formatDuration(0); got != "-" {
		t.Fatalf("formatDuration(0) = %q", got)
	}
	if got := formatDuration(90*time.Second + 400*time.Millisecond); got != "1m30s" {
		t.Fatalf("formatDuration = %q", got)
	}
}

func TestHistoryRows(t *testing.T) {
	now := time.Date(2024, time.March, 9, 18, 0, 0, 0, time.UTC)
	runs := []history.Run{{
		ID:         "0123456789abcdef",
		Status:     history.StatusCompleted,
		Summary:    history.Summary{Project: "Shoot1", Folder: "2024-03-09", ClipCount: 2},
		StartedAt:  now.Add(-2 * time.Hour),
		FinishedAt: now.Add(-2*time.Hour + 3*time.Minute),
	}}
	rows := historyRows(runs, now)
	want := []string{"01234567", "2 hours ago", "completed", "Shoot1", "2024-03-09", "2", "3m0s"}
	if strings.Join(rows[0], "|") != strings.Join(want, "|") {
		t.Fatalf("row = %v, want %v", rows[0], want)
	}

	table := renderTable(historyColumns, rows)
	for _, cell := range append([]string{"ID", "Duration"}, want...) {
		if !strings.Contains(table, cell) {
			t.Fatalf("table missing %q:\n%s", cell, table)
		}
	}
}

func TestCheckLine(t *testing.T) {
	ok := checkLine(preflight.Result{Name: "Bridge", Passed: true, Detail: "simhost"}, false)
	if ok != "  Bridge:              [OK] simhost" {
		t.Fatalf("checkLine = %q", ok)
	}
	failed := checkLine(preflight.Result{Name: "LUT"}, true)
	if !strings.HasPrefix(failed, ansiRed) || !strings.HasSuffix(failed, "[FAIL]"+ansiReset) {
		t.Fatalf("checkLine = %q", failed)
	}
}
