package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"dailies/internal/history"
	"dailies/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrHost, "create_folders", "add subfolder", "2026-10-19", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrHost) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"create_folders", "add subfolder", "2026-10-19"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrHost) {
		t.Fatalf("expected default host marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFailureStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want history.Status
	}{
		{"nil", nil, history.StatusCompleted},
		{"declined", services.Wrap(services.ErrDeclined, "confirm_render", "", "", nil), history.StatusDeclined},
		{"timeout", services.Wrap(services.ErrTimeout, "monitor", "", "", nil), history.StatusTimedOut},
		{"canceled", fmt.Errorf("prompt: %w", context.Canceled), history.StatusCanceled},
		{"host", services.Wrap(services.ErrHost, "import_media", "", "", errors.New("io")), history.StatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.FailureStatus(tc.err); got != tc.want {
				t.Fatalf("FailureStatus = %s, want %s", got, tc.want)
			}
		})
	}
}
