package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dailies/internal/history"
)

var (
	ErrHost          = errors.New("host operation failed")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrTimeout       = errors.New("timeout")
	ErrDeclined      = errors.New("declined by user")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later outcome classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrHost
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a run error to the status recorded in the history ledger.
func FailureStatus(err error) history.Status {
	switch {
	case err == nil:
		return history.StatusCompleted
	case errors.Is(err, ErrDeclined):
		return history.StatusDeclined
	case errors.Is(err, ErrTimeout):
		return history.StatusTimedOut
	case errors.Is(err, context.Canceled):
		return history.StatusCanceled
	default:
		return history.StatusFailed
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
