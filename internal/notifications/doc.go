// Package notifications pushes run outcomes to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers never need to check whether notifications are enabled before
// publishing. Delivery failures are returned to the caller, which logs them;
// a failed notification never fails a run.
package notifications
