package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dailies/internal/config"
	"dailies/internal/history"
)

const userAgent = "dailies/0.1"

// Service defines the notification surface used by the pipeline and CLI.
type Service interface {
	NotifyRenderCompleted(ctx context.Context, summary history.Summary, duration time.Duration) error
	NotifyExportDeclined(ctx context.Context, summary history.Summary) error
	NotifyRenderTimedOut(ctx context.Context, summary history.Summary, waited time.Duration) error
	NotifyRunFailed(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether svc actually delivers messages.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRenderCompleted(ctx context.Context, summary history.Summary, duration time.Duration) error {
	message := fmt.Sprintf("✅ Export complete: %s / %s (%s)", label(summary.Project), label(summary.Folder), clipCount(summary.ClipCount))
	if d := roundDuration(duration); d > 0 {
		message = fmt.Sprintf("%s in %s", message, d)
	}
	if summary.MediaDir != "" {
		message = fmt.Sprintf("%s\nMedia: %s", message, summary.MediaDir)
	}
	return n.send(ctx, payload{
		title:    "Dailies - Export Complete",
		message:  message,
		tags:     []string{"dailies", "render", "completed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyExportDeclined(ctx context.Context, summary history.Summary) error {
	return n.send(ctx, payload{
		title:   "Dailies - Export Skipped",
		message: fmt.Sprintf("Stopped before exporting %s / %s", label(summary.Project), label(summary.Folder)),
		tags:    []string{"dailies", "render", "declined"},
	})
}

func (n *ntfyService) NotifyRenderTimedOut(ctx context.Context, summary history.Summary, waited time.Duration) error {
	return n.send(ctx, payload{
		title:    "Dailies - Export Still Running",
		message:  fmt.Sprintf("⏱️ Stopped waiting after %s: %s / %s\nThe render continues on the host", roundDuration(waited), label(summary.Project), label(summary.Folder)),
		tags:     []string{"dailies", "render", "timeout"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "Dailies - Error",
		message:  builder.String(),
		tags:     []string{"dailies", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Dailies - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"dailies", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func label(value string) string {
	if value = strings.TrimSpace(value); value == "" {
		return "unknown"
	}
	return value
}

func clipCount(n int) string {
	if n == 1 {
		return "1 clip"
	}
	return fmt.Sprintf("%d clips", n)
}

func roundDuration(d time.Duration) time.Duration {
	d = d.Round(time.Second)
	if d < 0 {
		return 0
	}
	return d
}

type noopService struct{}

func (noopService) NotifyRenderCompleted(context.Context, history.Summary, time.Duration) error {
	return nil
}
func (noopService) NotifyExportDeclined(context.Context, history.Summary) error { return nil }
func (noopService) NotifyRenderTimedOut(context.Context, history.Summary, time.Duration) error {
	return nil
}
func (noopService) NotifyRunFailed(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }
