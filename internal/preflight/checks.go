package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"dailies/internal/config"
	"dailies/internal/host"
	"dailies/internal/host/bridge"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckBridge verifies that the host bridge answers its health endpoint.
// It uses a 5-second timeout and a single attempt.
func CheckBridge(ctx context.Context, baseURL, token string) Result {
	const name = "Host bridge"

	base := strings.TrimSpace(baseURL)
	if base == "" {
		return Result{Name: name, Detail: "missing bridge_url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := bridge.NewClient(base, token, 5*time.Second).Health(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeBridgeError(base, err)}
	}
	detail := fmt.Sprintf("%s (protocol %s)", base, resp.Protocol)
	if resp.Host != "" {
		detail = fmt.Sprintf("%s (%s, protocol %s)", base, resp.Host, resp.Protocol)
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckLUT verifies that a grading LUT and valid node/track indexes are set.
// The LUT path is resolved by the host, so only its shape is checked here.
func CheckLUT(grade config.Grade) Result {
	const name = "Grading LUT"

	lut := strings.TrimSpace(grade.LUT)
	if lut == "" {
		return Result{Name: name, Detail: "grade.lut is empty"}
	}
	if grade.NodeIndex < 1 || grade.TrackIndex < 1 {
		return Result{Name: name, Detail: fmt.Sprintf("invalid node %d / track %d", grade.NodeIndex, grade.TrackIndex)}
	}
	if ext := strings.ToLower(filepath.Ext(lut)); ext != ".cube" && ext != ".3dl" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (unexpected extension %q)", lut, ext)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (node %d, video track %d)", lut, grade.NodeIndex, grade.TrackIndex)}
}

// CheckRenderFormat verifies the render target is fully specified.
func CheckRenderFormat(render config.Render) Result {
	const name = "Render format"

	if strings.TrimSpace(render.Format) == "" || strings.TrimSpace(render.Codec) == "" {
		return Result{Name: name, Detail: "render.format and render.codec are required"}
	}
	if render.Width <= 0 || render.Height <= 0 || render.FrameRate <= 0 {
		return Result{Name: name, Detail: fmt.Sprintf("invalid frame %dx%d @ %g", render.Width, render.Height, render.FrameRate)}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s/%s %dx%d @ %g fps, %s clips", render.Format, render.Codec, render.Width, render.Height, render.FrameRate, render.Mode),
	}
}

// CheckNotifications reports whether ntfy delivery is configured. It never
// fails: notifications are optional.
func CheckNotifications(n config.Notifications) Result {
	const name = "Notifications"

	topic := strings.TrimSpace(n.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return Result{Name: name, Passed: true, Detail: topic}
}

func summarizeBridgeError(base string, err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Sprintf("%s (timed out)", base)
	case errors.Is(err, host.ErrNotFound):
		return fmt.Sprintf("%s (no bridge at this address)", base)
	case strings.Contains(err.Error(), "connection refused"):
		return fmt.Sprintf("%s (connection refused; is the bridge running?)", base)
	default:
		return fmt.Sprintf("%s (%v)", base, err)
	}
}

func historyDir(cfg *config.Config) string {
	return filepath.Dir(cfg.History.Path)
}
