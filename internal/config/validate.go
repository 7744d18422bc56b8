package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateHost(); err != nil {
		return err
	}
	if err := c.validateFolders(); err != nil {
		return err
	}
	if err := c.validateGrade(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateMonitor(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateHost() error {
	parsed, err := url.Parse(c.Host.BridgeURL)
	if err != nil {
		return fmt.Errorf("host.bridge_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("host.bridge_url must use http or https, got %q", c.Host.BridgeURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("host.bridge_url must include a host, got %q", c.Host.BridgeURL)
	}
	if c.Host.RequestTimeout <= 0 {
		return errors.New("host.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateFolders() error {
	sample := time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC).Format(c.Folders.DateLayout)
	if strings.TrimSpace(sample) == "" {
		return errors.New("folders.date_layout produces an empty folder name")
	}
	if strings.ContainsAny(sample, `/\`) {
		return fmt.Errorf("folders.date_layout must not produce path separators, got %q", sample)
	}
	if strings.TrimSpace(c.Folders.TimelineSuffix) == "" {
		return errors.New("folders.timeline_suffix must not be empty")
	}
	if c.Folders.SourceMedia == c.Folders.Timeline {
		return errors.New("folders.source_media and folders.timeline must differ")
	}
	return nil
}

func (c *Config) validateGrade() error {
	if c.Grade.LUT == "" {
		return errors.New("grade.lut must be set (or set DAILIES_LUT)")
	}
	return ensurePositiveMap(map[string]int{
		"grade.node_index":  c.Grade.NodeIndex,
		"grade.track_index": c.Grade.TrackIndex,
	})
}

func (c *Config) validateRender() error {
	if strings.ContainsAny(c.Render.ExportsDirName, `/\`) || c.Render.ExportsDirName == "." || c.Render.ExportsDirName == ".." {
		return fmt.Errorf("render.exports_dir_name must be a plain directory name, got %q", c.Render.ExportsDirName)
	}
	switch c.Render.Mode {
	case RenderModeIndividual, RenderModeSingle:
	default:
		return fmt.Errorf("render.mode must be %q or %q, got %q", RenderModeIndividual, RenderModeSingle, c.Render.Mode)
	}
	if c.Render.Format == "" {
		return errors.New("render.format must be set")
	}
	if c.Render.Codec == "" {
		return errors.New("render.codec must be set")
	}
	if err := ensurePositiveMap(map[string]int{
		"render.width":         c.Render.Width,
		"render.height":        c.Render.Height,
		"render.video_quality": c.Render.VideoQuality,
	}); err != nil {
		return err
	}
	if c.Render.FrameRate <= 0 {
		return errors.New("render.frame_rate must be positive")
	}
	for key := range c.Render.ProjectSettings {
		if strings.TrimSpace(key) == "" {
			return errors.New("render.project_settings keys must not be blank")
		}
	}
	return nil
}

func (c *Config) validateMonitor() error {
	if c.Monitor.PollIntervalMillis <= 0 {
		return errors.New("monitor.poll_interval_ms must be positive")
	}
	if c.Monitor.MaxWaitSeconds < 0 {
		return errors.New("monitor.max_wait_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
