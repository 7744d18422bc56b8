package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeHost()
	c.normalizeFolders()
	c.normalizeGrade()
	c.normalizeRender()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeHost() {
	c.Host.BridgeURL = strings.TrimSpace(c.Host.BridgeURL)
	if c.Host.BridgeURL == "" {
		if value, ok := os.LookupEnv(EnvHostURL); ok {
			c.Host.BridgeURL = strings.TrimSpace(value)
		}
	}
	if c.Host.BridgeURL == "" {
		c.Host.BridgeURL = defaultBridgeURL
	}
	c.Host.BridgeURL = strings.TrimRight(c.Host.BridgeURL, "/")

	c.Host.APIToken = strings.TrimSpace(c.Host.APIToken)
	if c.Host.APIToken == "" {
		if value, ok := os.LookupEnv(EnvHostToken); ok {
			c.Host.APIToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeFolders() {
	if strings.TrimSpace(c.Folders.DateLayout) == "" {
		c.Folders.DateLayout = defaultDateLayout
	}
	c.Folders.SourceMedia = strings.TrimSpace(c.Folders.SourceMedia)
	if c.Folders.SourceMedia == "" {
		c.Folders.SourceMedia = defaultSourceMediaFolder
	}
	c.Folders.Timeline = strings.TrimSpace(c.Folders.Timeline)
	if c.Folders.Timeline == "" {
		c.Folders.Timeline = defaultTimelineFolder
	}
	c.Folders.TimelineSuffix = strings.TrimSpace(c.Folders.TimelineSuffix)
	if c.Folders.TimelineSuffix == "" {
		c.Folders.TimelineSuffix = defaultTimelineSuffix
	}
}

func (c *Config) normalizeGrade() {
	c.Grade.LUT = strings.TrimSpace(c.Grade.LUT)
	if c.Grade.LUT == "" {
		if value, ok := os.LookupEnv(EnvLUT); ok {
			c.Grade.LUT = strings.TrimSpace(value)
		}
	}
	if c.Grade.LUT == "" {
		c.Grade.LUT = DefaultLUT
	}
}

func (c *Config) normalizeRender() {
	c.Render.ExportsDirName = strings.TrimSpace(c.Render.ExportsDirName)
	if c.Render.ExportsDirName == "" {
		c.Render.ExportsDirName = defaultExportsDirName
	}
	c.Render.Mode = strings.ToLower(strings.TrimSpace(c.Render.Mode))
	if c.Render.Mode == "" {
		c.Render.Mode = defaultRenderMode
	}
	c.Render.Format = strings.TrimSpace(c.Render.Format)
	c.Render.Codec = strings.TrimSpace(c.Render.Codec)
	if strings.TrimSpace(c.Render.NameTemplate) == "" {
		c.Render.NameTemplate = defaultNameTemplate
	}
	if c.Render.ProjectSettings == nil {
		c.Render.ProjectSettings = defaultProjectSettings()
	}
}

func (c *Config) normalizeHistory() error {
	path := strings.TrimSpace(c.History.Path)
	if path == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, "history.db")
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	c.History.Path = expanded
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv(EnvNtfyTopic); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
