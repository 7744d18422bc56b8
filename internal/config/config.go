package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains state and log directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Host contains configuration for reaching the editing host bridge.
type Host struct {
	BridgeURL      string `toml:"bridge_url"`
	APIToken       string `toml:"api_token"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Folders contains the naming rules for the per-run folder tree.
type Folders struct {
	DateLayout     string `toml:"date_layout"`
	SourceMedia    string `toml:"source_media"`
	Timeline       string `toml:"timeline"`
	TimelineSuffix string `toml:"timeline_suffix"`
}

// Grade contains the color grade applied to every clip on the graded track.
type Grade struct {
	LUT        string `toml:"lut"`
	NodeIndex  int    `toml:"node_index"`
	TrackIndex int    `toml:"track_index"`
}

// Render contains the export job configuration handed to the host.
type Render struct {
	ExportsDirName  string            `toml:"exports_dir_name"`
	Mode            string            `toml:"mode"`
	Format          string            `toml:"format"`
	Codec           string            `toml:"codec"`
	NameTemplate    string            `toml:"name_template"`
	SelectAllFrames bool              `toml:"select_all_frames"`
	ExportVideo     bool              `toml:"export_video"`
	ExportAudio     bool              `toml:"export_audio"`
	Width           int               `toml:"width"`
	Height          int               `toml:"height"`
	FrameRate       float64           `toml:"frame_rate"`
	VideoQuality    int               `toml:"video_quality"`
	AudioCodec      string            `toml:"audio_codec"`
	ColorSpaceTag   string            `toml:"color_space_tag"`
	GammaTag        string            `toml:"gamma_tag"`
	ProjectSettings map[string]string `toml:"project_settings"`
}

// Monitor contains render polling configuration.
type Monitor struct {
	PollIntervalMillis int `toml:"poll_interval_ms"`
	MaxWaitSeconds     int `toml:"max_wait_seconds"` // 0 waits indefinitely
}

// History contains configuration for the run ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Default: <state_dir>/history.db
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format  string `toml:"format"`
	Level   string `toml:"level"`
	Console bool   `toml:"console"`
}

// Config encapsulates all configuration values for dailies.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - Host: bridge endpoint and credentials for the editing host
//   - Folders: dated folder tree naming
//   - Grade: LUT applied to the graded video track
//   - Render: export format, codec and settings record
//   - Monitor: render polling interval and timeout
//   - History: SQLite run ledger
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and console mirroring
type Config struct {
	Paths         Paths         `toml:"paths"`
	Host          Host          `toml:"host"`
	Folders       Folders       `toml:"folders"`
	Grade         Grade         `toml:"grade"`
	Render        Render        `toml:"render"`
	Monitor       Monitor       `toml:"monitor"`
	History       History       `toml:"history"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dailies/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file next to the config (or in the
// working directory) is loaded first so its values act as environment fallbacks.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dailies.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// loadDotEnv reads optional .env files. Variables already present in the
// environment are never overwritten.
func loadDotEnv(configDir string) error {
	candidates := []string{".env"}
	if configDir != "" && configDir != "." {
		candidates = append(candidates, filepath.Join(configDir, ".env"))
	}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(candidate); err != nil {
			return fmt.Errorf("load %s: %w", candidate, err)
		}
	}
	return nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.History.Enabled && c.History.Path != "" {
		if err := os.MkdirAll(filepath.Dir(c.History.Path), 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}
	return nil
}

// LogPath returns the file that receives structured run logs.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "dailies.log")
}

// LockPath returns the single-run lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "dailies.lock")
}

// HostTimeout returns the per-request bridge timeout.
func (c *Config) HostTimeout() time.Duration {
	return time.Duration(c.Host.RequestTimeout) * time.Second
}

// PollInterval returns the render status polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Monitor.PollIntervalMillis) * time.Millisecond
}

// MaxWait returns the render wait limit; zero means unbounded.
func (c *Config) MaxWait() time.Duration {
	return time.Duration(c.Monitor.MaxWaitSeconds) * time.Second
}

// TimelineName derives the timeline name for a dated folder.
func (c *Config) TimelineName(folder string) string {
	return c.Folders.TimelineName(folder)
}

// TimelineName appends the configured suffix to a dated folder name.
func (f Folders) TimelineName(folder string) string {
	return folder + f.TimelineSuffix
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
