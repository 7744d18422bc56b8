package testsupport

import (
	"path/filepath"
	"testing"

	"dailies/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")
	cfgVal.Host.BridgeURL = "http://127.0.0.1:7788"
	cfgVal.Grade.LUT = config.DefaultLUT
	cfgVal.Monitor.PollIntervalMillis = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBridgeURL points the host bridge at the provided address.
func WithBridgeURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Host.BridgeURL = url
	}
}

// WithHostToken sets the bearer token used against the bridge.
func WithHostToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Host.APIToken = token
	}
}

// WithNtfyTopic enables ntfy notifications against the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithHistoryDisabled turns off the run ledger.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}
