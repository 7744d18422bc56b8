package main

import (
	"bytes"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dailies/internal/config"
	"dailies/internal/host/bridge"
	"dailies/internal/host/simhost"
	"dailies/internal/logging"
)

type cliTestEnv struct {
	sim        *simhost.Host
	server     *httptest.Server
	configPath string
	stateDir   string
	mediaDir   string
}

func setupCLITestEnv(t *testing.T, projects ...string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv(config.EnvHostURL, "")
	t.Setenv(config.EnvHostToken, "")
	t.Setenv(config.EnvNtfyTopic, "")

	sim := simhost.New(simhost.WithProjects(projects...), simhost.WithRenderPolls(1))
	server := httptest.NewServer(bridge.NewRouter(bridge.ServerConfig{
		Host:   sim,
		Logger: logging.NewNop(),
		Token:  "cli-token",
		Name:   "simhost",
	}))
	t.Cleanup(server.Close)

	mediaDir := filepath.Join(base, "card")
	for _, name := range []string{"A001.mov", "A002.mov"} {
		path := filepath.Join(mediaDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir media: %v", err)
		}
		if err := os.WriteFile(path, []byte("frames"), 0o644); err != nil {
			t.Fatalf("write media: %v", err)
		}
	}

	env := &cliTestEnv{
		sim:        sim,
		server:     server,
		configPath: filepath.Join(base, "dailies.toml"),
		stateDir:   filepath.Join(base, "state"),
		mediaDir:   mediaDir,
	}
	writeTestConfig(t, env.configPath, fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q

[host]
bridge_url = %q
api_token = "cli-token"

[grade]
lut = %q

[monitor]
poll_interval_ms = 1
`, env.stateDir, filepath.Join(base, "logs"), server.URL, config.DefaultLUT))
	return env
}

func writeTestConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath, input string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(input))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
