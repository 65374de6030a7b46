package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	cfg := DefaultConfig()
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, DefaultIPEndpoint, cfg.Lookup.IPEndpoint)
	assert.Equal(t, "doh", cfg.Lookup.DNSProtocol)
	assert.Equal(t, "file", cfg.Keystore.Backend)
	assert.Equal(t, filepath.Join("/tmp/xdg", "pastemagic", "keys.yaml"), cfg.Keystore.Path)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 5, cfg.Time.CronRuns)
	require.NoError(t, cfg.Validate())
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/pastemagic/config.yaml", DefaultPath())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log:
  level: debug
lookup:
  dns_protocol: udp
  dns_server: 9.9.9.9:53
  timeout: 3s
keystore:
  backend: sqlite
  path: /var/lib/pastemagic/keys.db
output:
  format: json
time:
  location: UTC
  cron_runs: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "udp", cfg.Lookup.DNSProtocol)
	assert.Equal(t, "9.9.9.9:53", cfg.Lookup.DNSServer)
	assert.Equal(t, DefaultIPEndpoint, cfg.Lookup.IPEndpoint, "unset keys keep defaults")
	assert.Equal(t, "sqlite", cfg.Keystore.Backend)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 10, cfg.Time.CronRuns)

	timeout, err := cfg.LookupTimeout()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, timeout)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"log level", "log:\n  level: loud\n", "invalid log level"},
		{"protocol", "lookup:\n  dns_protocol: tcp\n", "invalid dns protocol"},
		{"backend", "keystore:\n  backend: redis\n", "invalid keystore backend"},
		{"output", "output:\n  format: toml\n", "invalid output format"},
		{"timeout", "lookup:\n  timeout: soon\n", "invalid lookup timeout"},
		{"location", "time:\n  location: Mars/Olympus\n", "invalid time location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Run("overrides every setting", func(t *testing.T) {
		t.Setenv("PASTEMAGIC_LOG_LEVEL", "DEBUG")
		t.Setenv("PASTEMAGIC_LOG_FILE", "/tmp/pm.log")
		t.Setenv("PASTEMAGIC_IP_ENDPOINT", "http://127.0.0.1:8080")
		t.Setenv("PASTEMAGIC_DNS_PROTOCOL", "UDP")
		t.Setenv("PASTEMAGIC_DOH_URL", "https://dns.google/dns-query")
		t.Setenv("PASTEMAGIC_DNS_SERVER", "8.8.8.8:53")
		t.Setenv("PASTEMAGIC_KEYSTORE_BACKEND", "memory")
		t.Setenv("PASTEMAGIC_KEYSTORE_PATH", "/tmp/keys")
		t.Setenv("PASTEMAGIC_PASSPHRASE", "hunter2")
		t.Setenv("PASTEMAGIC_OUTPUT", "yaml")
		t.Setenv("PASTEMAGIC_TZ", "Asia/Shanghai")
		t.Setenv("NO_COLOR", "1")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "/tmp/pm.log", cfg.Log.File)
		assert.Equal(t, "http://127.0.0.1:8080", cfg.Lookup.IPEndpoint)
		assert.Equal(t, "udp", cfg.Lookup.DNSProtocol)
		assert.Equal(t, "https://dns.google/dns-query", cfg.Lookup.DoHURL)
		assert.Equal(t, "8.8.8.8:53", cfg.Lookup.DNSServer)
		assert.Equal(t, "memory", cfg.Keystore.Backend)
		assert.Equal(t, "/tmp/keys", cfg.Keystore.Path)
		assert.Equal(t, "hunter2", cfg.Keystore.Passphrase)
		assert.Equal(t, "yaml", cfg.Output.Format)
		assert.Equal(t, "Asia/Shanghai", cfg.Time.Location)
		assert.False(t, cfg.Output.Color)
	})

	t.Run("empty variables change nothing", func(t *testing.T) {
		t.Setenv("PASTEMAGIC_LOG_LEVEL", "")
		t.Setenv("PASTEMAGIC_OUTPUT", "")
		t.Setenv("NO_COLOR", "")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "warn", cfg.Log.Level)
		assert.Equal(t, "text", cfg.Output.Format)
		assert.True(t, cfg.Output.Color)
	})
}

func TestSave_RoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Output.Format = "xml"
	cfg.Time.Location = "UTC"
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("Save/Load mismatch (-want +got):\n%s", diff)
	}
}
