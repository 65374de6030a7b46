// Package config loads the pastemagic configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all pastemagic configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Lookup   LookupConfig   `yaml:"lookup"`
	Keystore KeystoreConfig `yaml:"keystore"`
	Output   OutputConfig   `yaml:"output"`
	Time     TimeConfig     `yaml:"time"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty logs to stderr
}

// LookupConfig configures the IP info and DNS lookups.
type LookupConfig struct {
	IPEndpoint  string `yaml:"ip_endpoint"`
	DNSProtocol string `yaml:"dns_protocol"` // doh, udp
	DoHURL      string `yaml:"doh_url"`
	DNSServer   string `yaml:"dns_server"`
	Timeout     string `yaml:"timeout"`
}

// KeystoreConfig configures where key configurations are kept.
type KeystoreConfig struct {
	Backend    string `yaml:"backend"` // file, sqlite, memory
	Path       string `yaml:"path"`
	Passphrase string `yaml:"passphrase,omitempty"`
}

// OutputConfig configures report rendering.
type OutputConfig struct {
	Format string `yaml:"format"` // text, json, yaml, xml
	Color  bool   `yaml:"color"`
}

// TimeConfig configures the cron and time tools.
type TimeConfig struct {
	Location string `yaml:"location"` // IANA name, empty for local
	CronRuns int    `yaml:"cron_runs"`
}

// Values accepted by Validate.
var (
	ValidDNSProtocols  = []string{"doh", "udp"}
	ValidBackends      = []string{"file", "sqlite", "memory"}
	ValidOutputFormats = []string{"text", "json", "yaml", "xml"}
	ValidLogLevels     = []string{"debug", "info", "warn", "error"}
)

// Lookup defaults.
const (
	DefaultIPEndpoint    = "https://free.freeipapi.com/api/json"
	DefaultDoHURL        = "https://cloudflare-dns.com/dns-query"
	DefaultDNSServer     = "1.1.1.1:53"
	DefaultLookupTimeout = 10 * time.Second
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		Log: LogConfig{
			Level: "warn",
		},
		Lookup: LookupConfig{
			IPEndpoint:  DefaultIPEndpoint,
			DNSProtocol: "doh",
			DoHURL:      DefaultDoHURL,
			DNSServer:   DefaultDNSServer,
			Timeout:     DefaultLookupTimeout.String(),
		},
		Keystore: KeystoreConfig{
			Backend: "file",
			Path:    filepath.Join(dir, "keys.yaml"),
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Time: TimeConfig{
			CronRuns: 5,
		},
	}
}

// Dir returns the pastemagic configuration directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pastemagic")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "pastemagic")
	}
	return ".pastemagic"
}

// DefaultPath returns the configuration file used when --config is not set.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies PASTEMAGIC_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PASTEMAGIC_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("PASTEMAGIC_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("PASTEMAGIC_IP_ENDPOINT"); v != "" {
		c.Lookup.IPEndpoint = v
	}
	if v := os.Getenv("PASTEMAGIC_DNS_PROTOCOL"); v != "" {
		c.Lookup.DNSProtocol = strings.ToLower(v)
	}
	if v := os.Getenv("PASTEMAGIC_DOH_URL"); v != "" {
		c.Lookup.DoHURL = v
	}
	if v := os.Getenv("PASTEMAGIC_DNS_SERVER"); v != "" {
		c.Lookup.DNSServer = v
	}
	if v := os.Getenv("PASTEMAGIC_KEYSTORE_BACKEND"); v != "" {
		c.Keystore.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("PASTEMAGIC_KEYSTORE_PATH"); v != "" {
		c.Keystore.Path = v
	}
	if v := os.Getenv("PASTEMAGIC_PASSPHRASE"); v != "" {
		c.Keystore.Passphrase = v
	}
	if v := os.Getenv("PASTEMAGIC_OUTPUT"); v != "" {
		c.Output.Format = strings.ToLower(v)
	}
	if v := os.Getenv("PASTEMAGIC_TZ"); v != "" {
		c.Time.Location = v
	}
	if os.Getenv("NO_COLOR") != "" {
		c.Output.Color = false
	}
}

// Validate checks enumerated settings and durations.
func (c *Config) Validate() error {
	if !contains(ValidLogLevels, c.Log.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Log.Level, ValidLogLevels)
	}
	if !contains(ValidDNSProtocols, c.Lookup.DNSProtocol) {
		return fmt.Errorf("invalid dns protocol: %s (valid: %v)", c.Lookup.DNSProtocol, ValidDNSProtocols)
	}
	if !contains(ValidBackends, c.Keystore.Backend) {
		return fmt.Errorf("invalid keystore backend: %s (valid: %v)", c.Keystore.Backend, ValidBackends)
	}
	if !contains(ValidOutputFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (valid: %v)", c.Output.Format, ValidOutputFormats)
	}
	if _, err := c.LookupTimeout(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// LookupTimeout parses the lookup timeout.
func (c *Config) LookupTimeout() (time.Duration, error) {
	if c.Lookup.Timeout == "" {
		return DefaultLookupTimeout, nil
	}
	d, err := time.ParseDuration(c.Lookup.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid lookup timeout %q: %w", c.Lookup.Timeout, err)
	}
	return d, nil
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Time.Location == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Time.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid time location %q: %w", c.Time.Location, err)
	}
	return loc, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
