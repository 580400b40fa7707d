// Package config loads the proxy's own runtime configuration: listen
// address/port, the optional Basic-auth credential gating proxy
// authentication, timeouts, and logging settings. It has no bearing on the
// per-request state machine in package proxy; it only parameterizes the
// Server Binding's extension points at startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the proxy's own runtime configuration.
type Config struct {
	BindAddr string `yaml:"-"`
	Port     int    `yaml:"-"`

	// AuthUsername/AuthPassword gate proxy authentication. When either is
	// empty, no authenticate hook is installed and every request is
	// allowed through.
	AuthUsername string `yaml:"-"`
	AuthPassword string `yaml:"-"`

	ReadHeaderTimeout time.Duration `yaml:"-"`
	IdleConnTimeout   time.Duration `yaml:"-"`

	LogLevel  string `yaml:"-"`
	LogFormat string `yaml:"-"` // "text" or "json"
}

// yamlConfig mirrors Config for file parsing, with durations as
// time.ParseDuration-compatible strings ("60s") rather than bare integers —
// yaml.v3 has no special handling for time.Duration's underlying int64 kind.
type yamlConfig struct {
	BindAddr          string `yaml:"bind_addr"`
	Port              int    `yaml:"port"`
	AuthUsername      string `yaml:"auth_username"`
	AuthPassword      string `yaml:"auth_password"`
	ReadHeaderTimeout string `yaml:"read_header_timeout"`
	IdleConnTimeout   string `yaml:"idle_conn_timeout"`
	LogLevel          string `yaml:"log_level"`
	LogFormat         string `yaml:"log_format"`
}

// UnmarshalYAML decodes via yamlConfig and parses its duration strings,
// leaving any field absent from the document untouched on cfg so Load's
// DefaultConfig base survives partial files.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var y yamlConfig
	if err := value.Decode(&y); err != nil {
		return err
	}
	if y.BindAddr != "" {
		c.BindAddr = y.BindAddr
	}
	if y.Port != 0 {
		c.Port = y.Port
	}
	if y.AuthUsername != "" {
		c.AuthUsername = y.AuthUsername
	}
	if y.AuthPassword != "" {
		c.AuthPassword = y.AuthPassword
	}
	if y.LogLevel != "" {
		c.LogLevel = y.LogLevel
	}
	if y.LogFormat != "" {
		c.LogFormat = y.LogFormat
	}
	if y.ReadHeaderTimeout != "" {
		d, err := time.ParseDuration(y.ReadHeaderTimeout)
		if err != nil {
			return fmt.Errorf("parsing read_header_timeout: %w", err)
		}
		c.ReadHeaderTimeout = d
	}
	if y.IdleConnTimeout != "" {
		d, err := time.ParseDuration(y.IdleConnTimeout)
		if err != nil {
			return fmt.Errorf("parsing idle_conn_timeout: %w", err)
		}
		c.IdleConnTimeout = d
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is present and
// no environment overrides are set.
func DefaultConfig() *Config {
	return &Config{
		BindAddr:          "127.0.0.1",
		Port:              8080,
		ReadHeaderTimeout: 60 * time.Second,
		IdleConnTimeout:   90 * time.Second,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load reads dir/fwdproxy.yaml if present, then applies FWDPROXY_*
// environment variable overrides (env always wins). A missing file is not
// an error; an invalid value, whether from the file or the environment, is.
func Load(dir string) (*Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(dir, "fwdproxy.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing fwdproxy.yaml: %w", err)
		}
	case os.IsNotExist(err):
		// No file: proceed with defaults plus environment overrides.
	default:
		return nil, fmt.Errorf("reading fwdproxy.yaml: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d: must be between 0 and 65535", cfg.Port)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log_format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if (cfg.AuthUsername == "") != (cfg.AuthPassword == "") {
		return nil, fmt.Errorf("auth_username and auth_password must be set together")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("FWDPROXY_BIND_ADDR"); v != "" {
		cfg.BindAddr = v
	}
	if v := os.Getenv("FWDPROXY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing FWDPROXY_PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("FWDPROXY_AUTH_USERNAME"); v != "" {
		cfg.AuthUsername = v
	}
	if v := os.Getenv("FWDPROXY_AUTH_PASSWORD"); v != "" {
		cfg.AuthPassword = v
	}
	if v := os.Getenv("FWDPROXY_READ_HEADER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing FWDPROXY_READ_HEADER_TIMEOUT: %w", err)
		}
		cfg.ReadHeaderTimeout = d
	}
	if v := os.Getenv("FWDPROXY_IDLE_CONN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing FWDPROXY_IDLE_CONN_TIMEOUT: %w", err)
		}
		cfg.IdleConnTimeout = d
	}
	if v := os.Getenv("FWDPROXY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FWDPROXY_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	return nil
}
