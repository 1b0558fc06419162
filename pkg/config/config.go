// Package config loads the backend and logging settings of the plugin from
// an optional YAML file and the environment. Check-specific settings
// (targets, thresholds, modes) come from the command line only.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/kylerisse/check-graphite/pkg/check"
)

// Config holds the settings shared by every invocation against the same
// backend.
type Config struct {
	GraphiteURL string        `yaml:"graphite_url" env:"GRAPHITE_URL" env-default:"http://localhost/"`
	Timeout     time.Duration `yaml:"timeout" env:"CHECK_GRAPHITE_TIMEOUT" env-default:"10s"`
	SkipVerify  bool          `yaml:"skip_verify" env:"CHECK_GRAPHITE_SKIP_VERIFY" env-default:"false"`
	UserAgent   string        `yaml:"user_agent" env:"CHECK_GRAPHITE_USER_AGENT" env-default:"check_graphite"`
	DNS         DNSConfig     `yaml:"dns"`
	Log         LogConfig     `yaml:"log"`
}

// DNSConfig selects an explicit DNS server for resolving the backend.
// An empty Server uses the system resolver.
type DNSConfig struct {
	Server  string        `yaml:"server" env:"CHECK_GRAPHITE_DNS_SERVER"`
	Timeout time.Duration `yaml:"timeout" env:"CHECK_GRAPHITE_DNS_TIMEOUT" env-default:"3s"`
}

// LogConfig configures diagnostics written to stderr.
type LogConfig struct {
	Level  string `yaml:"level" env:"CHECK_GRAPHITE_LOG_LEVEL" env-default:"warn"`
	Format string `yaml:"format" env:"CHECK_GRAPHITE_LOG_FORMAT" env-default:"text"`
}

// Load reads the configuration. With an empty path only the environment
// and defaults are used; otherwise the YAML file at path is read first and
// the environment overrides it. Load does not validate the result so that
// callers can apply their own overrides before calling Validate. Every
// failure is a *check.ConfigError.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, &check.ConfigError{Msg: "failed to read environment", Err: err}
		}
		return &cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, check.Configf("config file not found: %s", path)
		}
		return nil, &check.ConfigError{Msg: fmt.Sprintf("config file %s", path), Err: err}
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, &check.ConfigError{Msg: fmt.Sprintf("failed to read config %s", path), Err: err}
	}
	return &cfg, nil
}

// Validate checks value ranges cleanenv cannot express.
func (c *Config) Validate() error {
	if c.GraphiteURL == "" {
		return check.Configf("graphite URL must not be empty")
	}
	if c.Timeout <= 0 {
		return check.Configf("timeout must be positive, got %v", c.Timeout)
	}
	if c.DNS.Server != "" && c.DNS.Timeout <= 0 {
		return check.Configf("dns timeout must be positive, got %v", c.DNS.Timeout)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return check.Configf("log format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
