package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kylerisse/check-graphite/pkg/check"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "check_graphite.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GraphiteURL != "http://localhost/" {
		t.Errorf("expected default URL, got %q", cfg.GraphiteURL)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", cfg.Timeout)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "text" {
		t.Errorf("unexpected log defaults %+v", cfg.Log)
	}
	if cfg.DNS.Server != "" {
		t.Errorf("expected no DNS server by default, got %q", cfg.DNS.Server)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
graphite_url: https://graphite.example.com/
timeout: 4s
skip_verify: true
dns:
  server: 10.0.0.53
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GraphiteURL != "https://graphite.example.com/" {
		t.Errorf("unexpected URL %q", cfg.GraphiteURL)
	}
	if cfg.Timeout != 4*time.Second {
		t.Errorf("expected timeout 4s, got %v", cfg.Timeout)
	}
	if !cfg.SkipVerify {
		t.Error("expected skip_verify true")
	}
	if cfg.DNS.Server != "10.0.0.53" || cfg.DNS.Timeout != 3*time.Second {
		t.Errorf("unexpected DNS config %+v", cfg.DNS)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "graphite_url: http://from-file/\n")
	t.Setenv("GRAPHITE_URL", "http://from-env/")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GraphiteURL != "http://from-env/" {
		t.Errorf("expected environment to win, got %q", cfg.GraphiteURL)
	}
}

func TestLoad_LeavesValidationToCaller(t *testing.T) {
	t.Setenv("CHECK_GRAPHITE_TIMEOUT", "0s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); !check.IsConfigError(err) {
		t.Errorf("expected config error for zero timeout, got %v", err)
	}

	cfg.Timeout = 5 * time.Second
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error after override: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !check.IsConfigError(err) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "timeout: [not, a, duration]\n")
	_, err := Load(path)
	if !check.IsConfigError(err) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := Config{GraphiteURL: "http://x/", Timeout: time.Second, Log: LogConfig{Format: "text"}}
	if err := base.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := base
	bad.Timeout = 0
	if err := bad.Validate(); !check.IsConfigError(err) {
		t.Errorf("expected error for zero timeout, got %v", err)
	}

	bad = base
	bad.Log.Format = "xml"
	if err := bad.Validate(); !check.IsConfigError(err) {
		t.Errorf("expected error for unknown log format, got %v", err)
	}

	bad = base
	bad.DNS.Server = "10.0.0.53"
	if err := bad.Validate(); !check.IsConfigError(err) {
		t.Errorf("expected error for DNS server without timeout, got %v", err)
	}
}
