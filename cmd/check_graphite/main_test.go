package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newRenderServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/render" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestRun_Critical(t *testing.T) {
	srv := newRenderServer(t, `[{"target":"a.b","datapoints":[[1,1],[2,2],[3,3],[11,4],[12,5]]}]`)

	out, _, code := execute(t, "-U", srv.URL, "-t", "a.b", "--from", "-5min", "--threshold", "10", "-C", "1")
	if code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
	want := "CRITICAL: a.b out of bounds [threshold=10.000|maxcrit=1|datapoints=11,12]\n"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestRun_Warning(t *testing.T) {
	srv := newRenderServer(t, `[{"target":"a.b","datapoints":[[1,1],[2,2],[3,3],[11,4],[12,5]]}]`)

	out, _, code := execute(t, "--graphite-url", srv.URL, "--target", "a.b", "--from", "-5min",
		"--threshold", "10", "--max-crit", "3")
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.HasPrefix(out, "WARNING: a.b out of bounds") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRun_MissingTarget(t *testing.T) {
	out, _, code := execute(t, "-U", "http://127.0.0.1:1", "--from", "-5min", "--threshold", "1")
	if code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
	if !strings.HasPrefix(out, "UNKNOWN: missing option: --target\n") {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(out, "Usage:") {
		t.Error("expected usage text after a config error")
	}
}

func TestRun_OverAndUnder(t *testing.T) {
	out, _, code := execute(t, "-U", "http://127.0.0.1:1", "-t", "a", "--from", "-5min",
		"--threshold", "1", "--over", "--under")
	if code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
	if !strings.HasPrefix(out, "UNKNOWN: --over and --under are mutually exclusive") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRun_DirectionFlag(t *testing.T) {
	srv := newRenderServer(t, `[{"target":"a","datapoints":[[5,1],[0,2]]}]`)

	out, _, code := execute(t, "-U", srv.URL, "-t", "a", "--from", "-5min", "--threshold", "1", "--direction", "under")
	if code != 2 {
		t.Errorf("expected exit code 2, got %d (%q)", code, out)
	}
	if !strings.HasPrefix(out, "CRITICAL: a out of bounds [threshold=1.000|maxcrit=0|datapoints=0]") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	out, _, code := execute(t, "--no-such-flag")
	if code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
	if !strings.HasPrefix(out, "UNKNOWN: ") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRun_BackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	out, _, code := execute(t, "-U", srv.URL, "-t", "a", "--from", "-5min", "--threshold", "1")
	if code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if !strings.HasPrefix(out, "CRITICAL: no output from backend") {
		t.Errorf("unexpected output %q", out)
	}
	if strings.Contains(out, "Usage:") {
		t.Error("did not expect usage text after a fetch error")
	}
}

func TestRun_ConfigFile(t *testing.T) {
	srv := newRenderServer(t, `[{"target":"a","datapoints":[[1,1]]}]`)

	path := filepath.Join(t.TempDir(), "check_graphite.yml")
	content := "graphite_url: " + srv.URL + "\ntimeout: 2s\nlog:\n  level: error\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	out, _, code := execute(t, "--config", path, "-t", "a", "--from", "-5min", "--threshold", "5")
	if code != 0 {
		t.Errorf("expected exit code 0, got %d (%q)", code, out)
	}
	if !strings.HasPrefix(out, "OK: a OK") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRun_FlagOverridesInvalidEnvironment(t *testing.T) {
	srv := newRenderServer(t, `[{"target":"a","datapoints":[[1,1]]}]`)
	t.Setenv("CHECK_GRAPHITE_TIMEOUT", "0s")

	out, _, code := execute(t, "-U", srv.URL, "-t", "a", "--from", "-5min", "--threshold", "5", "--timeout", "5s")
	if code != 0 {
		t.Errorf("expected exit code 0, got %d (%q)", code, out)
	}
	if !strings.HasPrefix(out, "OK: a OK") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRun_InvalidEnvironmentWithoutOverride(t *testing.T) {
	t.Setenv("CHECK_GRAPHITE_TIMEOUT", "0s")

	out, _, code := execute(t, "-U", "http://127.0.0.1:1", "-t", "a", "--from", "-5min", "--threshold", "5")
	if code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
	if !strings.HasPrefix(out, "UNKNOWN: timeout must be positive") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRun_MissingConfigFile(t *testing.T) {
	out, _, code := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yml"),
		"-t", "a", "--from", "-5min", "--threshold", "5")
	if code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
	if !strings.HasPrefix(out, "UNKNOWN: config file not found") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRun_VerboseLogsToStderr(t *testing.T) {
	srv := newRenderServer(t, `[{"target":"a","datapoints":[[1,1]]}]`)

	out, logs, code := execute(t, "-U", srv.URL, "-t", "a", "--from", "-5min", "--threshold", "5", "-v")
	if code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
	if strings.Contains(out, "level=") {
		t.Errorf("diagnostics leaked into plugin output: %q", out)
	}
	if !strings.Contains(logs, "level=debug") {
		t.Errorf("expected debug diagnostics on stderr, got %q", logs)
	}
}
