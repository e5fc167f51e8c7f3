package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zapcore"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formstate.yaml")
	data := `
log:
  level: debug
catalog:
  dirs: [forms, more]
remote:
  endpoint: https://forms.example.com
  headers:
    Authorization: Bearer token
edit:
  output: pretty
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := DefaultConfig()
	want.Log.Level = "debug"
	want.Catalog.Dirs = []string{"forms", "more"}
	want.Remote.Endpoint = "https://forms.example.com"
	want.Remote.Headers = map[string]string{"Authorization": "Bearer token"}
	want.Edit.Output = "pretty"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	level, err := cfg.LogLevel()
	if err != nil || level != zapcore.DebugLevel {
		t.Fatalf("expected debug level, got %v %v", level, err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FORMSTATE_ADDR", ":9999")
	t.Setenv("FORMSTATE_LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9999" || cfg.Log.Level != "warn" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]string{
		"log level": "log:\n  level: loud\n",
		"encoding":  "log:\n  encoding: xml\n",
		"output":    "edit:\n  output: yaml\n",
		"timeout":   "remote:\n  timeout: soon\n",
		"syntax":    "log: [",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "formstate.yaml")
			if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, err := Load(path)
			if err == nil || !strings.HasPrefix(err.Error(), "config:") {
				t.Fatalf("expected config error, got %v", err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formstate.yaml")
	cfg := DefaultConfig()
	cfg.Remote.Timeout = "3s"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.RemoteTimeout() != 3*time.Second {
		t.Fatalf("expected 3s, got %s", loaded.RemoteTimeout())
	}
	if loaded.ShutdownTimeout() != 10*time.Second {
		t.Fatalf("expected default shutdown timeout, got %s", loaded.ShutdownTimeout())
	}
	if loaded.Server.BodyLimit != "1M" {
		t.Fatalf("expected default body limit 1M, got %q", loaded.Server.BodyLimit)
	}
}
