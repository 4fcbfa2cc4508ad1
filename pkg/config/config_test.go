package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.Report.BatchSize != 50 {
		t.Fatalf("batch size = %d, want 50", c.Report.BatchSize)
	}
	if c.Ingest.BatchSize != 1000 {
		t.Fatalf("ingest batch = %d, want 1000", c.Ingest.BatchSize)
	}
	if c.Report.DefaultTimezone != "America/Chicago" {
		t.Fatalf("default tz = %q", c.Report.DefaultTimezone)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte("storage:\n  type: memory\nreport:\n  workers: 3\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Storage.Type != "memory" || c.Report.Workers != 3 {
		t.Fatalf("unexpected config: storage=%s workers=%d", c.Storage.Type, c.Report.Workers)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("port default lost: %d", c.Server.Port)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"storage":  "storage:\n  type: sqlite\n",
		"dispatch": "report:\n  dispatch: redis\n",
		"tz":       "report:\n  default_timezone: Mars/Olympus\n",
		"kafka":    "kafka:\n  events:\n    enabled: true\n",
		"now":      "report:\n  now_source: sundial\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadWithEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  type: clickhouse\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STORAGE_TYPE", "memory")
	t.Setenv("REDIS_ADDR", "cache.local:6380")
	t.Setenv("REPORTS_DIR", "/tmp/out")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Storage.Type != "memory" {
		t.Fatalf("storage = %s", c.Storage.Type)
	}
	if c.RedisAddr() != "cache.local:6380" {
		t.Fatalf("redis addr = %s", c.RedisAddr())
	}
	if c.Report.OutputDir != "/tmp/out" {
		t.Fatalf("output dir = %s", c.Report.OutputDir)
	}
}

func TestLoadWithEnvMissingFile(t *testing.T) {
	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Environment != "development" {
		t.Fatalf("environment = %s", c.Environment)
	}
}
