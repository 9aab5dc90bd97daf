package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("first-run load: %v", err)
	}
	if cfg.AlarmTimeoutSeconds != 30 {
		t.Fatalf("unexpected default timeout: %d", cfg.AlarmTimeoutSeconds)
	}
	if cfg.RearmCron != "@midnight" {
		t.Fatalf("unexpected default rearm cron: %s", cfg.RearmCron)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("config perms should be 0600, got %v", info.Mode().Perm())
	}
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("db: /tmp/custom.db\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB != "/tmp/custom.db" {
		t.Fatalf("explicit db path lost: %s", cfg.DB)
	}
	if cfg.AlarmTimeoutSeconds != 30 || cfg.RearmCron == "" {
		t.Fatalf("defaults not filled in: %+v", cfg)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	in := DefaultConfig()
	in.Notify = false
	in.Sound = "/usr/share/sounds/bell.wav"
	in.AlarmTimeoutSeconds = 10

	if err := Save(path, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Notify != false || out.Sound != in.Sound || out.AlarmTimeoutSeconds != 10 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestLoadRejectsEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
