package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadConfig(t *testing.T) {
	p := writeConfig(t, `
server:
  address: 127.0.0.1
  port: 9090
logging:
  level: debug
store:
  history_cap: 50
  history_keep: 10
ingest:
  queue:
    capacity: 2048
provider:
  rps: 5
  burst: 10
  wait_attempts: 7
  wait_interval: 250ms
resync:
  enabled: true
  cron: "*/5 * * * *"
session:
  own_identity: 999@s.whatsapp.net
  provider_url: http://localhost:9999
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:9090" {
		t.Fatalf("Addr = %q", cfg.Addr())
	}
	if cfg.Store.HistoryCap != 50 || cfg.Store.HistoryKeep != 10 {
		t.Fatalf("store caps wrong: %+v", cfg.Store)
	}
	if cfg.Provider.WaitInterval.Duration() != 250*time.Millisecond {
		t.Fatalf("wait interval = %v", cfg.Provider.WaitInterval.Duration())
	}
	if !cfg.Resync.Enabled || cfg.Resync.Cron != "*/5 * * * *" {
		t.Fatalf("resync config wrong: %+v", cfg.Resync)
	}
	if cfg.Session.OwnIdentity != "999@s.whatsapp.net" {
		t.Fatalf("session config wrong: %+v", cfg.Session)
	}
}

func TestDurationNumericSeconds(t *testing.T) {
	p := writeConfig(t, "provider:\n  wait_interval: 2\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.WaitInterval.Duration() != 2*time.Second {
		t.Fatalf("numeric duration = %v, want 2s", cfg.Provider.WaitInterval.Duration())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHATSTORE_LOG_LEVEL", "warn")
	t.Setenv("CHATSTORE_HISTORY_CAP", "99")
	t.Setenv("CHATSTORE_OWN_IDENTITY", "42@s.whatsapp.net")
	var cfg Config
	if !ApplyEnvOverrides(&cfg) {
		t.Fatalf("env overrides not detected")
	}
	if cfg.Logging.Level != "warn" || cfg.Store.HistoryCap != 99 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Session.OwnIdentity != "42@s.whatsapp.net" {
		t.Fatalf("identity override not applied: %+v", cfg.Session)
	}
}

func TestLoadEffectiveMissingFile(t *testing.T) {
	t.Setenv("CHATSTORE_ADDR", "0.0.0.0:7777")
	cfg, envUsed, err := LoadEffective(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadEffective: %v", err)
	}
	if !envUsed || cfg.Addr() != "0.0.0.0:7777" {
		t.Fatalf("env fallback failed: envUsed=%v addr=%q", envUsed, cfg.Addr())
	}
}
