package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileDisablesScanning(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yml"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if cfg.Mailbox.Enabled {
		t.Error("defaults must leave the mailbox disabled")
	}
	if cfg.Mailbox.Port != 993 || !cfg.Mailbox.TLS {
		t.Errorf("unexpected mailbox defaults: port=%d tls=%v", cfg.Mailbox.Port, cfg.Mailbox.TLS)
	}
	if cfg.ScanInterval() != 5*time.Minute {
		t.Errorf("ScanInterval() = %v, want 5m", cfg.ScanInterval())
	}
	if cfg.ScanWindow() != 7*24*time.Hour {
		t.Errorf("ScanWindow() = %v, want 168h", cfg.ScanWindow())
	}
}

func TestLoadMalformedFileDisablesScanning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("mailbox: [not: a: struct"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if cfg.Mailbox.Enabled {
		t.Error("fallback config must leave the mailbox disabled")
	}
}

func TestLoadValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	doc := `
mailbox:
  enabled: true
  host: imap.example.com
  username: me@example.com
  password: hunter2
scan:
  interval_minutes: 10
  window_days: 3
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Mailbox.Enabled {
		t.Error("expected mailbox enabled")
	}
	if got := cfg.MailboxAddr(); got != "imap.example.com:993" {
		t.Errorf("MailboxAddr() = %q", got)
	}
	if cfg.ScanInterval() != 10*time.Minute {
		t.Errorf("ScanInterval() = %v", cfg.ScanInterval())
	}
	if cfg.ScanWindow() != 3*24*time.Hour {
		t.Errorf("ScanWindow() = %v", cfg.ScanWindow())
	}
	if cfg.Scan.MaxMessages != 200 {
		t.Errorf("MaxMessages default not applied: %d", cfg.Scan.MaxMessages)
	}
}

func TestEnabledRequiresCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	doc := `
mailbox:
  enabled: true
  host: ""
  username: ""
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mailbox.Enabled {
		t.Error("enabled without host/username must be treated as disabled")
	}
}

func TestEnsureUserConfigSeedsOnce(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "default.yml")
	if err := os.WriteFile(seed, []byte("rules_file: rules.yml\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	dataDir := filepath.Join(dir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}

	p1, err := EnsureUserConfig(dataDir, seed)
	if err != nil {
		t.Fatalf("EnsureUserConfig: %v", err)
	}
	b, err := os.ReadFile(p1)
	if err != nil {
		t.Fatalf("seeded config unreadable: %v", err)
	}
	if string(b) != "rules_file: rules.yml\n" {
		t.Errorf("seeded content = %q", b)
	}

	// second call must not overwrite
	if err := os.WriteFile(p1, []byte("rules_file: mine.yml\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p2, err := EnsureUserConfig(dataDir, seed)
	if err != nil {
		t.Fatalf("EnsureUserConfig (second): %v", err)
	}
	if p2 != p1 {
		t.Fatalf("path changed: %q vs %q", p2, p1)
	}
	b, _ = os.ReadFile(p2)
	if string(b) != "rules_file: mine.yml\n" {
		t.Error("existing user config was overwritten")
	}
}
