package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Mailbox struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		TLS      bool   `yaml:"tls"`
		Username string `yaml:"username"`
		// Password may be blank; the scanner then falls back to the OS
		// keychain entry for this account.
		Password string `yaml:"password"`
		Folder   string `yaml:"folder"`
	} `yaml:"mailbox"`

	Scan struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		WindowDays      int `yaml:"window_days"`
		MaxMessages     int `yaml:"max_messages"`
	} `yaml:"scan"`

	RulesFile string `yaml:"rules_file"`
}

// Default is the configuration used when no file is present: mailbox scanning
// stays disabled and polling never starts.
func Default() Config {
	var cfg Config
	cfg.App.Port = 38500
	cfg.App.DataDir = "."
	cfg.Mailbox.Enabled = false
	cfg.Mailbox.Port = 993
	cfg.Mailbox.TLS = true
	cfg.Mailbox.Folder = "INBOX"
	cfg.Scan.IntervalMinutes = 5
	cfg.Scan.WindowDays = 7
	cfg.Scan.MaxMessages = 200
	return cfg
}

// Load reads a yaml config file. A missing or malformed file is not fatal:
// the disabled defaults come back together with the error so the caller can
// log a warning and continue without polling.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Default(), err
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Default(), err
	}
	cfg.fillZero()
	return cfg, nil
}

// fillZero restores defaults for fields the file left unset or nonsensical.
func (c *Config) fillZero() {
	d := Default()
	if c.App.Port <= 0 {
		c.App.Port = d.App.Port
	}
	if c.App.DataDir == "" {
		c.App.DataDir = d.App.DataDir
	}
	if c.Mailbox.Port <= 0 {
		c.Mailbox.Port = d.Mailbox.Port
	}
	if c.Mailbox.Folder == "" {
		c.Mailbox.Folder = d.Mailbox.Folder
	}
	if c.Scan.IntervalMinutes <= 0 {
		c.Scan.IntervalMinutes = d.Scan.IntervalMinutes
	}
	if c.Scan.WindowDays <= 0 {
		c.Scan.WindowDays = d.Scan.WindowDays
	}
	if c.Scan.MaxMessages <= 0 {
		c.Scan.MaxMessages = d.Scan.MaxMessages
	}
	// scanning without credentials can only fail; treat as disabled
	if strings.TrimSpace(c.Mailbox.Host) == "" || strings.TrimSpace(c.Mailbox.Username) == "" {
		c.Mailbox.Enabled = false
	}
}

// MailboxAddr is the host:port dial address for the IMAP server.
func (c Config) MailboxAddr() string {
	if strings.Contains(c.Mailbox.Host, ":") {
		return c.Mailbox.Host
	}
	return fmt.Sprintf("%s:%d", c.Mailbox.Host, c.Mailbox.Port)
}

// ScanInterval is how often a scheduled scan cycle fires.
func (c Config) ScanInterval() time.Duration {
	return time.Duration(c.Scan.IntervalMinutes) * time.Minute
}

// ScanWindow is the trailing window of message dates a cycle considers.
func (c Config) ScanWindow() time.Duration {
	return time.Duration(c.Scan.WindowDays) * 24 * time.Hour
}
