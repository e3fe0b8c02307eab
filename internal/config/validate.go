package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus everything wrong or
// suspicious about it. Errors block a save; warnings are advice for the UI.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.Mailbox.Host = strings.TrimSpace(out.Mailbox.Host)
	out.Mailbox.Username = strings.TrimSpace(out.Mailbox.Username)
	out.Mailbox.Folder = strings.TrimSpace(out.Mailbox.Folder)
	out.RulesFile = strings.TrimSpace(out.RulesFile)
	out.fillZero()

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	// polling sanity
	if out.Scan.IntervalMinutes <= 0 {
		res.addErr("scan.interval_minutes must be > 0")
	}
	if out.Scan.WindowDays <= 0 {
		res.addErr("scan.window_days must be > 0")
	}
	if out.Scan.MaxMessages <= 0 {
		res.addErr("scan.max_messages must be > 0")
	} else if out.Scan.MaxMessages > 1000 {
		res.addWarn("scan.max_messages is very high (%d); cycles may take a long time.", out.Scan.MaxMessages)
	}

	// mailbox required fields if enabled (password not required here; it
	// falls back to the keychain)
	if cfg.Mailbox.Enabled {
		if out.Mailbox.Host == "" {
			res.addErr("mailbox.host is required when mailbox.enabled=true")
		}
		if cfg.Mailbox.Port <= 0 || cfg.Mailbox.Port > 65535 {
			res.addErr("mailbox.port must be 1..65535 when mailbox.enabled=true")
		}
		if out.Mailbox.Username == "" {
			res.addErr("mailbox.username is required when mailbox.enabled=true")
		}
		if !cfg.Mailbox.TLS {
			res.addWarn("mailbox.tls is off; credentials travel in the clear.")
		}
	}

	return out, res
}
