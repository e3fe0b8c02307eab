package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/Bartabas/job-tracker/internal/config"
)

func putJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestConfigGet(t *testing.T) {
	srv, _, _ := newTestServerWithConfig(t)

	var cfg config.Config
	resp := getJSON(t, srv.URL+"/config", &cfg)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if cfg.Mailbox.Port != 993 {
		t.Errorf("Mailbox.Port = %d, want default 993", cfg.Mailbox.Port)
	}
}

func TestConfigPutSwapsRunningConfig(t *testing.T) {
	srv, _, cfgVal := newTestServerWithConfig(t)

	next := config.Default()
	next.Mailbox.Enabled = true
	next.Mailbox.Host = "imap.example.com"
	next.Mailbox.Username = "me@example.com"
	next.Scan.IntervalMinutes = 15

	resp := putJSON(t, srv.URL+"/config", next)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	// the running engine sees the new value; the scanner reads it next tick
	cur := cfgVal.Load().(config.Config)
	if !cur.Mailbox.Enabled || cur.Mailbox.Host != "imap.example.com" {
		t.Errorf("running config not swapped: %+v", cur.Mailbox)
	}
	if cur.Scan.IntervalMinutes != 15 {
		t.Errorf("IntervalMinutes = %d, want 15", cur.Scan.IntervalMinutes)
	}
}

func TestConfigPutRejectsInvalid(t *testing.T) {
	srv, _, cfgVal := newTestServerWithConfig(t)

	next := config.Default()
	next.Mailbox.Enabled = true // no host/username

	resp := putJSON(t, srv.URL+"/config", next)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var vr config.Validation
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		t.Fatal(err)
	}
	if len(vr.Errors) == 0 {
		t.Error("expected structured validation errors")
	}

	// rejected saves must not touch the running config
	if cfgVal.Load().(config.Config).Mailbox.Enabled {
		t.Error("running config changed on a rejected save")
	}
}

func TestConfigPutRejectsBadJSON(t *testing.T) {
	srv, _, _ := newTestServerWithConfig(t)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/config", bytes.NewReader([]byte(`{"Nope":1}`)))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestConfigPath(t *testing.T) {
	srv, _, _ := newTestServerWithConfig(t)

	var body map[string]string
	resp := getJSON(t, srv.URL+"/config/path", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["path"] == "" {
		t.Error("missing config path")
	}
}

func TestSecretsSetAndDelete(t *testing.T) {
	keyring.MockInit()
	srv, _, cfgVal := newTestServerWithConfig(t)

	cfg := cfgVal.Load().(config.Config)
	cfg.Mailbox.Host = "imap.example.com"
	cfg.Mailbox.Username = "me@example.com"
	cfgVal.Store(cfg)

	resp, err := http.Post(srv.URL+"/api/secrets/imap", "application/json",
		bytes.NewReader([]byte(`{"password":"hunter2"}`)))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("set: status = %d, want 204", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/secrets/imap", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status = %d, want 204", resp.StatusCode)
	}
}

func TestSecretsRequireConfiguredAccount(t *testing.T) {
	keyring.MockInit()
	srv, _, _ := newTestServerWithConfig(t) // default config: no username/host

	resp, err := http.Post(srv.URL+"/api/secrets/imap", "application/json",
		bytes.NewReader([]byte(`{"password":"hunter2"}`)))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
