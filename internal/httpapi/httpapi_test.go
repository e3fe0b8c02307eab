package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/Bartabas/job-tracker/internal/config"
	"github.com/Bartabas/job-tracker/internal/events"
	"github.com/Bartabas/job-tracker/internal/rules"
	"github.com/Bartabas/job-tracker/internal/scanner"
	"github.com/Bartabas/job-tracker/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	srv, st, _ := newTestServerWithConfig(t)
	return srv, st
}

func newTestServerWithConfig(t *testing.T) (*httptest.Server, *store.Store, *atomic.Value) {
	t.Helper()

	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Migrate(); err != nil {
		t.Fatal(err)
	}

	var cfgVal atomic.Value
	cfgVal.Store(config.Default()) // mailbox disabled

	hub := events.NewHub()
	sc := scanner.New(&cfgVal, rules.Defaults(), st, hub)

	mux := NewMux(Deps{
		Store:       st,
		Hub:         hub,
		CfgVal:      &cfgVal,
		Scanner:     sc,
		UserCfgPath: filepath.Join(dir, "config.yml"),
	})
	srv := httptest.NewServer(Chain(mux, RequestID, Recover))
	t.Cleanup(srv.Close)
	return srv, st, &cfgVal
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]any
	resp := getJSON(t, srv.URL+"/health", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["ok"] != true {
		t.Errorf("body = %v", body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/health", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestScanStatusIdle(t *testing.T) {
	srv, _ := newTestServer(t)

	var st scanner.Status
	resp := getJSON(t, srv.URL+"/scan/status", &st)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if st.Running {
		t.Error("fresh scanner should not be running")
	}
}

func TestScanRunAccepted(t *testing.T) {
	srv, _ := newTestServer(t)

	// mailbox is disabled, so the spawned cycle is a no-op; the trigger
	// itself must still be accepted
	resp, err := http.Post(srv.URL+"/scan/run", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["ok"] != true {
		t.Errorf("body = %v", body)
	}
}

func TestEmailsListEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := getJSON(t, srv.URL+"/emails", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestEmailsBadLimit(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := getJSON(t, srv.URL+"/emails?limit=abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestReprocessBadID(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/emails/reprocess/0", "/emails/reprocess/abc"} {
		resp, err := http.Post(srv.URL+path, "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, resp.StatusCode)
		}
	}
}

func TestReprocessUnknownID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/emails/reprocess/9999", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	var e APIError
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatal(err)
	}
	if e.Error.Code != "reprocess_failed" {
		t.Errorf("code = %q", e.Error.Code)
	}
}
