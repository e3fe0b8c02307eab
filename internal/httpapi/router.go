package httpapi

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// NewMux wires the scanner-facing API. Record CRUD lives in the desktop app;
// the engine only exposes scan control and the stored-message view.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Scan control
	sh := ScanHandler{
		Scanner: d.Scanner,
		Trigger: rate.NewLimiter(rate.Every(10*time.Second), 2),
	}
	mux.HandleFunc("/scan/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sh.Status,
	}))
	mux.HandleFunc("/scan/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.Run,
	}))

	// Stored messages
	eh := EmailsHandler{Store: d.Store, Scanner: d.Scanner}
	mux.HandleFunc("/emails", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.List,
	}))
	mux.HandleFunc("/emails/reprocess/", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: eh.ReprocessByPath,
	}))

	// Config
	ch := ConfigHandler{CfgVal: d.CfgVal, UserCfgPath: d.UserCfgPath}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sec := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   sec.SetIMAPPassword,
		http.MethodDelete: sec.DeleteIMAPPassword,
	}))

	// SSE events
	ev := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ev.ServeSSE,
	}))

	return mux
}
