package httpapi

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/Bartabas/job-tracker/internal/scanner"
)

type ScanHandler struct {
	Scanner *scanner.Scanner
	// Manual triggers are throttled; the scheduler has its own cadence.
	Trigger *rate.Limiter
}

func (h ScanHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Scanner.Status())
}

func (h ScanHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Scanner.Running() {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}
	if h.Trigger != nil && !h.Trigger.Allow() {
		WriteError(w, r, http.StatusTooManyRequests, "throttled", "scan trigger throttled, retry later")
		return
	}

	go func() {
		// Detached from the request: the cycle outlives the HTTP call.
		_, _ = h.Scanner.RunCycle(context.Background())
	}()

	writeJSON(w, map[string]any{"ok": true})
}
