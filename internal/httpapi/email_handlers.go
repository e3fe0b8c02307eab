package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Bartabas/job-tracker/internal/scanner"
	"github.com/Bartabas/job-tracker/internal/store"
)

type EmailsHandler struct {
	Store   *store.Store
	Scanner *scanner.Scanner
}

func (h EmailsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			WriteError(w, r, http.StatusBadRequest, "bad_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	msgs, err := h.Store.ListEmails(r.Context(), limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	writeJSON(w, msgs)
}

// ReprocessByPath re-runs classification and reconciliation for one stored
// message. Expects /emails/reprocess/{id}.
func (h EmailsHandler) ReprocessByPath(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/emails/reprocess/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, http.StatusBadRequest, "bad_id", "invalid message id")
		return
	}

	m, err := h.Scanner.Reprocess(r.Context(), id)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, "reprocess_failed", err.Error())
		return
	}
	writeJSON(w, m)
}
