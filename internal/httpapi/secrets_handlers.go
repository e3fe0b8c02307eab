package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/Bartabas/job-tracker/internal/config"
	"github.com/Bartabas/job-tracker/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setIMAPPasswordReq struct {
	Password string `json:"password"`
}

// account names the keychain entry for the currently configured mailbox
// login; the keyring is keyed per user@host, so the config must name both
// before a password can be stored.
func (h SecretsHandler) account(w http.ResponseWriter) (string, bool) {
	cfg := h.CfgVal.Load().(config.Config)
	if strings.TrimSpace(cfg.Mailbox.Username) == "" || strings.TrimSpace(cfg.Mailbox.Host) == "" {
		http.Error(w, "mailbox username and host must be configured first", http.StatusBadRequest)
		return "", false
	}
	return secrets.IMAPKeyringAccount(cfg.Mailbox.Username, cfg.Mailbox.Host), true
}

func (h SecretsHandler) SetIMAPPassword(w http.ResponseWriter, r *http.Request) {
	var req setIMAPPasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	account, ok := h.account(w)
	if !ok {
		return
	}
	if err := secrets.SetIMAPPassword(account, req.Password); err != nil {
		http.Error(w, "failed to store password: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) DeleteIMAPPassword(w http.ResponseWriter, r *http.Request) {
	account, ok := h.account(w)
	if !ok {
		return
	}
	if err := secrets.DeleteIMAPPassword(account); err != nil {
		http.Error(w, "failed to delete password: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
