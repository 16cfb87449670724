package httpapi

import (
	"net"
	"net/http"
	"strings"

	"github.com/mlowdi/jobsearcher/internal/secrets"
)

// SecretsHandler stores API tokens in the keychain. Only loopback callers
// are accepted.
type SecretsHandler struct {
	// Accounts that may be set over HTTP, e.g. the JobTech key account.
	Allowed []string
}

type setSecretReq struct {
	Value string `json:"value"`
}

func (h SecretsHandler) Set(w http.ResponseWriter, r *http.Request) {
	if !fromLoopback(r) {
		WriteError(w, r, http.StatusForbidden, "forbidden", "secrets can only be set from this machine")
		return
	}

	account := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/secrets/"))
	if !h.allowed(account) {
		WriteError(w, r, http.StatusNotFound, "unknown_account", "unknown secret account")
		return
	}

	var req setSecretReq
	if err := readJSON(w, r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if err := secrets.Set(account, req.Value); err != nil {
		WriteError(w, r, http.StatusBadRequest, "store_failed", "failed to store secret: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) allowed(account string) bool {
	if account == "" {
		return false
	}
	for _, a := range h.Allowed {
		if a == account {
			return true
		}
	}
	return false
}

func fromLoopback(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
