package httpapi

import (
	"net/http"
)

type HealthHandler struct {
	Deps
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbOK := h.DB != nil && h.DB.Pool.PingContext(r.Context()) == nil

	status := http.StatusOK
	if !dbOK {
		status = http.StatusServiceUnavailable
	}
	body := map[string]any{
		"ok":      dbOK,
		"running": h.Runner != nil && h.Runner.Status().Running,
	}
	if h.Hub != nil {
		body["subscribers"] = h.Hub.Clients()
	}
	WriteJSON(w, status, body)
}
