package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

func methodMux(m map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := m[r.Method]; ok {
			h(w, r)
			return
		}
		WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

// intParam reads a positive integer query parameter, clamped to max.
func intParam(r *http.Request, name string, def, max int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return min(n, max), true
}

// windowParam accepts Go durations ("168h") plus day shorthands ("7d").
func windowParam(r *http.Request, def time.Duration) (time.Duration, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("window"))
	if raw == "" {
		return def, true
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, false
		}
		return time.Duration(n) * 24 * time.Hour, true
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
