package httpapi

import "net/http"

// NewMux wires every route. Wrap it with Handler for the middleware stack.
func NewMux(d Deps, secretAccounts []string) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{d}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Ads
	ah := AdsHandler{d}
	mux.HandleFunc("/ads", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ah.List,
	}))
	mux.HandleFunc("/ads/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ah.Get, // expects /ads/{id}
	}))

	// Runs
	rh := RunsHandler{d}
	mux.HandleFunc("/runs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  rh.List,
		http.MethodPost: rh.Start,
	}))
	mux.HandleFunc("/runs/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Status,
	}))

	// Profile
	ph := ProfileHandler{d}
	mux.HandleFunc("/profile", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.Get,
		http.MethodPut: ph.Put,
	}))
	mux.HandleFunc("/profile/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.Validate,
	}))
	mux.HandleFunc("/profile/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.Path,
	}))

	// SSE events
	if d.Hub != nil {
		eh := EventsHandler{d}
		mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: eh.ServeSSE,
		}))
	}

	// Secrets
	sh := SecretsHandler{Allowed: secretAccounts}
	mux.HandleFunc("/secrets/", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.Set,
	}))

	return mux
}

// Handler is NewMux behind the standard middleware stack.
func Handler(d Deps, secretAccounts []string) http.Handler {
	log := d.logger()
	return Chain(NewMux(d, secretAccounts),
		RequestID,
		Recover(log),
		AccessLog(log),
		Cors,
	)
}
