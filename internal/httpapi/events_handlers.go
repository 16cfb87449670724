package httpapi

import (
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mlowdi/jobsearcher/internal/events"
)

// keepAlive is how often an idle stream gets a comment line so proxies do
// not drop it.
const keepAlive = 25 * time.Second

type EventsHandler struct {
	Deps
}

// ServeSSE streams run and profile events. The first event is a ping that
// carries the runner status, so a client knows whether a run is underway.
func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(ch)

	reqID := RequestIDFrom(r.Context())
	var status any
	if h.Runner != nil {
		status = h.Runner.Status()
	}
	hello, err := events.New(reqID, events.TypePing, status, h.now())
	if err != nil {
		h.logger().Warn("sse hello", zap.Error(err))
		hello = events.Event{Type: events.TypePing, Version: 1, At: h.now().UTC(), RequestID: reqID}
	}
	_, _ = io.WriteString(w, hello.Frame())
	flusher.Flush()

	tick := time.NewTicker(keepAlive)
	defer tick.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			_, _ = io.WriteString(w, ": keep-alive\n\n")
			flusher.Flush()
		case e, ok := <-ch:
			if !ok {
				return
			}
			_, _ = io.WriteString(w, e.Frame())
			flusher.Flush()
		}
	}
}
