package httpapi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mlowdi/jobsearcher/internal/domain"
	"github.com/mlowdi/jobsearcher/internal/pipeline"
)

type RunsHandler struct {
	Deps
}

func (h RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(r, "limit", 20, 500)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "bad_limit", "limit must be a positive integer")
		return
	}
	runs, err := h.DB.ListRuns(r.Context(), limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if runs == nil {
		runs = []domain.RunMetadata{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// Status reports the in-process runner state; when this process has not run
// anything yet, the newest stored run stands in as "last".
func (h RunsHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.Runner.Status()
	if st.Last == nil {
		if latest, err := h.DB.LatestRun(r.Context()); err == nil {
			st.Last = &latest
		}
	}
	WriteJSON(w, http.StatusOK, st)
}

// Start kicks off a run in the background and answers 202 right away.
func (h RunsHandler) Start(w http.ResponseWriter, r *http.Request) {
	if h.Runner.Status().Running {
		WriteError(w, r, http.StatusConflict, "already_running", pipeline.ErrRunInProgress.Error())
		return
	}

	base := h.BaseContext
	if base == nil {
		base = context.Background()
	}
	log := h.logger().With(zap.String("request_id", RequestIDFrom(r.Context())))

	go func() {
		_, err := h.Runner.Run(base)
		if errors.Is(err, pipeline.ErrRunInProgress) {
			log.Warn("run request raced with another run")
			return
		}
		if err != nil {
			log.Warn("run started over http failed", zap.Error(err), zap.Int("exit", pipeline.ExitCode(err)))
		}
	}()

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
