package httpapi

import (
	"net/http"
	"path/filepath"

	"github.com/mlowdi/jobsearcher/internal/config"
	"github.com/mlowdi/jobsearcher/internal/events"
)

type ProfileHandler struct {
	Deps
}

func (h ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := config.LoadProfile(h.ProfilePath)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "profile_error", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// Put validates and atomically replaces the profile, then lets the caller
// reload its scorer. Validation problems come back as 400 with the list.
func (h ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	var incoming config.Profile
	if err := readJSON(w, r, &incoming); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}

	normalized, vr := config.NormalizeAndValidate(incoming)
	if !vr.OK() {
		WriteJSON(w, http.StatusBadRequest, vr)
		return
	}

	if err := config.SaveProfileAtomic(h.ProfilePath, normalized); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "save_failed", err.Error())
		return
	}
	if h.OnProfileSaved != nil {
		if err := h.OnProfileSaved(normalized); err != nil {
			WriteError(w, r, http.StatusInternalServerError, "reload_failed", "saved but reload failed: "+err.Error())
			return
		}
	}
	if h.Hub != nil {
		_ = h.Hub.Emit(RequestIDFrom(r.Context()), events.TypeProfileSaved, map[string]any{
			"core":     len(normalized.CoreTerms),
			"related":  len(normalized.RelatedTerms),
			"negative": len(normalized.NegativeTerms),
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"profile": normalized, "warnings": vr.Warnings})
}

func (h ProfileHandler) Validate(w http.ResponseWriter, r *http.Request) {
	p, err := config.LoadProfile(h.ProfilePath)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "profile_error", err.Error())
		return
	}
	_, vr := config.NormalizeAndValidate(p)
	WriteJSON(w, http.StatusOK, vr)
}

func (h ProfileHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.ProfilePath)
	WriteJSON(w, http.StatusOK, map[string]any{"path": abs})
}
