package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mlowdi/jobsearcher/internal/domain"
	"github.com/mlowdi/jobsearcher/internal/rank"
	"github.com/mlowdi/jobsearcher/internal/store"
)

type AdsHandler struct {
	Deps
}

type adView struct {
	domain.Ranked
	Rating int `json:"rating"`
}

func toView(r domain.Ranked) adView {
	return adView{Ranked: r, Rating: rank.Rating(r.Score.KeywordScore)}
}

// List serves GET /ads?window=168h&limit=50, best first.
func (h AdsHandler) List(w http.ResponseWriter, r *http.Request) {
	window, ok := windowParam(r, h.RecentWindow)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "bad_window", "window must be a duration like 168h or 7d")
		return
	}
	limit, ok := intParam(r, "limit", 50, 1000)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "bad_limit", "limit must be a positive integer")
		return
	}

	ads, err := h.DB.QueryRecent(r.Context(), window, h.now())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if len(ads) > limit {
		ads = ads[:limit]
	}

	out := make([]adView, 0, len(ads))
	for _, a := range ads {
		out = append(out, toView(a))
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"window": window.String(),
		"count":  len(out),
		"ads":    out,
	})
}

// Get serves GET /ads/{id} with the ad's score history.
func (h AdsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/ads/"))
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, r, http.StatusBadRequest, "bad_id", "invalid id")
		return
	}

	ad, err := h.DB.GetAd(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, "not_found", "no ad with id "+id)
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	hist, err := h.DB.History(r.Context(), id)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if hist == nil {
		hist = []domain.Observation{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"ad":      toView(ad),
		"history": hist,
	})
}
