package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"go.uber.org/zap"

	"github.com/mlowdi/jobsearcher/internal/config"
	"github.com/mlowdi/jobsearcher/internal/domain"
	"github.com/mlowdi/jobsearcher/internal/events"
	"github.com/mlowdi/jobsearcher/internal/pipeline"
	"github.com/mlowdi/jobsearcher/internal/rank"
	"github.com/mlowdi/jobsearcher/internal/store"
)

type staticFetcher []domain.JobAd

func (f staticFetcher) Fetch(context.Context) ([]domain.JobAd, error) { return f, nil }

var now = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

type fixture struct {
	handler http.Handler
	db      *store.DB
	runner  *pipeline.Runner
	deps    Deps
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := store.Open(filepath.Join(dir, "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	profile := config.Profile{
		CoreTerms:             []string{"soc", "kql"},
		RelatedTerms:          []string{"sentinel"},
		NegativeTerms:         []config.NegativeTerm{{Term: "bygg"}},
		DefaultNegativeWeight: config.DefaultNegativeWeight,
		ShortTermLength:       config.DefaultShortTermLength,
	}
	profilePath := filepath.Join(dir, "profile.yml")
	require.NoError(t, config.SaveProfileAtomic(profilePath, profile))

	scorer, err := rank.NewKeywordScorer(profile, nil)
	require.NoError(t, err)

	hub := events.NewHub()
	runner := &pipeline.Runner{
		Fetcher: staticFetcher{
			{ID: "1", Title: "SOC analyst", Company: "Acme", Description: "Sentinel och KQL"},
			{ID: "2", Title: "Projektledare", Company: "Bygg AB", Description: "bygg"},
		},
		Scorer: scorer,
		Store:  db,
		Now:    func() time.Time { return now },
		Notify: func(event string, meta domain.RunMetadata) {
			_ = hub.Emit("", event, meta)
		},
	}

	d := Deps{
		DB:           db,
		Runner:       runner,
		Hub:          hub,
		Log:          zap.NewNop(),
		RecentWindow: 7 * 24 * time.Hour,
		ProfilePath:  profilePath,
		Now:          func() time.Time { return now.Add(time.Hour) },
	}
	return fixture{handler: Handler(d, []string{"jobtech"}), db: db, runner: runner, deps: d}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "127.0.0.1:50000"
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"ok":true,"running":false,"subscribers":0}`, rec.Body.String())
}

func TestAdsAfterRun(t *testing.T) {
	f := newFixture(t)
	_, err := f.runner.Run(context.Background())
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/ads?window=7d&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Count int `json:"count"`
		Ads   []struct {
			Ad     domain.JobAd       `json:"ad"`
			Score  domain.ScoreRecord `json:"score"`
			Rating int                `json:"rating"`
		} `json:"ads"`
	}](t, rec)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "1", body.Ads[0].Ad.ID)
	assert.Equal(t, 8, body.Ads[0].Score.KeywordScore)
	assert.Equal(t, 7, body.Ads[0].Rating)

	rec = f.do(t, http.MethodGet, "/ads/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"history":[{`)

	rec = f.do(t, http.MethodGet, "/ads/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"not_found"`)
}

func TestAdsBadParams(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/ads?window=soon", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/ads?limit=-3", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodDelete, "/ads", "").Code)
}

func TestRunsEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"runs":[]}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/runs", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	assert.Eventually(t, func() bool {
		runs, err := f.db.ListRuns(context.Background(), 5)
		return err == nil && len(runs) == 1 && !f.runner.Status().Running
	}, 5*time.Second, 20*time.Millisecond)

	rec = f.do(t, http.MethodGet, "/runs/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[pipeline.Status](t, rec)
	require.NotNil(t, st.Last)
	assert.Equal(t, domain.RunPartial, st.Last.Status)
	assert.Equal(t, 2, st.Last.AdsNew)
}

func TestProfileRoundTrip(t *testing.T) {
	f := newFixture(t)

	var reloaded config.Profile
	f.deps.OnProfileSaved = func(p config.Profile) error {
		reloaded = p
		return nil
	}
	h := Handler(f.deps, nil)

	put := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/profile", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := put(`{"core_terms":[],"related_terms":["risk"],"default_negative_weight":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "core_terms must have at least 1 term")

	rec = put(`{"core_terms":["soc"," soc "],"related_terms":["risk"],"default_negative_weight":3,"short_term_length":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"soc"}, reloaded.CoreTerms)

	rec = f.do(t, http.MethodGet, "/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[config.Profile](t, rec)
	assert.Equal(t, []string{"soc"}, got.CoreTerms)

	rec = put(`{"bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSecretsLoopbackOnly(t *testing.T) {
	keyring.MockInit()
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/secrets/jobtech", `{"value":"abc"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodPost, "/secrets/other", `{"value":"abc"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/secrets/jobtech", strings.NewReader(`{"value":"abc"}`))
	req.RemoteAddr = "192.0.2.10:4000"
	out := httptest.NewRecorder()
	f.handler.ServeHTTP(out, req)
	assert.Equal(t, http.StatusForbidden, out.Code)
}

func TestEventsStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	rd := bufio.NewReader(resp.Body)
	readEvent := func() events.Event {
		t.Helper()
		var e events.Event
		for {
			line, err := rd.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				require.NoError(t, json.Unmarshal([]byte(data), &e))
				return e
			}
		}
	}

	hello := readEvent()
	assert.Equal(t, events.TypePing, hello.Type)
	assert.Contains(t, string(hello.Data), `"running":false`)

	require.Eventually(t, func() bool { return f.deps.Hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	_, err = f.runner.Run(context.Background())
	require.NoError(t, err)

	started := readEvent()
	assert.Equal(t, events.TypeRunStarted, started.Type)
	finished := readEvent()
	assert.Equal(t, events.TypeRunFinished, finished.Type)
	assert.Contains(t, string(finished.Data), `"adsNew":2`)
}

func TestCorsPreflight(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodOptions, "/ads", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
