// Package fetch pulls fresh ads from the JobTech job-search API.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mlowdi/jobsearcher/internal/config"
	"github.com/mlowdi/jobsearcher/internal/domain"
	"github.com/mlowdi/jobsearcher/internal/logger"
	"github.com/mlowdi/jobsearcher/internal/textnorm"
)

// Fetcher returns the current batch of ads, deduplicated by id.
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.JobAd, error)
}

// Query is one search request against the API. Source labels the ads it
// returns in the store.
type Query struct {
	Source   string
	Params   url.Values
	Freetext bool
}

type JobTech struct {
	cfg     config.FetchConfig
	apiKey  string
	hc      *http.Client
	limiter *HostLimiter
	log     *zap.Logger
}

func NewJobTech(cfg config.FetchConfig, apiKey string, log *zap.Logger) *JobTech {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &JobTech{
		cfg:     cfg,
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: timeout},
		limiter: NewHostLimiter(cfg.RatePerSecond, cfg.Burst),
		log:     log,
	}
}

// Queries expands the config into the request list: one occupation group
// query, one geography filtered freetext query per phrase, and optionally
// the same phrases again as nationwide remote searches.
func (j *JobTech) Queries() []Query {
	geo := url.Values{}
	for _, a := range j.cfg.Geography {
		if a.Type == "" || a.Code == "" {
			continue
		}
		geo.Add(a.Type, a.Code)
	}

	var qs []Query
	if len(j.cfg.OccupationGroups) > 0 {
		p := cloneValues(geo)
		for _, g := range j.cfg.OccupationGroups {
			p.Add("occupation-group", g)
		}
		qs = append(qs, Query{Source: "occupation_group", Params: p})
	}
	for _, text := range j.cfg.FreetextQueries {
		p := cloneValues(geo)
		p.Set("q", text)
		qs = append(qs, Query{Source: "freetext:" + text, Params: p, Freetext: true})
	}
	if j.cfg.IncludeRemote {
		for _, text := range j.cfg.FreetextQueries {
			p := url.Values{}
			p.Set("q", text)
			p.Set("remote", "true")
			qs = append(qs, Query{Source: "remote:" + text, Params: p, Freetext: true})
		}
	}
	return qs
}

// Fetch runs every query concurrently and merges the hits in query order.
// One failed query fails the whole fetch.
func (j *JobTech) Fetch(ctx context.Context) ([]domain.JobAd, error) {
	qs := j.Queries()
	results := make([][]domain.JobAd, len(qs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, q := range qs {
		g.Go(func() error {
			ads, err := j.fetchQuery(gctx, q)
			if err != nil {
				return fmt.Errorf("query %s: %w", q.Source, err)
			}
			j.log.Debug("query done", zap.String("source", q.Source), zap.Int("hits", len(ads)))
			results[i] = ads
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.JobAd
	for _, r := range results {
		all = append(all, r...)
	}
	out := domain.DedupeByID(all)
	j.log.Info("fetched ads", zap.Int("queries", len(qs)), zap.Int("hits", len(all)), zap.Int("unique", len(out)))
	return out, nil
}

func (j *JobTech) fetchQuery(ctx context.Context, q Query) ([]domain.JobAd, error) {
	p := cloneValues(q.Params)
	p.Set("published-after", strconv.Itoa(j.cfg.PublishedAfter))
	p.Set("limit", strconv.Itoa(j.cfg.Limit))

	u := j.cfg.BaseURL + "?" + p.Encode()

	res, err := j.get(ctx, u, q.Freetext)
	if err != nil {
		return nil, err
	}
	if res.StatusCode == http.StatusTooManyRequests {
		wait := retryAfter(res.Header, time.Now())
		res.Body.Close()
		j.log.Warn("rate limited, retrying once", zap.String("source", q.Source), zap.Duration("after", wait))
		j.limiter.Pause(u, wait)

		res, err = j.get(ctx, u, q.Freetext)
		if err != nil {
			return nil, err
		}
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return nil, fmt.Errorf("status %d: %s", res.StatusCode, logger.TruncateForLog(string(body), 200))
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	out := make([]domain.JobAd, 0, len(sr.Hits))
	for _, h := range sr.Hits {
		ad := h.toJobAd()
		if ad.ID == "" {
			continue
		}
		ad.QuerySource = q.Source
		out = append(out, ad)
	}
	return out, nil
}

// get waits for the host limiter and issues one search request.
func (j *JobTech) get(ctx context.Context, u string, freetext bool) (*http.Response, error) {
	if err := j.limiter.Wait(ctx, u); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("User-Agent", "jobsearcher/1.0 (+local)")
	if j.apiKey != "" {
		req.Header.Set("api-key", j.apiKey)
	}
	if freetext {
		req.Header.Set("x-feature-freetext-bool-method", "and")
		req.Header.Set("x-feature-disable-smart-freetext", "true")
	}
	return j.hc.Do(req)
}

type searchResponse struct {
	Hits []hit `json:"hits"`
}

type labelled struct {
	Label         string `json:"label"`
	LegacyAMSCode string `json:"legacy_ams_taxonomy_id"`
}

type hit struct {
	ID       string `json:"id"`
	Headline string `json:"headline"`
	Employer struct {
		Name string `json:"name"`
	} `json:"employer"`
	Description struct {
		Text          string `json:"text"`
		TextFormatted string `json:"text_formatted"`
	} `json:"description"`
	WebpageURL          string   `json:"webpage_url"`
	OccupationGroup     labelled `json:"occupation_group"`
	EmploymentType      labelled `json:"employment_type"`
	PublicationDate     string   `json:"publication_date"`
	ApplicationDeadline string   `json:"application_deadline"`
	WorkplaceAddress    struct {
		Municipality string `json:"municipality"`
		Region       string `json:"region"`
	} `json:"workplace_address"`
}

func (h hit) toJobAd() domain.JobAd {
	desc := strings.TrimSpace(h.Description.Text)
	if desc == "" && h.Description.TextFormatted != "" {
		if txt, err := textnorm.PlainText(h.Description.TextFormatted); err == nil {
			desc = txt
		}
	}

	group := h.OccupationGroup.LegacyAMSCode
	if group == "" {
		group = h.OccupationGroup.Label
	}

	return domain.JobAd{
		ID:                  strings.TrimSpace(h.ID),
		Title:               textnorm.CleanText(h.Headline),
		Company:             textnorm.CleanText(h.Employer.Name),
		Description:         desc,
		URL:                 adURL(h.WebpageURL, h.ID),
		OccupationGroup:     group,
		PublishedAt:         parsePublished(h.PublicationDate),
		EmploymentType:      h.EmploymentType.Label,
		Municipality:        h.WorkplaceAddress.Municipality,
		Region:              h.WorkplaceAddress.Region,
		ApplicationDeadline: h.ApplicationDeadline,
	}
}

// The API returns local Swedish time without an offset.
var stockholm = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		return time.UTC
	}
	return loc
}()

func parsePublished(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, stockholm); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
