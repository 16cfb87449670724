package httpapi

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mlowdi/jobsearcher/internal/config"
	"github.com/mlowdi/jobsearcher/internal/events"
	"github.com/mlowdi/jobsearcher/internal/pipeline"
	"github.com/mlowdi/jobsearcher/internal/store"
)

type Deps struct {
	DB     *store.DB
	Runner *pipeline.Runner
	Hub    *events.Hub
	Log    *zap.Logger

	// Default look-back for GET /ads.
	RecentWindow time.Duration

	// Profile persistence. OnProfileSaved lets the caller rebuild its scorer.
	ProfilePath    string
	OnProfileSaved func(config.Profile) error

	// BaseContext is the parent of background runs started over HTTP.
	BaseContext context.Context

	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}
