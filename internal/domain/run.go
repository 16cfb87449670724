package domain

import "time"

type RunStatus string

const (
	RunSuccess RunStatus = "success"
	// RunPartial marks a completed run that fell back to keyword-only ranking.
	RunPartial RunStatus = "partial"
	RunFailure RunStatus = "failure"
)

// RunMetadata is appended once per pipeline execution.
type RunMetadata struct {
	RunID              string    `json:"runId"`
	StartedAt          time.Time `json:"startedAt"`
	FinishedAt         time.Time `json:"finishedAt"`
	AdsFetched         int       `json:"adsFetched"`
	AdsScored          int       `json:"adsScored"`
	AdsNew             int       `json:"adsNew"`
	EmbeddingAvailable bool      `json:"embeddingAvailable"`
	Status             RunStatus `json:"status"`
	Error              string    `json:"error,omitempty"`
}
