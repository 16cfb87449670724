package domain

import "time"

// ScoreRecord is one ad's evaluation. EmbeddingScore is nil when the run
// skipped reranking or the ad fell outside the reranked group.
type ScoreRecord struct {
	AdID           string    `json:"adId"`
	KeywordScore   int       `json:"keywordScore"`
	EmbeddingScore *float64  `json:"embeddingScore,omitempty"`
	FinalScore     float64   `json:"finalScore"`
	Tags           []string  `json:"tags,omitempty"`
	FirstSeen      time.Time `json:"firstSeen"`
	LastSeen       time.Time `json:"lastSeen"`
}

// Ranked pairs an ad with its score; the coordinator sorts these.
type Ranked struct {
	Ad    JobAd       `json:"ad"`
	Score ScoreRecord `json:"score"`
}

// Observation is one historical score of an ad in a given run.
type Observation struct {
	AdID           string    `json:"adId"`
	RunID          string    `json:"runId"`
	KeywordScore   int       `json:"keywordScore"`
	EmbeddingScore *float64  `json:"embeddingScore,omitempty"`
	FinalScore     float64   `json:"finalScore"`
	ObservedAt     time.Time `json:"observedAt"`
}
