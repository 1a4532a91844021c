// Package store persists corpus runs in SQLite.
package store

import (
	"github.com/kittclouds/talestat/pkg/corpus"
	"github.com/kittclouds/talestat/pkg/scanner/conductor"
)

// Run is one persisted corpus run.
type Run struct {
	ID         int64    `json:"id"`
	CreatedAt  int64    `json:"createdAt"`
	Phrases    []string `json:"phrases"`
	Characters []string `json:"characters"`
	Documents  int      `json:"documents"`
	Failures   int      `json:"failures"`
}

// FailureRecord is a persisted corpus.Failure. The error is kept as text.
type FailureRecord struct {
	Index      int    `json:"index"`
	DocumentID string `json:"documentId"`
	Error      string `json:"error"`
}

// Neighbor is a document ranked by speech-profile similarity.
type Neighbor struct {
	DocumentID string  `json:"documentId"`
	Distance   float64 `json:"distance"` // cosine distance, 0 = same profile
}

// Storer defines the interface for run persistence.
// SQLiteStore is the sole implementation.
type Storer interface {
	SaveSummary(summary *corpus.Summary) (int64, error)
	GetRun(id int64) (*Run, error)
	ListRuns() ([]*Run, error)
	LoadRows(runID int64) ([]conductor.Row, error)
	LoadFailures(runID int64) ([]FailureRecord, error)
	SimilarDocuments(runID int64, documentID string, limit int) ([]Neighbor, error)
	DeleteRun(id int64) error

	// Lifecycle
	Close() error
}
