// Package corpus runs the document analyzer over a whole corpus and folds
// the rows into a summary.
package corpus

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kittclouds/talestat/internal/logging"
	"github.com/kittclouds/talestat/pkg/config"
	"github.com/kittclouds/talestat/pkg/docstore"
	"github.com/kittclouds/talestat/pkg/scanner/conductor"
	"github.com/kittclouds/talestat/pkg/scanner/resolver"
)

// Document is one input of a run.
type Document = docstore.Document

// Failure is a document that produced no row.
type Failure struct {
	Index      int    `json:"index"`
	DocumentID string `json:"document_id"`
	Err        error  `json:"-"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("document %q (#%d): %v", f.DocumentID, f.Index, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Summary is the result of a run. Rows and Failures keep input order.
type Summary struct {
	Phrases    []string        `json:"phrases"`
	Characters []string        `json:"characters"`
	Rows       []conductor.Row `json:"rows"`
	Failures   []Failure       `json:"failures"`
}

// PhraseTotals sums phrase counts over every row.
func (s *Summary) PhraseTotals() map[string]int {
	totals := make(map[string]int, len(s.Phrases))
	for _, p := range s.Phrases {
		totals[p] = 0
	}
	for _, row := range s.Rows {
		for p, n := range row.Phrases {
			totals[p] += n
		}
	}
	return totals
}

// SpeechTotals sums the speech tallies over every row.
func (s *Summary) SpeechTotals() resolver.Tally {
	totals := resolver.NewTally(s.Characters)
	for _, row := range s.Rows {
		for name, n := range row.Speech {
			totals[name] += n
		}
	}
	return totals
}

// Aggregator analyzes documents in parallel with a bounded worker count.
type Aggregator struct {
	cfg       *config.Config
	conductor *conductor.Conductor
}

// New creates an Aggregator for one configuration.
func New(cfg *config.Config) *Aggregator {
	return &Aggregator{cfg: cfg, conductor: conductor.New(cfg)}
}

// Config returns the configuration of the run.
func (a *Aggregator) Config() *config.Config {
	return a.cfg
}

type slot struct {
	row     conductor.Row
	err     error
	skipped bool // never started because the context was done
}

// Run analyzes docs. A document that fails (ingestion error or a panic during
// analysis) becomes a Failure and the run continues. The context is only
// checked between documents: once it is done, the rows already completed are
// returned together with ctx.Err(), and documents not yet started are
// reported as failures.
func (a *Aggregator) Run(ctx context.Context, docs []Document) (*Summary, error) {
	slots := make([]slot, len(docs))

	var g errgroup.Group
	g.SetLimit(a.cfg.Workers())

	for i := range docs {
		if err := ctx.Err(); err != nil {
			slots[i].err, slots[i].skipped = fmt.Errorf("not started: %w", err), true
			continue
		}
		g.Go(func() error {
			// Early exit if context cancelled while waiting for a worker
			if err := ctx.Err(); err != nil {
				slots[i].err, slots[i].skipped = fmt.Errorf("not started: %w", err), true
				return nil
			}
			slots[i].row, slots[i].err = a.analyze(docs[i])
			return nil // never fail the group - errors reported per document
		})
	}

	_ = g.Wait()

	summary := &Summary{
		Phrases:    a.cfg.Phrases(),
		Characters: a.cfg.Characters(),
		Rows:       make([]conductor.Row, 0, len(docs)),
		Failures:   []Failure{},
	}
	cancelled := false
	for i, s := range slots {
		cancelled = cancelled || s.skipped
		if s.err != nil {
			f := Failure{Index: i, DocumentID: docs[i].ID, Err: s.err}
			logging.Warn("document skipped", "doc", f.DocumentID, "index", i, "error", s.err)
			summary.Failures = append(summary.Failures, f)
			continue
		}
		summary.Rows = append(summary.Rows, s.row)
	}

	logging.Info("corpus analyzed", "rows", len(summary.Rows), "failures", len(summary.Failures))

	if cancelled {
		return summary, ctx.Err()
	}
	return summary, nil
}

func (a *Aggregator) analyze(doc Document) (row conductor.Row, err error) {
	if doc.Err != nil {
		return row, fmt.Errorf("ingest: %w", doc.Err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panicked: %v", r)
		}
	}()

	row = a.conductor.Analyze(doc)
	logging.Debug("document analyzed",
		"doc", doc.ID,
		"words", row.WordCount,
		"quotes", row.QuotedSpans,
	)
	return row, nil
}
