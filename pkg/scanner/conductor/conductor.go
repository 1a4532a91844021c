// Package conductor orchestrates the per-document pipeline.
// It wires together Normalize, Matcher, Frequency, Quotes, Resolver,
// Narrative and Discovery into one row per document.
package conductor

import (
	"github.com/kittclouds/talestat/pkg/config"
	"github.com/kittclouds/talestat/pkg/docstore"
	"github.com/kittclouds/talestat/pkg/matcher"
	"github.com/kittclouds/talestat/pkg/scanner/discovery"
	"github.com/kittclouds/talestat/pkg/scanner/frequency"
	"github.com/kittclouds/talestat/pkg/scanner/narrative"
	"github.com/kittclouds/talestat/pkg/scanner/normalize"
	"github.com/kittclouds/talestat/pkg/scanner/quotes"
	"github.com/kittclouds/talestat/pkg/scanner/resolver"
)

// Row is the analysis of one document. Maps are keyed by every configured
// phrase or roster name, zero counts included.
type Row struct {
	DocumentID string            `json:"document_id"`
	WordCount  int               `json:"word_count"`
	PageCount  *int              `json:"page_count,omitempty"`
	Phrases    map[string]int    `json:"phrases"`
	Speech     resolver.Tally    `json:"speech"`
	TopWords   []frequency.Entry `json:"top_words"`

	QuotedSpans      int                   `json:"quoted_spans"`
	UnbalancedQuotes bool                  `json:"unbalanced_quotes"`
	DialogueTags     map[string]int        `json:"dialogue_tags"`
	ContentWords     []frequency.Entry     `json:"content_words"`
	Candidates       []discovery.Candidate `json:"candidates"`
}

// Conductor manages the scanning pipeline
type Conductor struct {
	cfg      *config.Config
	resolver *resolver.Resolver
	tagger   *narrative.Tagger
}

// New creates a new Conductor over a validated configuration. A Conductor is
// safe for concurrent use.
func New(cfg *config.Config) *Conductor {
	return &Conductor{
		cfg:      cfg,
		resolver: resolver.New(cfg.NameMatcher(), cfg.ContextWindow()),
		tagger:   narrative.NewTagger(cfg.NameMatcher(), cfg.Verbs()),
	}
}

// Config returns the configuration the conductor was built with.
func (c *Conductor) Config() *config.Config {
	return c.cfg
}

// Analyze processes one document through all pipeline stages. Empty text
// gives zero counts, empty lists and a zero tally.
func (c *Conductor) Analyze(doc docstore.Document) Row {
	// 1. Normalize once, fold once
	text := normalize.Text(doc.Text)
	folded := matcher.Fold(text)

	// 2. Phrases and words
	tokens := frequency.Tokens(text)
	row := Row{
		DocumentID: doc.ID,
		WordCount:  len(tokens),
		PageCount:  copyPages(doc.PageCount),
		Phrases:    c.cfg.PhraseMatcher().CountFolded(folded),
		TopWords:   frequency.Rank(tokens, c.cfg.TopN(), nil),
	}

	if sw := c.cfg.Stopwords(); sw != nil {
		row.ContentWords = frequency.Rank(tokens, c.cfg.TopN(), sw.Contains)
	} else {
		row.ContentWords = []frequency.Entry{}
	}

	// 3. Quotes -> speakers
	spans := c.cfg.Segmenter().Split(text)
	quoted := quotes.QuotedSpans(spans)
	row.QuotedSpans = len(quoted)
	row.UnbalancedQuotes = !quotes.Balanced(spans)
	row.Speech = c.resolver.Attribute(quoted)

	// 4. Narrative pass (dialogue tags) and discovery
	row.DialogueTags = c.tagger.Count(folded)
	row.Candidates = c.cfg.Discovery().Discover(text)

	return row
}

func copyPages(p *int) *int {
	if p == nil {
		return nil
	}
	n := *p
	return &n
}
