package corpus

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/talestat/pkg/config"
	"github.com/kittclouds/talestat/pkg/scanner/conductor"
	"github.com/kittclouds/talestat/pkg/scanner/resolver"
)

func setupConfig(t *testing.T, workers int) *config.Config {
	t.Helper()
	opts := config.DefaultOptions()
	opts.Phrases = []string{"mort", "harry"}
	opts.Characters = []string{"Harry", "Ron"}
	opts.Delimiters = `"«»`
	opts.Workers = workers
	cfg, err := config.New(opts)
	require.NoError(t, err)
	return cfg
}

func pages(n int) *int { return &n }

func TestRun_KeepsInputOrder(t *testing.T) {
	agg := New(setupConfig(t, 4))

	docs := make([]Document, 20)
	for i := range docs {
		docs[i] = Document{
			ID:   fmt.Sprintf("tome%02d", i),
			Text: fmt.Sprintf(`Harry dit "mort %d". Ron sourit.`, i),
		}
	}

	summary, err := agg.Run(context.Background(), docs)
	require.NoError(t, err)

	require.Len(t, summary.Rows, 20)
	for i, row := range summary.Rows {
		assert.Equal(t, docs[i].ID, row.DocumentID)
		assert.Equal(t, 1, row.Speech["Harry"])
	}
	assert.Empty(t, summary.Failures)
	assert.Equal(t, []string{"mort", "harry"}, summary.Phrases)
	assert.Equal(t, []string{"Harry", "Ron"}, summary.Characters)
}

func TestRun_FailuresDoNotAbort(t *testing.T) {
	agg := New(setupConfig(t, 2))
	readErr := errors.New("permission denied")

	summary, err := agg.Run(context.Background(), []Document{
		{ID: "a", Text: "mort"},
		{ID: "b", Err: readErr},
		{ID: "c", Text: "harry mort mort"},
	})
	require.NoError(t, err)

	require.Len(t, summary.Rows, 2)
	assert.Equal(t, "a", summary.Rows[0].DocumentID)
	assert.Equal(t, "c", summary.Rows[1].DocumentID)

	require.Len(t, summary.Failures, 1)
	f := summary.Failures[0]
	assert.Equal(t, 1, f.Index)
	assert.Equal(t, "b", f.DocumentID)
	assert.ErrorIs(t, f, readErr)
	assert.Contains(t, f.Error(), `"b"`)
}

func TestRun_RecoversPanics(t *testing.T) {
	cfg := setupConfig(t, 1)
	agg := &Aggregator{cfg: cfg} // no conductor: Analyze panics

	summary, err := agg.Run(context.Background(), []Document{{ID: "boom", Text: "x"}})
	require.NoError(t, err)

	assert.Empty(t, summary.Rows)
	require.Len(t, summary.Failures, 1)
	assert.Contains(t, summary.Failures[0].Err.Error(), "panicked")
}

func TestRun_Cancelled(t *testing.T) {
	agg := New(setupConfig(t, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := agg.Run(ctx, []Document{{ID: "a"}, {ID: "b"}})

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Empty(t, summary.Rows)
	require.Len(t, summary.Failures, 2)
	assert.ErrorIs(t, summary.Failures[1].Err, context.Canceled)
}

func TestRun_EmptyCorpus(t *testing.T) {
	summary, err := New(setupConfig(t, 0)).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, summary.Rows)
	assert.Empty(t, summary.Failures)
}

func TestSummaryTotals(t *testing.T) {
	summary, err := New(setupConfig(t, 2)).Run(context.Background(), []Document{
		{ID: "a", Text: `Harry dit « Mort ! »`},
		{ID: "b", Text: `« Salut », dit Ron. « Hein ? »`},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"mort": 1, "harry": 1}, summary.PhraseTotals())
	totals := summary.SpeechTotals()
	assert.Equal(t, resolver.Tally{"Harry": 1, "Ron": 2, resolver.Unknown: 0}, totals)
	assert.Equal(t, 3, totals.Total())
}

func TestPerPages(t *testing.T) {
	s := &Summary{Rows: []conductor.Row{
		{
			DocumentID:   "tome1",
			WordCount:    1000,
			PageCount:    pages(250),
			Phrases:      map[string]int{"mort": 5},
			Speech:       resolver.Tally{"Harry": 10, resolver.Unknown: 0},
			DialogueTags: map[string]int{"Harry": 2},
		},
		{DocumentID: "tome2", WordCount: 7, Phrases: map[string]int{"mort": 1}},
		{DocumentID: "tome3", WordCount: 7, PageCount: pages(0), Phrases: map[string]int{"mort": 1}},
	}}

	got := PerPages(s, 100)
	require.Len(t, got, 3)

	require.NotNil(t, got[0].Words)
	assert.InDelta(t, 400.0, *got[0].Words, 1e-9)
	assert.InDelta(t, 2.0, *got[0].Phrases["mort"], 1e-9)
	assert.InDelta(t, 4.0, *got[0].Speech["Harry"], 1e-9)
	assert.InDelta(t, 0.0, *got[0].Speech[resolver.Unknown], 1e-9)
	assert.InDelta(t, 0.8, *got[0].DialogueTags["Harry"], 1e-9)

	for _, row := range got[1:] {
		assert.Nil(t, row.Words)
		v, ok := row.Phrases["mort"]
		assert.True(t, ok)
		assert.Nil(t, v)
	}

	// scale falls back to 100
	assert.InDelta(t, 400.0, *PerPages(s, 0)[0].Words, 1e-9)
	// summary untouched
	assert.Equal(t, 5, s.Rows[0].Phrases["mort"])
}
