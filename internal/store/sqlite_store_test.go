package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/talestat/pkg/config"
	"github.com/kittclouds/talestat/pkg/corpus"
	"github.com/kittclouds/talestat/pkg/scanner/conductor"
	"github.com/kittclouds/talestat/pkg/scanner/resolver"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func runCorpus(t *testing.T, docs []corpus.Document) *corpus.Summary {
	t.Helper()
	opts := config.DefaultOptions()
	opts.Characters = []string{"Harry", "Ron"}
	opts.Phrases = []string{"mort", "avada kedavra"}
	opts.StopwordLanguage = "fr"
	opts.TopN = 5
	cfg, err := config.New(opts)
	require.NoError(t, err)

	summary, err := corpus.New(cfg).Run(context.Background(), docs)
	require.NoError(t, err)
	return summary
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := setupStore(t)
	pages := 223
	summary := runCorpus(t, []corpus.Document{
		{ID: "tome1", Text: `Harry dit « La mort ! » Ron répondit « Avada Kedavra ».`, PageCount: &pages},
		{ID: "tome2", Err: errors.New("unreadable")},
		{ID: "tome3", Text: `Personne ne parle. "Vraiment`},
	})
	require.Len(t, summary.Rows, 2)

	runID, err := s.SaveSummary(summary)
	require.NoError(t, err)

	rows, err := s.LoadRows(runID)
	require.NoError(t, err)
	assert.Equal(t, summary.Rows, rows)

	failures, err := s.LoadFailures(runID)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, 1, failures[0].Index)
	assert.Equal(t, "tome2", failures[0].DocumentID)
	assert.Contains(t, failures[0].Error, "unreadable")

	run, err := s.GetRun(runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, []string{"Harry", "Ron"}, run.Characters)
	assert.Equal(t, []string{"mort", "avada kedavra"}, run.Phrases)
	assert.Equal(t, 2, run.Documents)
	assert.Equal(t, 1, run.Failures)
}

func TestGetRun_NotFound(t *testing.T) {
	s := setupStore(t)

	run, err := s.GetRun(42)
	assert.NoError(t, err)
	assert.Nil(t, run)
}

func TestListAndDeleteRuns(t *testing.T) {
	s := setupStore(t)
	summary := runCorpus(t, []corpus.Document{{ID: "a", Text: "mort"}})

	first, err := s.SaveSummary(summary)
	require.NoError(t, err)
	second, err := s.SaveSummary(summary)
	require.NoError(t, err)

	runs, err := s.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)

	require.NoError(t, s.DeleteRun(first))
	runs, err = s.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)

	rows, err := s.LoadRows(first)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func tallyRow(id string, harry, ron, unknown int) conductor.Row {
	return conductor.Row{
		DocumentID: id,
		Phrases:    map[string]int{},
		Speech:     resolver.Tally{"Harry": harry, "Ron": ron, resolver.Unknown: unknown},
	}
}

func TestSimilarDocuments(t *testing.T) {
	s := setupStore(t)
	summary := &corpus.Summary{
		Characters: []string{"Harry", "Ron"},
		Rows: []conductor.Row{
			tallyRow("harry-only", 4, 0, 0),
			tallyRow("mostly-harry", 3, 1, 0),
			tallyRow("ron-only", 0, 4, 0),
			tallyRow("silent", 0, 0, 0),
		},
	}
	runID, err := s.SaveSummary(summary)
	require.NoError(t, err)

	got, err := s.SimilarDocuments(runID, "harry-only", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "mostly-harry", got[0].DocumentID)
	assert.Equal(t, "ron-only", got[1].DocumentID)
	assert.Less(t, got[0].Distance, got[1].Distance)
	assert.InDelta(t, 1.0, got[1].Distance, 1e-6)

	none, err := s.SimilarDocuments(runID, "silent", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSpeechProfile(t *testing.T) {
	p := speechProfile(resolver.Tally{"Harry": 1, "Ron": 2, resolver.Unknown: 1}, []string{"Harry", "Ron"})
	require.True(t, p.Valid)
	assert.JSONEq(t, `[0.25, 0.5, 0.25]`, p.String)

	assert.False(t, speechProfile(resolver.Tally{"Harry": 0, resolver.Unknown: 0}, []string{"Harry"}).Valid)
}
