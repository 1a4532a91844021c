// Package store provides SQLite-backed persistence for talestat runs.
// Uses ncruces/go-sqlite3/driver which provides a database/sql interface, with
// the sqlite-vec extension for speech-profile similarity.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"

	"github.com/kittclouds/talestat/internal/logging"
	"github.com/kittclouds/talestat/pkg/corpus"
	"github.com/kittclouds/talestat/pkg/scanner/conductor"
	"github.com/kittclouds/talestat/pkg/scanner/discovery"
	"github.com/kittclouds/talestat/pkg/scanner/frequency"
	"github.com/kittclouds/talestat/pkg/scanner/resolver"
)

// SQLiteStore is the SQLite-backed run store.
// Thread-safe for concurrent callers.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// schema defines all tables. Child rows are keyed by (run_id, position) so a
// document id may repeat across runs.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at INTEGER NOT NULL,
    phrases TEXT NOT NULL,
    characters TEXT NOT NULL
);

-- One row per analyzed document. profile is the speech-share vector
-- (roster order, then unknown) as a JSON array, NULL when nothing was quoted.
CREATE TABLE IF NOT EXISTS document_rows (
    run_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    document_id TEXT NOT NULL,
    word_count INTEGER NOT NULL,
    page_count INTEGER,
    quoted_spans INTEGER NOT NULL,
    unbalanced_quotes INTEGER DEFAULT 0,
    candidates TEXT,
    profile TEXT,
    PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_document_rows_doc ON document_rows(run_id, document_id);

CREATE TABLE IF NOT EXISTS phrase_counts (
    run_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    phrase TEXT NOT NULL,
    count INTEGER NOT NULL,
    PRIMARY KEY (run_id, position, phrase)
);

-- Speech tally plus dialogue tags per roster name ("unknown" has no tags)
CREATE TABLE IF NOT EXISTS speech_counts (
    run_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    count INTEGER NOT NULL,
    dialogue_tags INTEGER,
    PRIMARY KEY (run_id, position, name)
);

-- Ranked words; content = 1 for the stopword-filtered list
CREATE TABLE IF NOT EXISTS top_words (
    run_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    content INTEGER NOT NULL,
    rank INTEGER NOT NULL,
    token TEXT NOT NULL,
    count INTEGER NOT NULL,
    PRIMARY KEY (run_id, position, content, rank)
);

CREATE TABLE IF NOT EXISTS failures (
    run_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    document_id TEXT NOT NULL,
    error TEXT NOT NULL,
    PRIMARY KEY (run_id, position)
);
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	// Create schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// Runs
// =============================================================================

// SaveSummary persists a whole run in one transaction and returns its id.
func (s *SQLiteStore) SaveSummary(summary *corpus.Summary) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	phrasesJSON, _ := json.Marshal(summary.Phrases)
	charactersJSON, _ := json.Marshal(summary.Characters)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO runs (created_at, phrases, characters) VALUES (?, ?, ?)
	`, time.Now().Unix(), string(phrasesJSON), string(charactersJSON))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for pos, row := range summary.Rows {
		if err := insertRow(tx, runID, pos, row, summary.Characters); err != nil {
			return 0, fmt.Errorf("save %s: %w", row.DocumentID, err)
		}
	}

	for _, f := range summary.Failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		_, err := tx.Exec(`
			INSERT INTO failures (run_id, position, document_id, error) VALUES (?, ?, ?, ?)
		`, runID, f.Index, f.DocumentID, msg)
		if err != nil {
			return 0, fmt.Errorf("save failure %s: %w", f.DocumentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	logging.Info("run persisted", "run", runID, "rows", len(summary.Rows), "failures", len(summary.Failures))
	return runID, nil
}

func insertRow(tx *sql.Tx, runID int64, pos int, row conductor.Row, roster []string) error {
	candidatesJSON, _ := json.Marshal(row.Candidates)

	var pages sql.NullInt64
	if row.PageCount != nil {
		pages = sql.NullInt64{Int64: int64(*row.PageCount), Valid: true}
	}

	_, err := tx.Exec(`
		INSERT INTO document_rows (run_id, position, document_id, word_count, page_count,
			quoted_spans, unbalanced_quotes, candidates, profile)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, pos, row.DocumentID, row.WordCount, pages,
		row.QuotedSpans, boolToInt(row.UnbalancedQuotes), string(candidatesJSON),
		speechProfile(row.Speech, roster))
	if err != nil {
		return err
	}

	for phrase, n := range row.Phrases {
		if _, err := tx.Exec(`
			INSERT INTO phrase_counts (run_id, position, phrase, count) VALUES (?, ?, ?, ?)
		`, runID, pos, phrase, n); err != nil {
			return err
		}
	}

	for name, n := range row.Speech {
		var tags sql.NullInt64
		if t, ok := row.DialogueTags[name]; ok {
			tags = sql.NullInt64{Int64: int64(t), Valid: true}
		}
		if _, err := tx.Exec(`
			INSERT INTO speech_counts (run_id, position, name, count, dialogue_tags) VALUES (?, ?, ?, ?, ?)
		`, runID, pos, name, n, tags); err != nil {
			return err
		}
	}

	lists := [][]frequency.Entry{row.TopWords, row.ContentWords}
	for content, entries := range lists {
		for rank, e := range entries {
			if _, err := tx.Exec(`
				INSERT INTO top_words (run_id, position, content, rank, token, count) VALUES (?, ?, ?, ?, ?, ?)
			`, runID, pos, content, rank, e.Token, e.Count); err != nil {
				return err
			}
		}
	}
	return nil
}

// speechProfile returns the share of quoted spans per roster name, unknown
// last, as a JSON vector. It is NULL when the tally is empty, since a zero
// vector has no direction.
func speechProfile(tally resolver.Tally, roster []string) sql.NullString {
	total := tally.Total()
	if total == 0 {
		return sql.NullString{}
	}

	vec := make([]float32, 0, len(roster)+1)
	for _, name := range roster {
		vec = append(vec, float32(tally[name])/float32(total))
	}
	vec = append(vec, float32(tally[resolver.Unknown])/float32(total))

	data, _ := json.Marshal(vec)
	return sql.NullString{String: string(data), Valid: true}
}

// GetRun retrieves a run by ID. Returns nil if not found.
func (s *SQLiteStore) GetRun(id int64) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(runQuery+` WHERE r.id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// ListRuns returns every run, newest first.
func (s *SQLiteStore) ListRuns() ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(runQuery + ` ORDER BY r.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const runQuery = `
	SELECT r.id, r.created_at, r.phrases, r.characters,
		(SELECT COUNT(*) FROM document_rows d WHERE d.run_id = r.id),
		(SELECT COUNT(*) FROM failures f WHERE f.run_id = r.id)
	FROM runs r`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var run Run
	var phrasesJSON, charactersJSON string
	if err := sc.Scan(&run.ID, &run.CreatedAt, &phrasesJSON, &charactersJSON,
		&run.Documents, &run.Failures); err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(phrasesJSON), &run.Phrases)
	json.Unmarshal([]byte(charactersJSON), &run.Characters)
	return &run, nil
}

// DeleteRun removes a run and all its rows.
func (s *SQLiteStore) DeleteRun(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"top_words", "speech_counts", "phrase_counts", "failures", "document_rows"} {
		if _, err := s.db.Exec("DELETE FROM "+table+" WHERE run_id = ?", id); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	_, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	return err
}

// =============================================================================
// Rows
// =============================================================================

// LoadRows rebuilds the rows of a run in their original order.
func (s *SQLiteStore) LoadRows(runID int64) ([]conductor.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT position, document_id, word_count, page_count, quoted_spans,
			unbalanced_quotes, candidates
		FROM document_rows WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, err
	}

	var out []conductor.Row
	byPos := make(map[int]int)
	for rows.Next() {
		var r conductor.Row
		var pos, unbalanced int
		var pages sql.NullInt64
		var candidatesJSON sql.NullString
		if err := rows.Scan(&pos, &r.DocumentID, &r.WordCount, &pages,
			&r.QuotedSpans, &unbalanced, &candidatesJSON); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if pages.Valid {
			n := int(pages.Int64)
			r.PageCount = &n
		}
		r.UnbalancedQuotes = unbalanced == 1
		r.Candidates = []discovery.Candidate{}
		if candidatesJSON.Valid {
			json.Unmarshal([]byte(candidatesJSON.String), &r.Candidates)
		}
		r.Phrases = map[string]int{}
		r.Speech = resolver.Tally{}
		r.DialogueTags = map[string]int{}
		r.TopWords = []frequency.Entry{}
		r.ContentWords = []frequency.Entry{}

		byPos[pos] = len(out)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := s.loadPhrases(runID, out, byPos); err != nil {
		return nil, err
	}
	if err := s.loadSpeech(runID, out, byPos); err != nil {
		return nil, err
	}
	if err := s.loadWords(runID, out, byPos); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) loadPhrases(runID int64, out []conductor.Row, byPos map[int]int) error {
	rows, err := s.db.Query(`SELECT position, phrase, count FROM phrase_counts WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("load phrases: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pos, n int
		var phrase string
		if err := rows.Scan(&pos, &phrase, &n); err != nil {
			return fmt.Errorf("scan phrase: %w", err)
		}
		if i, ok := byPos[pos]; ok {
			out[i].Phrases[phrase] = n
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) loadSpeech(runID int64, out []conductor.Row, byPos map[int]int) error {
	rows, err := s.db.Query(`SELECT position, name, count, dialogue_tags FROM speech_counts WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("load speech: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pos, n int
		var name string
		var tags sql.NullInt64
		if err := rows.Scan(&pos, &name, &n, &tags); err != nil {
			return fmt.Errorf("scan speech: %w", err)
		}
		i, ok := byPos[pos]
		if !ok {
			continue
		}
		out[i].Speech[name] = n
		if tags.Valid {
			out[i].DialogueTags[name] = int(tags.Int64)
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) loadWords(runID int64, out []conductor.Row, byPos map[int]int) error {
	rows, err := s.db.Query(`
		SELECT position, content, token, count FROM top_words
		WHERE run_id = ? ORDER BY position, content, rank
	`, runID)
	if err != nil {
		return fmt.Errorf("load words: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pos, content int
		var e frequency.Entry
		if err := rows.Scan(&pos, &content, &e.Token, &e.Count); err != nil {
			return fmt.Errorf("scan word: %w", err)
		}
		i, ok := byPos[pos]
		if !ok {
			continue
		}
		if content == 1 {
			out[i].ContentWords = append(out[i].ContentWords, e)
		} else {
			out[i].TopWords = append(out[i].TopWords, e)
		}
	}
	return rows.Err()
}

// LoadFailures returns the failures of a run in input order.
func (s *SQLiteStore) LoadFailures(runID int64) ([]FailureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT position, document_id, error FROM failures WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []FailureRecord{}
	for rows.Next() {
		var f FailureRecord
		if err := rows.Scan(&f.Index, &f.DocumentID, &f.Error); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// =============================================================================
// Similarity (sqlite-vec)
// =============================================================================

// SimilarDocuments ranks the other documents of a run by cosine distance
// between speech profiles, closest first. Documents without quoted speech
// have no profile and are never returned.
func (s *SQLiteStore) SimilarDocuments(runID int64, documentID string, limit int) ([]Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.Query(`
		SELECT b.document_id, vec_distance_cosine(a.profile, b.profile) AS distance
		FROM document_rows a
		JOIN document_rows b ON b.run_id = a.run_id AND b.position != a.position
		WHERE a.run_id = ? AND a.document_id = ?
			AND a.profile IS NOT NULL AND b.profile IS NOT NULL
		ORDER BY distance ASC, b.position ASC
		LIMIT ?
	`, runID, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("similar documents: %w", err)
	}
	defer rows.Close()

	out := []Neighbor{}
	for rows.Next() {
		var n Neighbor
		if err := rows.Scan(&n.DocumentID, &n.Distance); err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// =============================================================================
// Helpers
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Compile-time interface check
var _ Storer = (*SQLiteStore)(nil)
