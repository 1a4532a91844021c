// Package ingest loads plain-text books and their page counts from disk.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/kittclouds/talestat/pkg/docstore"
)

// Extension is the file extension of corpus books.
const Extension = ".txt"

// DocumentID derives a document id from a path: the file name without its
// extension.
func DocumentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadDir reads every .txt file of dir, sorted by name. A file that cannot be
// read still yields a Document carrying the error, so the run can report it.
// Only a missing or unreadable directory is an error.
func LoadDir(dir string, pageCounts map[string]int) ([]docstore.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Extension {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	docs := make([]docstore.Document, 0, len(names))
	for _, name := range names {
		docs = append(docs, LoadFile(filepath.Join(dir, name), pageCounts))
	}
	return docs, nil
}

// LoadFile reads one book. Invalid UTF-8 is replaced, not rejected.
func LoadFile(path string, pageCounts map[string]int) docstore.Document {
	doc := docstore.Document{ID: DocumentID(path)}
	if n, ok := pageCounts[doc.ID]; ok {
		doc.PageCount = &n
	}

	info, err := os.Stat(path)
	if err != nil {
		doc.Err = fmt.Errorf("stat %s: %w", path, err)
		return doc
	}
	doc.Version = info.ModTime().UnixNano()

	data, err := os.ReadFile(path)
	if err != nil {
		doc.Err = fmt.Errorf("read %s: %w", path, err)
		return doc
	}

	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	doc.Text = text
	return doc
}

// LoadPageCounts reads a map of document id to page count from a JSON or
// YAML file, chosen by extension.
func LoadPageCounts(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page counts: %w", err)
	}

	counts := make(map[string]int)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &counts)
	default:
		err = json.Unmarshal(data, &counts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse page counts %s: %w", path, err)
	}

	for id, n := range counts {
		if n < 0 {
			return nil, fmt.Errorf("page count for %q is negative: %d", id, n)
		}
	}
	return counts, nil
}
