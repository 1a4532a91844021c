// Package docstore keeps the documents of a corpus in memory.
// Books are hydrated once from disk, then kept current by the watcher.
package docstore

import (
	"sort"
	"sync"
)

// Store holds corpus documents in memory.
// Thread-safe for concurrent access from the watcher and the runner.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// Document is one book of the corpus.
type Document struct {
	ID        string // File stem
	Text      string // Plain text content
	PageCount *int   // nil when unknown
	Err       error  // Ingestion failure, if any
	Version   int64  // For change detection
}

// New creates an empty document store.
func New() *Store {
	return &Store{
		docs: make(map[string]*Document),
	}
}

// Hydrate bulk-loads documents into the store.
func (s *Store) Hydrate(docs []Document) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range docs {
		doc := docs[i]
		s.docs[doc.ID] = &doc
	}
	return len(docs)
}

// Upsert adds or updates a single document. A document whose version is
// older than the stored one is ignored; the return value reports whether the
// store changed.
func (s *Store) Upsert(doc Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.docs[doc.ID]; ok && cur.Version > doc.Version {
		return false
	}
	s.docs[doc.ID] = &doc
	return true
}

// Remove deletes a document from the store.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return false
	}
	delete(s.docs, id)
	return true
}

// Get retrieves a copy of a document by ID.
func (s *Store) Get(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return Document{}, false
	}
	return *doc, true
}

// Count returns the number of documents in the store.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.docs)
}

// Documents returns a snapshot of every document, ordered by ID.
func (s *Store) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, *doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clear removes all documents.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = make(map[string]*Document)
}
