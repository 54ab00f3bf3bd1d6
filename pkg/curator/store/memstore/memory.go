// Package memstore is an in-memory store.Store used by tests and small
// interactive sessions.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/Luvata/data-tooling/pkg/curator/admission"
	"github.com/Luvata/data-tooling/pkg/curator/corpus"
	"github.com/Luvata/data-tooling/pkg/curator/internalerr"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu       sync.RWMutex
	docs     map[uint64]corpus.Document
	urlIndex map[string]uint64
	reports  map[string]admission.Report
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		docs:     make(map[uint64]corpus.Document),
		urlIndex: make(map[string]uint64),
		reports:  make(map[string]admission.Report),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// PutDoc inserts or replaces a document by id.
func (s *Store) PutDoc(ctx context.Context, d corpus.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[d.ID] = copyDoc(d)
	if d.URL != "" {
		s.urlIndex[d.URL] = d.ID
	}
	return nil
}

// GetDoc returns a document by id.
func (s *Store) GetDoc(ctx context.Context, id uint64) (corpus.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if doc, ok := s.docs[id]; ok {
		return copyDoc(doc), nil
	}
	return corpus.Document{}, internalerr.ErrNotFound
}

// GetDocByURL returns a document by URL.
func (s *Store) GetDocByURL(ctx context.Context, url string) (corpus.Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.urlIndex[url]; ok {
		if doc, exists := s.docs[id]; exists {
			return copyDoc(doc), true, nil
		}
	}
	return corpus.Document{}, false, nil
}

// ListDocs returns documents in id order.
func (s *Store) ListDocs(ctx context.Context, limit int) ([]corpus.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint64, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	out := make([]corpus.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyDoc(s.docs[id]))
	}
	return out, nil
}

// CountDocs returns the number of stored documents.
func (s *Store) CountDocs(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.docs)), nil
}

// PutReport stores a filtering report by its id.
func (s *Store) PutReport(ctx context.Context, r admission.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = r
	return nil
}

// GetReport returns a stored report.
func (s *Store) GetReport(ctx context.Context, id string) (admission.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.reports[id]; ok {
		return r, nil
	}
	return admission.Report{}, internalerr.ErrNotFound
}

func copyDoc(d corpus.Document) corpus.Document {
	out := d
	out.ExternalURLs = append([]string(nil), d.ExternalURLs...)
	out.ExternalIDs = append([]uint64(nil), d.ExternalIDs...)
	out.Metrics = d.Metrics.Clone()
	return out
}
