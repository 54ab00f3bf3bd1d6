// Package store persists consolidated documents, their computed metrics,
// and filtering reports.
package store

import (
	"context"

	"github.com/Luvata/data-tooling/pkg/curator/admission"
	"github.com/Luvata/data-tooling/pkg/curator/corpus"
)

// Store is the persistence interface for the curation pipeline.
type Store interface {
	Close() error

	// Docs
	PutDoc(ctx context.Context, d corpus.Document) error
	GetDoc(ctx context.Context, id uint64) (corpus.Document, error)
	GetDocByURL(ctx context.Context, url string) (corpus.Document, bool, error)
	ListDocs(ctx context.Context, limit int) ([]corpus.Document, error)
	CountDocs(ctx context.Context) (int64, error)

	// Reports
	PutReport(ctx context.Context, r admission.Report) error
	GetReport(ctx context.Context, id string) (admission.Report, error)
}
