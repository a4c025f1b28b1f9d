package docstore

import (
	"context"
	"errors"
)

// ErrStoreUnavailable is returned when the vector index has not been built
// or cannot be reached. Callers surface it as a system-not-ready condition.
var ErrStoreUnavailable = errors.New("vector store not available")

// Store abstracts over a persistent vector index of course and program documents.
type Store interface {
	// Index embeds and stores the given documents, replacing the existing
	// index contents. Re-running with identical input yields a functionally
	// equivalent index.
	Index(ctx context.Context, docs []Document) error

	// Search returns up to k nearest documents by embedding similarity,
	// restricted to documents matching every set field of filter.
	// Returns ErrStoreUnavailable if the index has not been built.
	Search(ctx context.Context, query string, k int, filter *Filter) ([]Result, error)

	// Reload re-reads persisted index state without re-embedding.
	Reload(ctx context.Context) error

	// Count returns the total number of indexed documents.
	Count() int
}
