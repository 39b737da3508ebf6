package driven

import (
	"context"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
)

// VectorIndex is the embedding index: it stores (vector, text, metadata)
// triples and answers similarity queries. Writes are append-only from the
// core's perspective; concurrent writers to one book's chunk set must be
// serialized by the caller.
type VectorIndex interface {
	// Upsert adds one chunk with its embedding.
	Upsert(ctx context.Context, chunk domain.Chunk, embedding []float32) error

	// Search finds up to k nearest chunks to the query vector among those
	// matching the filter.
	Search(ctx context.Context, query []float32, k int, filter ChunkFilter) ([]VectorHit, error)

	// Fetch returns every stored chunk matching the filter, used to build
	// the sparse corpus for one query.
	Fetch(ctx context.Context, filter ChunkFilter) ([]domain.Chunk, error)

	// Close releases resources.
	Close() error
}

// ChunkFilter is an equality filter over chunk metadata.
type ChunkFilter struct {
	// BookID restricts results to one book. Empty matches everything.
	BookID string
}

// Matches reports whether the chunk satisfies the filter.
func (f ChunkFilter) Matches(c domain.Chunk) bool {
	return f.BookID == "" || c.BookID == f.BookID
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Chunk is the matched chunk.
	Chunk domain.Chunk

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
