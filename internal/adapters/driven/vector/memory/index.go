// Package memory provides an in-memory vector index with brute-force
// cosine similarity search. Book corpora are small enough (thousands of
// chunks) that a linear scan beats the overhead of an external index.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// entry pairs a chunk with its embedding.
type entry struct {
	chunk     domain.Chunk
	embedding []float32
}

// VectorIndex is an in-memory implementation of driven.VectorIndex.
type VectorIndex struct {
	mu      sync.RWMutex
	entries map[string]entry // keyed by chunk ID
	order   []string         // insertion order, keeps Fetch deterministic
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		entries: make(map[string]entry),
	}
}

// Upsert adds one chunk with its embedding.
func (x *VectorIndex) Upsert(_ context.Context, chunk domain.Chunk, embedding []float32) error {
	if chunk.ID == "" {
		return fmt.Errorf("%w: chunk ID is empty", domain.ErrInvalidInput)
	}
	if len(embedding) == 0 {
		return fmt.Errorf("%w: embedding is empty", domain.ErrInvalidInput)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if _, exists := x.entries[chunk.ID]; !exists {
		x.order = append(x.order, chunk.ID)
	}
	stored := make([]float32, len(embedding))
	copy(stored, embedding)
	x.entries[chunk.ID] = entry{chunk: chunk, embedding: stored}
	return nil
}

// Search finds up to k nearest chunks to the query vector among those
// matching the filter, ordered by descending cosine similarity.
func (x *VectorIndex) Search(_ context.Context, query []float32, k int, filter driven.ChunkFilter) ([]driven.VectorHit, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: query vector is empty", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(x.order))
	for _, id := range x.order {
		e := x.entries[id]
		if !filter.Matches(e.chunk) {
			continue
		}
		if len(e.embedding) != len(query) {
			return nil, fmt.Errorf("%w: dimension mismatch (%d vs %d)",
				domain.ErrVectorIndexUnavailable, len(e.embedding), len(query))
		}
		hits = append(hits, driven.VectorHit{
			Chunk:      e.chunk,
			Similarity: cosineSimilarity(query, e.embedding),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Fetch returns every stored chunk matching the filter in insertion order.
func (x *VectorIndex) Fetch(_ context.Context, filter driven.ChunkFilter) ([]domain.Chunk, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var chunks []domain.Chunk
	for _, id := range x.order {
		e := x.entries[id]
		if filter.Matches(e.chunk) {
			chunks = append(chunks, e.chunk)
		}
	}
	return chunks, nil
}

// Close releases resources.
func (x *VectorIndex) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = make(map[string]entry)
	x.order = nil
	return nil
}

// cosineSimilarity computes the cosine similarity between two equal-length
// vectors. Returns 0 when either vector is all zeros.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
