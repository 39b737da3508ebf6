package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/logger"
)

// Fusion weights for the two retrieval strategies.
const (
	denseWeight  = 0.6
	sparseWeight = 0.4
)

// HybridRetriever answers one query with two parallel strategies over
// the same scope: nearest-neighbour search in the embedding index and a
// BM25 ranking built fresh per call from the book's full chunk set. The
// two ranked lists are fused by weighted score.
type HybridRetriever struct {
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
}

// NewHybridRetriever creates a new hybrid retriever.
func NewHybridRetriever(
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
) *HybridRetriever {
	return &HybridRetriever{
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
	}
}

// Retrieve returns the top k chunks for the query within one book's
// scope, ranked by fused score. The dense and sparse legs have no data
// dependency and run concurrently; their results are joined before
// fusion. The output is deterministic for a fixed chunk set, query and k.
func (r *HybridRetriever) Retrieve(
	ctx context.Context, bookID, query string, k int,
) ([]domain.ScoredChunk, error) {
	if r.vectorIndex == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	logger.Debug("Hybrid retrieval: book=%s, k=%d, query=%q", bookID, k, query)
	filter := driven.ChunkFilter{BookID: bookID}

	var denseResults, sparseResults []domain.ScoredChunk
	var denseErr, sparseErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		denseResults, denseErr = r.denseSearch(ctx, query, k, filter)
	}()

	go func() {
		defer wg.Done()
		sparseResults, sparseErr = r.sparseSearch(ctx, query, k, filter)
	}()

	wg.Wait()

	// Degrade to one leg if the other fails; fail only when both do.
	if denseErr != nil && sparseErr != nil {
		return nil, fmt.Errorf("hybrid retrieval: dense=%w, sparse=%w", denseErr, sparseErr)
	}
	if denseErr != nil {
		logger.Warn("Dense retrieval failed, using sparse results only: %v", denseErr)
		return clip(sparseResults, k), nil
	}
	if sparseErr != nil {
		logger.Warn("Sparse retrieval failed, using dense results only: %v", sparseErr)
		return clip(denseResults, k), nil
	}

	logger.Debug("Fusing %d dense + %d sparse results", len(denseResults), len(sparseResults))
	return fuse(denseResults, sparseResults, k), nil
}

// denseSearch embeds the query and runs nearest-neighbour search.
func (r *HybridRetriever) denseSearch(
	ctx context.Context, query string, k int, filter driven.ChunkFilter,
) ([]domain.ScoredChunk, error) {
	if r.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	embedding, err := r.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.vectorIndex.Search(ctx, embedding, k, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]domain.ScoredChunk, len(hits))
	for i, hit := range hits {
		results[i] = domain.ScoredChunk{Chunk: hit.Chunk, Score: hit.Similarity, Origin: "dense"}
	}
	return results, nil
}

// sparseSearch pulls the book's full chunk set and ranks it with a BM25
// index built for this call only.
func (r *HybridRetriever) sparseSearch(
	ctx context.Context, query string, k int, filter driven.ChunkFilter,
) ([]domain.ScoredChunk, error) {
	corpus, err := r.vectorIndex.Fetch(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("fetch corpus: %w", err)
	}
	logger.Debug("Sparse corpus: %d chunks", len(corpus))

	return newBM25Index(corpus).Rank(query, k), nil
}

// fuse combines the two ranked lists by weighted linear score. Each
// list's scores are normalised to [0,1] against its own maximum so BM25
// magnitudes and cosine similarities are comparable, then summed with
// the fixed weights. Discovery order is dense then sparse, and the sort
// is stable, so ties resolve deterministically.
func fuse(dense, sparse []domain.ScoredChunk, k int) []domain.ScoredChunk {
	type fusedEntry struct {
		chunk domain.Chunk
		score float64
	}

	order := make([]string, 0, len(dense)+len(sparse))
	entries := make(map[string]*fusedEntry, len(dense)+len(sparse))

	accumulate := func(results []domain.ScoredChunk, weight float64) {
		max := 0.0
		for _, r := range results {
			if r.Score > max {
				max = r.Score
			}
		}
		if max == 0 {
			return
		}
		for _, r := range results {
			e, ok := entries[r.Chunk.ID]
			if !ok {
				e = &fusedEntry{chunk: r.Chunk}
				entries[r.Chunk.ID] = e
				order = append(order, r.Chunk.ID)
			}
			e.score += weight * (r.Score / max)
		}
	}

	accumulate(dense, denseWeight)
	accumulate(sparse, sparseWeight)

	fused := make([]domain.ScoredChunk, 0, len(order))
	for _, id := range order {
		e := entries[id]
		fused = append(fused, domain.ScoredChunk{Chunk: e.chunk, Score: e.score, Origin: "fused"})
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	return clip(fused, k)
}

func clip(results []domain.ScoredChunk, k int) []domain.ScoredChunk {
	if len(results) > k {
		return results[:k]
	}
	return results
}
