package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vectormem "github.com/bookwyrm-labs/bookwyrm-cli/internal/adapters/driven/vector/memory"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
)

// failingVectorIndex fails both read operations.
type failingVectorIndex struct{}

func (f *failingVectorIndex) Upsert(_ context.Context, _ domain.Chunk, _ []float32) error {
	return nil
}

func (f *failingVectorIndex) Search(_ context.Context, _ []float32, _ int, _ driven.ChunkFilter) ([]driven.VectorHit, error) {
	return nil, assert.AnError
}

func (f *failingVectorIndex) Fetch(_ context.Context, _ driven.ChunkFilter) ([]domain.Chunk, error) {
	return nil, assert.AnError
}

func (f *failingVectorIndex) Close() error {
	return nil
}

// seedIndex stores three chunks with hand-placed embeddings so dense and
// sparse rankings are predictable.
func seedIndex(t *testing.T) *vectormem.VectorIndex {
	t.Helper()
	index := vectormem.NewVectorIndex()
	ctx := context.Background()

	chunks := []struct {
		chunk     domain.Chunk
		embedding []float32
	}{
		{domain.Chunk{ID: "a", BookID: "book-1", ChapterNumber: 1,
			Text: "The dragon attacked the keep at dawn."}, []float32{1, 0}},
		{domain.Chunk{ID: "b", BookID: "book-1", ChapterNumber: 2,
			Text: "A quiet morning unfolded in the village."}, []float32{0, 1}},
		{domain.Chunk{ID: "c", BookID: "book-1", ChapterNumber: 3,
			Text: "The dragon slept beneath the mountain."}, []float32{0.7, 0.7}},
		{domain.Chunk{ID: "other", BookID: "book-2", ChapterNumber: 1,
			Text: "The dragon from another book entirely."}, []float32{1, 0}},
	}
	for _, c := range chunks {
		require.NoError(t, index.Upsert(ctx, c.chunk, c.embedding))
	}
	return index
}

func TestHybridRetriever_Retrieve_FusesBothStrategies(t *testing.T) {
	index := seedIndex(t)
	embedder := &mockEmbedder{vector: []float32{1, 0}}
	retriever := NewHybridRetriever(index, embedder)

	results, err := retriever.Retrieve(context.Background(), "book-1", "dragon keep", 3)
	require.NoError(t, err)

	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 3)

	// Chunk "a" tops both rankings, so it must top the fusion.
	assert.Equal(t, "a", results[0].Chunk.ID)
	for i, r := range results {
		assert.Equal(t, "fused", r.Origin)
		assert.NotEqual(t, "other", r.Chunk.ID, "results must stay in the book's scope")
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Score, r.Score, "scores must be descending")
		}
	}
}

func TestHybridRetriever_Retrieve_Deterministic(t *testing.T) {
	index := seedIndex(t)
	embedder := &mockEmbedder{vector: []float32{1, 0}}
	retriever := NewHybridRetriever(index, embedder)

	first, err := retriever.Retrieve(context.Background(), "book-1", "dragon", 3)
	require.NoError(t, err)
	second, err := retriever.Retrieve(context.Background(), "book-1", "dragon", 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHybridRetriever_Retrieve_DegradesToSparse(t *testing.T) {
	index := seedIndex(t)
	embedder := &mockEmbedder{embedErr: assert.AnError}
	retriever := NewHybridRetriever(index, embedder)

	results, err := retriever.Retrieve(context.Background(), "book-1", "dragon", 3)
	require.NoError(t, err)

	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "sparse", r.Origin)
	}
}

func TestHybridRetriever_Retrieve_DegradesToSparseWithoutEmbedder(t *testing.T) {
	index := seedIndex(t)
	retriever := NewHybridRetriever(index, nil)

	results, err := retriever.Retrieve(context.Background(), "book-1", "dragon", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "sparse", results[0].Origin)
}

func TestHybridRetriever_Retrieve_FailsWhenBothLegsFail(t *testing.T) {
	retriever := NewHybridRetriever(&failingVectorIndex{}, &mockEmbedder{vector: []float32{1, 0}})

	_, err := retriever.Retrieve(context.Background(), "book-1", "dragon", 3)
	assert.Error(t, err)
}

func TestHybridRetriever_Retrieve_NoVectorIndex(t *testing.T) {
	retriever := NewHybridRetriever(nil, &mockEmbedder{vector: []float32{1, 0}})

	_, err := retriever.Retrieve(context.Background(), "book-1", "dragon", 3)
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
}

func TestFuse_WeightsAndNormalisation(t *testing.T) {
	dense := []domain.ScoredChunk{
		{Chunk: domain.Chunk{ID: "a"}, Score: 1.0},
		{Chunk: domain.Chunk{ID: "b"}, Score: 0.5},
	}
	sparse := []domain.ScoredChunk{
		{Chunk: domain.Chunk{ID: "b"}, Score: 2.0},
		{Chunk: domain.Chunk{ID: "c"}, Score: 1.0},
	}

	fused := fuse(dense, sparse, 10)

	require.Len(t, fused, 3)

	// Per-list max normalisation, then 0.6 dense + 0.4 sparse:
	// a = 0.6*1.0 = 0.6, b = 0.6*0.5 + 0.4*1.0 = 0.7, c = 0.4*0.5 = 0.2.
	assert.Equal(t, "b", fused[0].Chunk.ID)
	assert.InDelta(t, 0.7, fused[0].Score, 1e-9)
	assert.Equal(t, "a", fused[1].Chunk.ID)
	assert.InDelta(t, 0.6, fused[1].Score, 1e-9)
	assert.Equal(t, "c", fused[2].Chunk.ID)
	assert.InDelta(t, 0.2, fused[2].Score, 1e-9)
}

func TestFuse_ClipsToK(t *testing.T) {
	dense := []domain.ScoredChunk{
		{Chunk: domain.Chunk{ID: "a"}, Score: 1.0},
		{Chunk: domain.Chunk{ID: "b"}, Score: 0.9},
		{Chunk: domain.Chunk{ID: "c"}, Score: 0.8},
	}

	fused := fuse(dense, nil, 2)
	assert.Len(t, fused, 2)
}

func TestFuse_EmptyInputs(t *testing.T) {
	assert.Empty(t, fuse(nil, nil, 5))
}
