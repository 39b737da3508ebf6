package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/adapters/driven/storage/memory"
	vectormem "github.com/bookwyrm-labs/bookwyrm-cli/internal/adapters/driven/vector/memory"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
)

func TestIndexerService_IndexBook_Success(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 3)
	index := vectormem.NewVectorIndex()
	embedder := &mockEmbedder{vector: []float32{0.1, 0.2, 0.3}}

	svc := NewIndexerService(store, index, embedder)

	ctx := context.Background()
	require.NoError(t, svc.IndexBook(ctx, book.ID))

	chunks, err := index.Fetch(ctx, driven.ChunkFilter{BookID: book.ID})
	require.NoError(t, err)

	// Each seeded chapter is well under one chunk window.
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Equal(t, book.ID, c.BookID)
		assert.NotEmpty(t, c.ID)
		assert.NotEmpty(t, c.Text)
	}
	assert.Equal(t, 1, chunks[0].ChapterNumber)
	assert.Equal(t, 3, chunks[2].ChapterNumber)
}

func TestIndexerService_IndexBook_BookNotFound(t *testing.T) {
	svc := NewIndexerService(memory.NewBookStore(), vectormem.NewVectorIndex(),
		&mockEmbedder{vector: []float32{1}})

	err := svc.IndexBook(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIndexerService_IndexBook_NoVectorIndex(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 1)
	svc := NewIndexerService(store, nil, &mockEmbedder{vector: []float32{1}})

	err := svc.IndexBook(context.Background(), book.ID)
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
}

func TestIndexerService_IndexBook_NoEmbedder(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 1)
	svc := NewIndexerService(store, vectormem.NewVectorIndex(), nil)

	err := svc.IndexBook(context.Background(), book.ID)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestIndexerService_IndexBook_EmbeddingCountMismatch(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 2)
	embedder := &mockEmbedder{vector: []float32{1}, dropLast: true}
	svc := NewIndexerService(store, vectormem.NewVectorIndex(), embedder)

	err := svc.IndexBook(context.Background(), book.ID)
	assert.ErrorIs(t, err, domain.ErrMalformedOutput)
}
