package services

import (
	"context"
	"fmt"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/chunker"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/logger"
)

// IndexerService cuts a book's chapters into retrieval chunks, embeds
// them and writes them to the embedding index. Writes for one book must
// not run concurrently: a partial write leaves the sparse corpus under-
// or over-representing a chapter for any query that lands in between.
type IndexerService struct {
	bookStore        driven.BookStore
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	splitter         *chunker.Chunker
}

// NewIndexerService creates a new indexer service.
func NewIndexerService(
	bookStore driven.BookStore,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
) *IndexerService {
	return &IndexerService{
		bookStore:        bookStore,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		splitter:         chunker.New(),
	}
}

// IndexBook chunks and embeds every chapter of the book.
func (s *IndexerService) IndexBook(ctx context.Context, bookID string) error {
	logger.Section("Retrieval Indexing")

	if s.vectorIndex == nil {
		return domain.ErrVectorIndexUnavailable
	}
	if s.embeddingService == nil {
		return domain.ErrEmbeddingUnavailable
	}

	_, chapters, err := loadBookWithChapters(ctx, s.bookStore, bookID)
	if err != nil {
		return err
	}

	var chunks []domain.Chunk
	for i := range chapters {
		chunks = append(chunks, s.splitter.SplitChapter(&chapters[i])...)
	}
	logger.Debug("Split %d chapters into %d chunks", len(chapters), len(chunks))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := s.embeddingService.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count %d does not match chunk count %d: %w",
			len(embeddings), len(chunks), domain.ErrMalformedOutput)
	}

	for i, chunk := range chunks {
		if err := s.vectorIndex.Upsert(ctx, chunk, embeddings[i]); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", chunk.ID, err)
		}
	}

	logger.Info("Indexed %d chunks for book %s", len(chunks), bookID)
	return nil
}
