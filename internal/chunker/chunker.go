// Package chunker provides fixed-size text chunking for retrieval indexing.
package chunker

import (
	"github.com/google/uuid"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Chunker splits chapter text into fixed-size overlapping windows.
// The split is deterministic for a given input: chunks carry their byte
// offset into the chapter's plain text and are always regenerable.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// SplitChapter cuts the chapter's plain text into chunks. Empty chapters
// produce no chunks.
func (c *Chunker) SplitChapter(chapter *domain.Chapter) []domain.Chunk {
	content := chapter.PlainText()
	if content == "" {
		return nil
	}

	contentLen := len(content)
	estimated := (contentLen / (c.chunkSize - c.overlap)) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	start := 0
	for start < contentLen {
		end := start + c.chunkSize
		if end > contentLen {
			end = contentLen
		}

		chunks = append(chunks, domain.Chunk{
			ID:            uuid.New().String(),
			BookID:        chapter.BookID,
			ChapterNumber: chapter.Number,
			Offset:        start,
			Text:          content[start:end],
		})

		// The last window already covers the tail; stepping again would
		// emit a chunk fully contained in this one.
		if end == contentLen {
			break
		}

		start += c.chunkSize - c.overlap

		// Avoid infinite loop for degenerate settings
		if c.chunkSize <= c.overlap {
			break
		}
	}

	return chunks
}
