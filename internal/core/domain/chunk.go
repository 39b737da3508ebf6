package domain

// Chunk is a derived retrieval unit: a window of a chapter's plain text
// plus the metadata needed to scope and locate it. Chunks are never the
// source of truth; they are regenerable from chapters at any time.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// BookID scopes the chunk to one book.
	BookID string

	// ChapterNumber is the chapter the window was cut from.
	ChapterNumber int

	// Offset is the window's byte offset within the chapter's plain text.
	Offset int

	// Text is the window content.
	Text string
}

// ScoredChunk is a chunk paired with a retrieval score.
type ScoredChunk struct {
	Chunk Chunk

	// Score is the strategy-specific or fused relevance score.
	Score float64

	// Origin names the strategy that produced the score:
	// "dense", "sparse" or "fused".
	Origin string
}

// Answer is the query agent's response to one question.
type Answer struct {
	// Text is the model's literal response.
	Text string

	// Sources are the fused chunks used as grounding context,
	// in fusion rank order.
	Sources []ScoredChunk
}
