package driving

import "context"

// AnalysisPipeline runs the ingestion-time analysis pass for one book:
// the running summary, the character roster, per-chapter event
// segmentation, relationship extraction, metadata inference and
// retrieval indexing. Stages consume chapters strictly in ascending
// order; a failure aborts the whole pass rather than persisting
// inconsistent artifacts.
type AnalysisPipeline interface {
	// Analyze runs every stage for the book.
	Analyze(ctx context.Context, bookID string) error
}
