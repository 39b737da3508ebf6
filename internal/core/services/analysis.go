package services

import (
	"context"
	"fmt"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driving"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/logger"
)

// Ensure AnalysisService implements the interface.
var _ driving.AnalysisPipeline = (*AnalysisService)(nil)

// AnalysisService runs the full ingestion-time analysis pass for one
// book. Stages run strictly in sequence because each conditions its
// model calls on the artifacts of the previous ones: the roster and
// metadata read the summary, relationships read summary and roster, and
// scenes later read all of them. A failed stage aborts the pass; stages
// already completed keep their artifacts, but nothing after the failure
// is derived or persisted.
type AnalysisService struct {
	summary       *SummaryService
	roster        *RosterService
	events        *EventService
	relationships *RelationshipService
	metadata      *MetadataService
	indexer       *IndexerService
}

// NewAnalysisService creates the pipeline orchestrator.
func NewAnalysisService(
	summary *SummaryService,
	roster *RosterService,
	events *EventService,
	relationships *RelationshipService,
	metadata *MetadataService,
	indexer *IndexerService,
) *AnalysisService {
	return &AnalysisService{
		summary:       summary,
		roster:        roster,
		events:        events,
		relationships: relationships,
		metadata:      metadata,
		indexer:       indexer,
	}
}

// Analyze runs every stage for the book. Different books may be
// analyzed in parallel; one book's pass must not be.
func (s *AnalysisService) Analyze(ctx context.Context, bookID string) error {
	logger.Section("Analysis Pipeline")
	logger.Info("Analyzing book %s", bookID)

	if _, err := s.summary.BuildSummary(ctx, bookID); err != nil {
		return fmt.Errorf("summary stage: %w", err)
	}

	if _, err := s.roster.ExtractCharacters(ctx, bookID); err != nil {
		return fmt.Errorf("roster stage: %w", err)
	}

	if err := s.events.SegmentBook(ctx, bookID); err != nil {
		return fmt.Errorf("segmentation stage: %w", err)
	}

	if _, err := s.relationships.ExtractRelationships(ctx, bookID); err != nil {
		return fmt.Errorf("relationship stage: %w", err)
	}

	if _, err := s.metadata.InferMetadata(ctx, bookID); err != nil {
		return fmt.Errorf("metadata stage: %w", err)
	}

	if err := s.indexer.IndexBook(ctx, bookID); err != nil {
		return fmt.Errorf("indexing stage: %w", err)
	}

	logger.Info("Analysis complete for book %s", bookID)
	return nil
}
