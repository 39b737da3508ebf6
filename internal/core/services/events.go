package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/logger"
)

// defaultSegmentEventsPrompt is the fallback prompt when no PromptStore is configured.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultSegmentEventsPrompt = `You are an expert at analysing and extracting book information. You have been provided the current chapter of a book, which consists of a sequence of paragraphs along with their paragraph numbers. Your task is to analyse and logically process the chapter into a list of one or more events. Split the chapter into events in a way that feels like a natural breakdown of the story. Each event covers a continuous block of paragraphs ending at its last paragraph; the next event starts at the following paragraph. All paragraphs of the chapter must belong to exactly one event with no overlap.`

// eventListSchema constrains the segmentation call to 1-4 events with a
// label, synopsis and span terminator each.
const eventListSchema = `{
	"type": "object",
	"properties": {
		"events": {
			"type": "array",
			"minItems": 1,
			"maxItems": 4,
			"items": {
				"type": "object",
				"properties": {
					"event_label": {"type": "string"},
					"event_summary": {"type": "string"},
					"last_paragraph": {"type": "integer"}
				},
				"required": ["event_label", "event_summary", "last_paragraph"],
				"additionalProperties": false
			}
		}
	},
	"required": ["events"],
	"additionalProperties": false
}`

// eventPayload mirrors one event in the segmentation response.
type eventPayload struct {
	Label         string `json:"event_label"`
	Summary       string `json:"event_summary"`
	LastParagraph int    `json:"last_paragraph"`
}

// eventListPayload is the full segmentation response shape.
type eventListPayload struct {
	Events []eventPayload `json:"events"`
}

// EventService partitions each chapter into contiguous narrative events
// and materializes anchors into the chapter text at span boundaries.
// Chapters are independent: segmentation never looks across chapters.
type EventService struct {
	bookStore   driven.BookStore
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// NewEventService creates a new event segmentation service.
func NewEventService(bookStore driven.BookStore, llm driven.LLMService) *EventService {
	return &EventService{
		bookStore: bookStore,
		llm:       llm,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *EventService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// SegmentBook segments every chapter of the book, replaces each
// chapter's stored events and re-materializes its anchors. Prior
// anchors are cleared before new ones are placed, so re-running
// segmentation leaves exactly one marker set per ordinal.
func (s *EventService) SegmentBook(ctx context.Context, bookID string) error {
	logger.Section("Event Segmentation")

	_, chapters, err := loadBookWithChapters(ctx, s.bookStore, bookID)
	if err != nil {
		return err
	}

	for i := range chapters {
		chapter := &chapters[i]

		events, err := s.SegmentChapter(ctx, chapter)
		if err != nil {
			return fmt.Errorf("segment chapter %d: %w", chapter.Number, err)
		}

		if err := s.bookStore.ReplaceEvents(ctx, bookID, chapter.Number, events); err != nil {
			return fmt.Errorf("save events for chapter %d: %w", chapter.Number, err)
		}

		if err := s.materializeAnchors(ctx, chapter, events); err != nil {
			return fmt.Errorf("anchor chapter %d: %w", chapter.Number, err)
		}

		logger.Info("Chapter %d: %d events", chapter.Number, len(events))
	}

	return nil
}

// SegmentChapter asks the model to partition one chapter's paragraphs
// into 1-4 events and normalizes the result: terminators below 1 are
// dropped with a warning, terminators past the last paragraph are
// clamped to it, and ordinals are renumbered 1..k. The normalized list
// always partitions the chapter exactly.
func (s *EventService) SegmentChapter(ctx context.Context, chapter *domain.Chapter) ([]domain.Event, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	n := len(chapter.Paragraphs)
	if n == 0 {
		return nil, fmt.Errorf("chapter %d has no paragraphs: %w", chapter.Number, domain.ErrInvalidInput)
	}

	template := loadPrompt(s.promptStore, driven.PromptSegmentEvents, defaultSegmentEventsPrompt)

	messages := []driven.ChatMessage{
		{Role: "system", Content: template},
		{Role: "user", Content: "Here is the chapter:\n\n" + chapter.NumberedText()},
	}

	raw, err := s.llm.ChatStructured(ctx, messages, driven.Schema{
		Name:       "event_list",
		Definition: json.RawMessage(eventListSchema),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrOracleFailure, err)
	}

	var payload eventListPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedOutput, err)
	}

	events := s.normalizeEvents(chapter, payload.Events, n)
	if len(events) == 0 {
		return nil, fmt.Errorf("chapter %d: no usable events in model output: %w",
			chapter.Number, domain.ErrMalformedOutput)
	}

	if err := domain.ValidateEvents(events, n); err != nil {
		return nil, fmt.Errorf("chapter %d: %w", chapter.Number, err)
	}

	return events, nil
}

// normalizeEvents applies the local repairs the segmenter is allowed to
// make: drop out-of-range and non-increasing terminators, clamp
// overruns to the paragraph count, stretch the final event to cover the
// chapter, and renumber ordinals.
func (s *EventService) normalizeEvents(
	chapter *domain.Chapter, payload []eventPayload, n int,
) []domain.Event {
	var events []domain.Event
	prev := 0

	for _, p := range payload {
		terminator := p.LastParagraph
		if terminator < 1 {
			logger.Warn("Chapter %d: dropping event %q with terminator %d",
				chapter.Number, p.Label, terminator)
			continue
		}
		if terminator > n {
			logger.Warn("Chapter %d: clamping event %q terminator %d to %d",
				chapter.Number, p.Label, terminator, n)
			terminator = n
		}
		if terminator <= prev {
			logger.Warn("Chapter %d: dropping event %q, terminator %d not after %d",
				chapter.Number, p.Label, terminator, prev)
			continue
		}

		events = append(events, domain.Event{
			BookID:        chapter.BookID,
			ChapterNumber: chapter.Number,
			Number:        len(events) + 1,
			Label:         p.Label,
			Synopsis:      p.Summary,
			LastParagraph: terminator,
		})
		prev = terminator
	}

	// The final event must cover the rest of the chapter.
	if len(events) > 0 && events[len(events)-1].LastParagraph != n {
		logger.Warn("Chapter %d: stretching final event terminator %d to %d",
			chapter.Number, events[len(events)-1].LastParagraph, n)
		events[len(events)-1].LastParagraph = n
	}

	return events
}

// materializeAnchors clears any anchors from a previous run and places
// one anchor per event at its terminator paragraph, then persists the
// chapter. Clearing first makes re-segmentation idempotent.
func (s *EventService) materializeAnchors(
	ctx context.Context, chapter *domain.Chapter, events []domain.Event,
) error {
	chapter.ClearAnchors()

	for _, ev := range events {
		if err := chapter.PlaceAnchor(ev.LastParagraph, ev.Number); err != nil {
			return err
		}
	}

	if err := s.bookStore.SaveChapter(ctx, chapter); err != nil {
		return fmt.Errorf("save chapter: %w", err)
	}
	return nil
}
