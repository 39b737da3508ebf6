package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/logger"
)

// defaultBookMetadataPrompt is the fallback prompt when no PromptStore is configured.
// The single placeholder is the book title.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultBookMetadataPrompt = `You are an expert at analysing and extracting book information. You have been provided the chapter-by-chapter summary of the book '%s'. Each paragraph of the summary corresponds to one book chapter, in chapter order. Your task is to analyse the summary and logically infer book metadata from it, including one mood entry per chapter.`

// bookMetadataSchema constrains the metadata inference call.
const bookMetadataSchema = `{
	"type": "object",
	"properties": {
		"main_genre": {"type": "array", "items": {"type": "string"}},
		"time_period": {"type": "string"},
		"primary_setting": {"type": "string"},
		"synopsis": {"type": "string"},
		"moods": {
			"type": "array",
			"items": {"type": "string", "enum": ["neutral", "hopeful", "tense", "sad", "dark"]}
		}
	},
	"required": ["main_genre", "time_period", "primary_setting", "synopsis", "moods"],
	"additionalProperties": false
}`

// metadataPayload mirrors the metadata inference response.
type metadataPayload struct {
	Genres     []string `json:"main_genre"`
	TimePeriod string   `json:"time_period"`
	Setting    string   `json:"primary_setting"`
	Synopsis   string   `json:"synopsis"`
	Moods      []string `json:"moods"`
}

// MetadataService infers write-once book metadata from the finished
// running summary in a single structured call.
type MetadataService struct {
	bookStore   driven.BookStore
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// NewMetadataService creates a new metadata service.
func NewMetadataService(bookStore driven.BookStore, llm driven.LLMService) *MetadataService {
	return &MetadataService{
		bookStore: bookStore,
		llm:       llm,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *MetadataService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// InferMetadata infers and persists the book's metadata. Metadata is
// write-once: if it is already set, the stored value is returned and no
// model call is made.
func (s *MetadataService) InferMetadata(ctx context.Context, bookID string) (*domain.BookMetadata, error) {
	logger.Section("Metadata Inference")

	book, chapters, err := loadBookWithChapters(ctx, s.bookStore, bookID)
	if err != nil {
		return nil, err
	}

	if book.Metadata != nil {
		logger.Debug("Metadata already inferred for %s", bookID)
		return book.Metadata, nil
	}

	if book.Summary == "" {
		return nil, fmt.Errorf("book %s has no summary: %w", bookID, domain.ErrAnalysisIncomplete)
	}

	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	template := loadPrompt(s.promptStore, driven.PromptBookMetadata, defaultBookMetadataPrompt)

	messages := []driven.ChatMessage{
		{Role: "system", Content: fmt.Sprintf(template, book.Title)},
		{Role: "user", Content: "Here is the book summary:\n\n" + book.Summary},
	}

	raw, err := s.llm.ChatStructured(ctx, messages, driven.Schema{
		Name:       "book_metadata",
		Definition: json.RawMessage(bookMetadataSchema),
	})
	if err != nil {
		return nil, fmt.Errorf("infer metadata: %w: %w", domain.ErrOracleFailure, err)
	}

	var payload metadataPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("infer metadata: %w: %w", domain.ErrMalformedOutput, err)
	}

	metadata := &domain.BookMetadata{
		Genres:     payload.Genres,
		TimePeriod: payload.TimePeriod,
		Setting:    payload.Setting,
		Synopsis:   payload.Synopsis,
		Moods:      normalizeMoods(payload.Moods, len(chapters)),
	}

	book.Metadata = metadata
	if err := s.bookStore.SaveBook(ctx, book); err != nil {
		return nil, fmt.Errorf("save metadata: %w", err)
	}

	logger.Info("Metadata inferred: genres=%v, period=%q, setting=%q",
		metadata.Genres, metadata.TimePeriod, metadata.Setting)
	return metadata, nil
}

// normalizeMoods coerces the mood list to exactly one valid entry per
// chapter: unrecognised moods become neutral, a short list is padded
// with neutral and a long one is truncated.
func normalizeMoods(raw []string, chapters int) []domain.ChapterMood {
	moods := make([]domain.ChapterMood, 0, chapters)
	for _, m := range raw {
		mood := domain.ChapterMood(m)
		if !mood.IsValid() {
			logger.Warn("Unrecognised chapter mood %q, using neutral", m)
			mood = domain.MoodNeutral
		}
		moods = append(moods, mood)
	}

	if len(moods) != chapters {
		logger.Warn("Mood list has %d entries for %d chapters, adjusting", len(moods), chapters)
	}
	for len(moods) < chapters {
		moods = append(moods, domain.MoodNeutral)
	}
	return moods[:chapters]
}
