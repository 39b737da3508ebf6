package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/logger"
)

// defaultSummariseChapterPrompt is the fallback prompt when no PromptStore is configured.
// The single placeholder is the book title.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultSummariseChapterPrompt = `You are summarizing the book '%s' chapter by chapter. You will receive a running summary of the previous chapters and the full text of the current chapter. Write a short 5 line summary of the current chapter that follows smoothly from the previous one. Do not repeat old summaries. Mention the chapter number before summarizing. Most importantly, summarise the events from the chapter with the greatest importance to the story.`

// SummaryService maintains the running chapter-by-chapter digest of a
// book. The fold is strictly sequential: each chapter's digest is
// conditioned on the entire prior summary, because narrative causality
// in long-form fiction is non-local and a window of recent chapters is
// not enough context.
type SummaryService struct {
	bookStore   driven.BookStore
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// NewSummaryService creates a new summary service.
func NewSummaryService(bookStore driven.BookStore, llm driven.LLMService) *SummaryService {
	return &SummaryService{
		bookStore: bookStore,
		llm:       llm,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *SummaryService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// BuildSummary folds over the book's chapters in ascending order and
// returns the finished running summary. The first chapter is skipped:
// there is no prior narrative to digest it against. On a model failure
// the partial summary accumulated so far is returned alongside the
// error; the fold does not resume.
func (s *SummaryService) BuildSummary(ctx context.Context, bookID string) (string, error) {
	logger.Section("Summary Fold")

	book, chapters, err := loadBookWithChapters(ctx, s.bookStore, bookID)
	if err != nil {
		return "", err
	}

	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	running := ""
	for i := range chapters {
		if i == 0 {
			logger.Debug("Skipping chapter %d: nothing to digest against", chapters[i].Number)
			continue
		}

		digest, err := s.ExtendSummary(ctx, book.Title, running, chapters[i].PlainText())
		if err != nil {
			return running, fmt.Errorf("digest chapter %d: %w", chapters[i].Number, err)
		}

		running = appendDigest(running, digest)
		logger.Debug("Chapter %d digested: summary now %d chars", chapters[i].Number, len(running))
	}

	book.Summary = running
	if err := s.bookStore.SaveBook(ctx, book); err != nil {
		return running, fmt.Errorf("save summary: %w", err)
	}

	logger.Info("Summary fold complete: %d chapters, %d chars", len(chapters), len(running))
	return running, nil
}

// ExtendSummary produces the digest of one chapter given the full prior
// running summary, without appending it.
func (s *SummaryService) ExtendSummary(ctx context.Context, title, running, chapterText string) (string, error) {
	template := loadPrompt(s.promptStore, driven.PromptSummariseChapter, defaultSummariseChapterPrompt)

	messages := []driven.ChatMessage{
		{Role: "system", Content: fmt.Sprintf(template, title)},
		{Role: "user", Content: fmt.Sprintf(
			"SUMMARY OF PREVIOUS CHAPTERS:\n%s\n\nCURRENT CHAPTER TEXT:\n%s\n\nSUMMARY OF NEW CHAPTER:",
			running, chapterText)},
	}

	digest, err := s.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: 0.3})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrOracleFailure, err)
	}

	return strings.TrimSpace(digest), nil
}

// appendDigest appends one chapter digest to the running summary with a
// blank-line separator, keeping the summary splittable into per-chapter
// paragraph groups.
func appendDigest(running, digest string) string {
	if running == "" {
		return digest
	}
	return running + "\n\n" + digest
}

// loadBookWithChapters fetches a book and its ordered chapters, mapping
// missing entities to ErrNotFound before any model call is made.
func loadBookWithChapters(
	ctx context.Context, store driven.BookStore, bookID string,
) (*domain.Book, []domain.Chapter, error) {
	book, err := store.GetBook(ctx, bookID)
	if err != nil {
		return nil, nil, fmt.Errorf("get book %s: %w", bookID, err)
	}

	chapters, err := store.ListChapters(ctx, bookID)
	if err != nil {
		return nil, nil, fmt.Errorf("list chapters for %s: %w", bookID, err)
	}
	if len(chapters) == 0 {
		return nil, nil, fmt.Errorf("book %s has no chapters: %w", bookID, domain.ErrNotFound)
	}

	return book, chapters, nil
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func loadPrompt(store driven.PromptStore, name, fallback string) string {
	if store == nil {
		return fallback
	}
	prompt, err := store.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}
