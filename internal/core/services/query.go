package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driving"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// defaultAnswerSystemPrompt is the fallback prompt when no PromptStore is configured.
// The single placeholder is the retrieved context block.
const defaultAnswerSystemPrompt = `You are a helpful assistant helping a human understand a book's content. Your response should only be what was asked. Use the following context in your response:

%s`

// retrievalK is how many fused chunks ground one answer.
const retrievalK = 5

// QueryService answers natural-language questions about one book. Each
// question is independent: retrieval runs, the fused chunks become one
// context block, and a single model call produces the answer. An
// earlier multi-turn design was dropped for cost reasons, so no
// conversation state is carried between calls.
type QueryService struct {
	bookStore   driven.BookStore
	retriever   *HybridRetriever
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// NewQueryService creates a new query service.
func NewQueryService(
	bookStore driven.BookStore,
	retriever *HybridRetriever,
	llm driven.LLMService,
) *QueryService {
	return &QueryService{
		bookStore: bookStore,
		retriever: retriever,
		llm:       llm,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *QueryService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Ask answers the question against the given book's index. A missing
// book surfaces as ErrNotFound before any retrieval or model call; a
// failed answer is an error result, distinct from an empty answer.
func (s *QueryService) Ask(ctx context.Context, bookID, question string) (*domain.Answer, error) {
	logger.Section("Question Answering")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question: %w", domain.ErrInvalidInput)
	}

	if _, err := s.bookStore.GetBook(ctx, bookID); err != nil {
		return nil, fmt.Errorf("get book %s: %w", bookID, err)
	}

	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	sources, err := s.retriever.Retrieve(ctx, bookID, question, retrievalK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	logger.Debug("Grounding context: %d chunks", len(sources))

	contextBlock := make([]string, len(sources))
	for i, sc := range sources {
		contextBlock[i] = sc.Chunk.Text
	}

	template := loadPrompt(s.promptStore, driven.PromptAnswerSystem, defaultAnswerSystemPrompt)

	messages := []driven.ChatMessage{
		{Role: "system", Content: fmt.Sprintf(template, strings.Join(contextBlock, "\n\n"))},
		{Role: "user", Content: question},
	}

	text, err := s.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: 0.3})
	if err != nil {
		return nil, fmt.Errorf("answer question: %w: %w", domain.ErrOracleFailure, err)
	}

	return &domain.Answer{Text: text, Sources: sources}, nil
}
