package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/adapters/driven/storage/memory"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
)

func TestQueryService_Ask_Success(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 2)

	index := seedIndex(t)
	embedder := &mockEmbedder{vector: []float32{1, 0}}
	retriever := NewHybridRetriever(index, embedder)

	llm := &mockLLM{chatReplies: []string{"The dragon attacked at dawn."}}
	svc := NewQueryService(store, retriever, llm)

	answer, err := svc.Ask(context.Background(), book.ID, "What did the dragon do?")
	require.NoError(t, err)

	assert.Equal(t, "The dragon attacked at dawn.", answer.Text)
	assert.NotEmpty(t, answer.Sources)

	// The retrieved chunk text must reach the model as context.
	require.Len(t, llm.chatCalls, 1)
	assert.Contains(t, llm.chatCalls[0][0].Content, answer.Sources[0].Chunk.Text)
	assert.Equal(t, "What did the dragon do?", llm.chatCalls[0][1].Content)
}

func TestQueryService_Ask_EmptyQuestion(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 1)
	svc := NewQueryService(store, NewHybridRetriever(seedIndex(t), &mockEmbedder{vector: []float32{1, 0}}), &mockLLM{})

	_, err := svc.Ask(context.Background(), book.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQueryService_Ask_BookNotFound(t *testing.T) {
	store := memory.NewBookStore()
	svc := NewQueryService(store, NewHybridRetriever(seedIndex(t), &mockEmbedder{vector: []float32{1, 0}}), &mockLLM{})

	_, err := svc.Ask(context.Background(), "missing", "question?")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQueryService_Ask_NoLLM(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 1)
	svc := NewQueryService(store, NewHybridRetriever(seedIndex(t), &mockEmbedder{vector: []float32{1, 0}}), nil)

	_, err := svc.Ask(context.Background(), book.ID, "question?")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestQueryService_Ask_AnswerFailureIsError(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 1)

	llm := &mockLLM{chatErr: assert.AnError}
	svc := NewQueryService(store, NewHybridRetriever(seedIndex(t), &mockEmbedder{vector: []float32{1, 0}}), llm)

	_, err := svc.Ask(context.Background(), book.ID, "question?")
	assert.ErrorIs(t, err, domain.ErrOracleFailure)
}

func TestQueryService_Ask_QuestionsAreIndependent(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 1)

	llm := &mockLLM{chatReplies: []string{"first answer", "second answer"}}
	svc := NewQueryService(store, NewHybridRetriever(seedIndex(t), &mockEmbedder{vector: []float32{1, 0}}), llm)

	ctx := context.Background()
	_, err := svc.Ask(ctx, book.ID, "first question?")
	require.NoError(t, err)
	_, err = svc.Ask(ctx, book.ID, "second question?")
	require.NoError(t, err)

	// No conversation state: each call carries exactly system + question.
	require.Len(t, llm.chatCalls, 2)
	assert.Len(t, llm.chatCalls[1], 2)
	assert.NotContains(t, llm.chatCalls[1][1].Content, "first question")
}
