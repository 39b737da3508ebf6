package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/adapters/driven/storage/memory"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
)

// rosterReply builds a structured finalize reply.
func rosterReply(t *testing.T, characters []rosterEntryPayload) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(rosterPayload{Characters: characters})
	require.NoError(t, err)
	return data
}

func TestRosterService_BuildRoster_SkipsFirstChapter(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 3)
	llm := &mockLLM{chatReplies: []string{"roster after chapter 2", "roster after chapter 3"}}
	svc := NewRosterService(store, llm)

	roster, err := svc.BuildRoster(context.Background(), book.ID)
	require.NoError(t, err)

	assert.Equal(t, "roster after chapter 3", roster)
	require.Len(t, llm.chatCalls, 2, "chapter 1 must not update the roster")
}

func TestRosterService_BuildRoster_PassesPriorStateVerbatim(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 3)
	llm := &mockLLM{chatReplies: []string{"STATE AFTER TWO", "final"}}
	svc := NewRosterService(store, llm)

	_, err := svc.BuildRoster(context.Background(), book.ID)
	require.NoError(t, err)

	// The second step sees the first step's reply as its prior roster.
	require.Len(t, llm.chatCalls, 2)
	assert.Contains(t, llm.chatCalls[1][1].Content, "STATE AFTER TWO")
}

func TestRosterService_BuildRoster_MentionsCapacity(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 2)
	llm := &mockLLM{chatReplies: []string{"roster"}}
	svc := NewRosterService(store, llm)

	_, err := svc.BuildRoster(context.Background(), book.ID)
	require.NoError(t, err)

	require.NotEmpty(t, llm.chatCalls)
	assert.Contains(t, llm.chatCalls[0][0].Content, fmt.Sprintf("at most %d characters", RosterCapacity))
}

func TestRosterService_Finalize_Success(t *testing.T) {
	store := memory.NewBookStore()
	llm := &mockLLM{structuredReplies: []json.RawMessage{
		rosterReply(t, []rosterEntryPayload{
			{Name: "Mara", Role: "protagonist", Age: "34", ChaptersAppeared: []int{2, 3}, Confidence: 0.9},
			{Name: "The Warden", Role: "antagonist", Confidence: 0.7},
		}),
	}}
	svc := NewRosterService(store, llm)

	characters, err := svc.Finalize(context.Background(), "book-1", "roster text")
	require.NoError(t, err)

	require.Len(t, characters, 2)
	assert.Equal(t, "Mara", characters[0].Name)
	assert.Equal(t, domain.RoleProtagonist, characters[0].Role)
	assert.Equal(t, "book-1", characters[0].BookID)
	assert.Equal(t, []int{2, 3}, characters[0].ChaptersAppeared)
	assert.Equal(t, domain.RoleAntagonist, characters[1].Role)
}

func TestRosterService_Finalize_TruncatesToCapacity(t *testing.T) {
	entries := make([]rosterEntryPayload, RosterCapacity+2)
	for i := range entries {
		entries[i] = rosterEntryPayload{Name: fmt.Sprintf("Character %d", i+1), Role: "supporting character"}
	}

	llm := &mockLLM{structuredReplies: []json.RawMessage{rosterReply(t, entries)}}
	svc := NewRosterService(memory.NewBookStore(), llm)

	characters, err := svc.Finalize(context.Background(), "book-1", "roster text")
	require.NoError(t, err)

	assert.Len(t, characters, RosterCapacity)
}

func TestRosterService_Finalize_UnknownRoleFallsBack(t *testing.T) {
	llm := &mockLLM{structuredReplies: []json.RawMessage{
		rosterReply(t, []rosterEntryPayload{
			{Name: "Mara", Role: "sidekick"},
		}),
	}}
	svc := NewRosterService(memory.NewBookStore(), llm)

	characters, err := svc.Finalize(context.Background(), "book-1", "roster text")
	require.NoError(t, err)

	require.Len(t, characters, 1)
	assert.Equal(t, domain.RoleSupporting, characters[0].Role)
}

func TestRosterService_Finalize_NoLLM(t *testing.T) {
	svc := NewRosterService(memory.NewBookStore(), nil)

	_, err := svc.Finalize(context.Background(), "book-1", "roster text")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestRosterService_Finalize_MalformedReply(t *testing.T) {
	llm := &mockLLM{structuredReplies: []json.RawMessage{json.RawMessage(`{"characters": 7}`)}}
	svc := NewRosterService(memory.NewBookStore(), llm)

	_, err := svc.Finalize(context.Background(), "book-1", "roster text")
	assert.ErrorIs(t, err, domain.ErrMalformedOutput)
}

func TestRosterService_ExtractCharacters_Persists(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 2)

	llm := &mockLLM{
		chatReplies: []string{"roster text"},
		structuredReplies: []json.RawMessage{
			rosterReply(t, []rosterEntryPayload{
				{Name: "Mara", Role: "protagonist", Confidence: 0.95},
			}),
		},
	}
	svc := NewRosterService(store, llm)

	ctx := context.Background()
	characters, err := svc.ExtractCharacters(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, characters, 1)

	stored, err := store.ListCharacters(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Mara", stored[0].Name)
}
