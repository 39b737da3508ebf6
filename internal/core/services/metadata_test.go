package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/adapters/driven/storage/memory"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
)

func metadataReply(t *testing.T, payload metadataPayload) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return data
}

func TestMetadataService_InferMetadata_Success(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 3)
	book.Summary = "Chapter 2 digest.\n\nChapter 3 digest."
	ctx := context.Background()
	require.NoError(t, store.SaveBook(ctx, book))

	llm := &mockLLM{structuredReplies: []json.RawMessage{
		metadataReply(t, metadataPayload{
			Genres:     []string{"fantasy", "adventure"},
			TimePeriod: "medieval",
			Setting:    "a harbour town",
			Synopsis:   "A storm changes everything.",
			Moods:      []string{"neutral", "tense", "dark"},
		}),
	}}
	svc := NewMetadataService(store, llm)

	metadata, err := svc.InferMetadata(ctx, book.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"fantasy", "adventure"}, metadata.Genres)
	assert.Equal(t, "medieval", metadata.TimePeriod)
	assert.Equal(t, "a harbour town", metadata.Setting)
	assert.Equal(t, []domain.ChapterMood{domain.MoodNeutral, domain.MoodTense, domain.MoodDark}, metadata.Moods)

	saved, err := store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	require.NotNil(t, saved.Metadata)
	assert.Equal(t, metadata.Synopsis, saved.Metadata.Synopsis)
}

func TestMetadataService_InferMetadata_WriteOnce(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 2)
	book.Summary = "Chapter 2 digest."
	book.Metadata = &domain.BookMetadata{Synopsis: "Already inferred."}
	ctx := context.Background()
	require.NoError(t, store.SaveBook(ctx, book))

	llm := &mockLLM{}
	svc := NewMetadataService(store, llm)

	metadata, err := svc.InferMetadata(ctx, book.ID)
	require.NoError(t, err)

	assert.Equal(t, "Already inferred.", metadata.Synopsis)
	assert.Empty(t, llm.structuredCalls, "existing metadata must not trigger a model call")
}

func TestMetadataService_InferMetadata_RequiresSummary(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 2)
	svc := NewMetadataService(store, &mockLLM{})

	_, err := svc.InferMetadata(context.Background(), book.ID)
	assert.ErrorIs(t, err, domain.ErrAnalysisIncomplete)
}

func TestMetadataService_InferMetadata_NoLLM(t *testing.T) {
	store := memory.NewBookStore()
	book := seedBook(t, store, 2)
	book.Summary = "Chapter 2 digest."
	require.NoError(t, store.SaveBook(context.Background(), book))

	svc := NewMetadataService(store, nil)

	_, err := svc.InferMetadata(context.Background(), book.ID)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestNormalizeMoods(t *testing.T) {
	tests := []struct {
		name     string
		raw      []string
		chapters int
		want     []domain.ChapterMood
	}{
		{
			name:     "exact fit",
			raw:      []string{"tense", "sad"},
			chapters: 2,
			want:     []domain.ChapterMood{domain.MoodTense, domain.MoodSad},
		},
		{
			name:     "short list padded with neutral",
			raw:      []string{"dark"},
			chapters: 3,
			want:     []domain.ChapterMood{domain.MoodDark, domain.MoodNeutral, domain.MoodNeutral},
		},
		{
			name:     "long list truncated",
			raw:      []string{"dark", "tense", "sad", "hopeful"},
			chapters: 2,
			want:     []domain.ChapterMood{domain.MoodDark, domain.MoodTense},
		},
		{
			name:     "unrecognised mood becomes neutral",
			raw:      []string{"melancholy", "tense"},
			chapters: 2,
			want:     []domain.ChapterMood{domain.MoodNeutral, domain.MoodTense},
		},
		{
			name:     "empty input",
			raw:      nil,
			chapters: 2,
			want:     []domain.ChapterMood{domain.MoodNeutral, domain.MoodNeutral},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeMoods(tt.raw, tt.chapters))
		})
	}
}
