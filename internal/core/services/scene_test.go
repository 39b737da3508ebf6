package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/adapters/driven/storage/memory"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
)

// seedAnalyzedBook stores a book with one anchored chapter, one event and
// a small roster, the state the scene builder expects after analysis.
func seedAnalyzedBook(t *testing.T, store driven.BookStore) *domain.Book {
	t.Helper()
	ctx := context.Background()

	book := seedBook(t, store, 2)
	book.Summary = "Chapter 2: the storm hits."
	book.Metadata = &domain.BookMetadata{
		Genres:     []string{"fantasy"},
		TimePeriod: "medieval",
		Setting:    "a harbour town",
		Synopsis:   "A storm changes everything.",
		Moods:      []domain.ChapterMood{domain.MoodNeutral, domain.MoodTense},
	}
	require.NoError(t, store.SaveBook(ctx, book))

	chapter, err := store.GetChapter(ctx, book.ID, 2)
	require.NoError(t, err)
	require.NoError(t, chapter.PlaceAnchor(3, 1))
	require.NoError(t, store.SaveChapter(ctx, chapter))

	require.NoError(t, store.ReplaceEvents(ctx, book.ID, 2, []domain.Event{
		{BookID: book.ID, ChapterNumber: 2, Number: 1,
			Label: "The storm", Synopsis: "The storm makes landfall.", LastParagraph: 3},
	}))
	require.NoError(t, store.ReplaceCharacters(ctx, book.ID, []domain.Character{
		{BookID: book.ID, Name: "Mara", Role: domain.RoleProtagonist},
	}))

	return book
}

func TestSceneService_Scene_CacheHit(t *testing.T) {
	store := memory.NewBookStore()
	book := seedAnalyzedBook(t, store)

	scenes := newMockSceneStore()
	key := driven.SceneKey{BookID: book.ID, ChapterNumber: 2, EventNumber: 1}
	scenes.refs[key] = "/scenes/cached.png"

	llm := &mockLLM{}
	images := &mockImageSynthesizer{image: []byte("png")}
	svc := NewSceneService(store, llm, images, scenes)

	ref, err := svc.Scene(context.Background(), book.ID, 2, 1)
	require.NoError(t, err)

	assert.Equal(t, "/scenes/cached.png", ref)
	assert.Empty(t, llm.chatCalls, "a cache hit must not call the model")
	assert.Empty(t, images.prompts)
}

func TestSceneService_Scene_BuildsOnMiss(t *testing.T) {
	store := memory.NewBookStore()
	book := seedAnalyzedBook(t, store)

	scenes := newMockSceneStore()
	llm := &mockLLM{chatReplies: []string{"An oil painting of a storm over a harbour."}}
	images := &mockImageSynthesizer{image: []byte("png bytes")}
	svc := NewSceneService(store, llm, images, scenes)

	ref, err := svc.Scene(context.Background(), book.ID, 2, 1)
	require.NoError(t, err)

	assert.NotEmpty(t, ref)
	assert.NotEqual(t, scenes.Placeholder(), ref)
	assert.Equal(t, 1, scenes.puts)
	require.Len(t, images.prompts, 1)
	assert.Equal(t, "An oil painting of a storm over a harbour.", images.prompts[0])

	// The description call sees the event, the setting and the text slice
	// addressed by the anchors.
	require.Len(t, llm.chatCalls, 1)
	user := llm.chatCalls[0][1].Content
	assert.Contains(t, user, "The storm")
	assert.Contains(t, user, "a harbour town")
	assert.Contains(t, user, "Closing paragraph of chapter 2.")
	assert.Contains(t, user, "Mara")
}

func TestSceneService_Scene_SynthesisFailureYieldsPlaceholder(t *testing.T) {
	store := memory.NewBookStore()
	book := seedAnalyzedBook(t, store)

	scenes := newMockSceneStore()
	llm := &mockLLM{chatReplies: []string{"prompt"}}
	images := &mockImageSynthesizer{err: assert.AnError}
	svc := NewSceneService(store, llm, images, scenes)

	ref, err := svc.Scene(context.Background(), book.ID, 2, 1)
	require.NoError(t, err, "synthesis failure must not fail the read path")
	assert.Equal(t, scenes.Placeholder(), ref)
}

func TestSceneService_Scene_DescriptionFailureYieldsPlaceholder(t *testing.T) {
	store := memory.NewBookStore()
	book := seedAnalyzedBook(t, store)

	scenes := newMockSceneStore()
	llm := &mockLLM{chatErr: assert.AnError}
	svc := NewSceneService(store, llm, &mockImageSynthesizer{image: []byte("png")}, scenes)

	ref, err := svc.Scene(context.Background(), book.ID, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, scenes.Placeholder(), ref)
}

func TestSceneService_Scene_StoreFailureYieldsPlaceholder(t *testing.T) {
	store := memory.NewBookStore()
	book := seedAnalyzedBook(t, store)

	scenes := newMockSceneStore()
	scenes.putErr = assert.AnError
	llm := &mockLLM{chatReplies: []string{"prompt"}}
	svc := NewSceneService(store, llm, &mockImageSynthesizer{image: []byte("png")}, scenes)

	ref, err := svc.Scene(context.Background(), book.ID, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, scenes.Placeholder(), ref)
}

func TestSceneService_Scene_NoSynthesizerYieldsPlaceholder(t *testing.T) {
	store := memory.NewBookStore()
	book := seedAnalyzedBook(t, store)

	scenes := newMockSceneStore()
	llm := &mockLLM{chatReplies: []string{"prompt"}}
	svc := NewSceneService(store, llm, nil, scenes)

	ref, err := svc.Scene(context.Background(), book.ID, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, scenes.Placeholder(), ref)
}

func TestSceneService_Scene_MissingEvent(t *testing.T) {
	store := memory.NewBookStore()
	book := seedAnalyzedBook(t, store)

	svc := NewSceneService(store, &mockLLM{}, &mockImageSynthesizer{}, newMockSceneStore())

	_, err := svc.Scene(context.Background(), book.ID, 2, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSceneService_Scene_MissingBook(t *testing.T) {
	store := memory.NewBookStore()
	svc := NewSceneService(store, &mockLLM{}, &mockImageSynthesizer{}, newMockSceneStore())

	_, err := svc.Scene(context.Background(), "missing", 1, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSceneService_Portrait_CacheHit(t *testing.T) {
	store := memory.NewBookStore()
	book := seedAnalyzedBook(t, store)

	scenes := newMockSceneStore()
	key := driven.PortraitKey{BookID: book.ID, CharacterName: "Mara"}
	scenes.portraits[key] = "/scenes/cached_portrait.png"

	images := &mockImageSynthesizer{image: []byte("png")}
	svc := NewSceneService(store, &mockLLM{}, images, scenes)

	ref, err := svc.Portrait(context.Background(), book.ID, "Mara")
	require.NoError(t, err)

	assert.Equal(t, "/scenes/cached_portrait.png", ref)
	assert.Empty(t, images.prompts, "a cache hit must not call the model")
}

func TestSceneService_Portrait_BuildsOnMiss(t *testing.T) {
	store := memory.NewBookStore()
	book := seedAnalyzedBook(t, store)

	ctx := context.Background()
	require.NoError(t, store.ReplaceCharacters(ctx, book.ID, []domain.Character{
		{
			BookID: book.ID, Name: "Mara", Role: domain.RoleProtagonist,
			Gender:      "female",
			Appearance:  "weathered oilskin coat, grey eyes",
			Personality: "stubborn and watchful",
		},
	}))

	scenes := newMockSceneStore()
	images := &mockImageSynthesizer{image: []byte("png bytes")}
	svc := NewSceneService(store, &mockLLM{}, images, scenes)

	ref, err := svc.Portrait(ctx, book.ID, "Mara")
	require.NoError(t, err)

	assert.NotEmpty(t, ref)
	assert.NotEqual(t, scenes.Placeholder(), ref)
	assert.Equal(t, 1, scenes.puts)

	// The prompt is built straight from the roster record, no
	// description call in between.
	require.Len(t, images.prompts, 1)
	prompt := images.prompts[0]
	assert.Contains(t, prompt, "Portrait of Mara")
	assert.Contains(t, prompt, "role: protagonist")
	assert.Contains(t, prompt, "weathered oilskin coat, grey eyes")
	assert.Contains(t, prompt, "stubborn and watchful")
}

func TestSceneService_Portrait_UnknownFieldsUnspecified(t *testing.T) {
	store := memory.NewBookStore()
	book := seedAnalyzedBook(t, store)

	scenes := newMockSceneStore()
	images := &mockImageSynthesizer{image: []byte("png")}
	svc := NewSceneService(store, &mockLLM{}, images, scenes)

	_, err := svc.Portrait(context.Background(), book.ID, "Mara")
	require.NoError(t, err)

	require.Len(t, images.prompts, 1)
	assert.Contains(t, images.prompts[0], "unspecified gender")
	assert.Contains(t, images.prompts[0], "unspecified appearance")
}

func TestSceneService_Portrait_SynthesisFailureYieldsPlaceholder(t *testing.T) {
	store := memory.NewBookStore()
	book := seedAnalyzedBook(t, store)

	scenes := newMockSceneStore()
	svc := NewSceneService(store, &mockLLM{}, &mockImageSynthesizer{err: assert.AnError}, scenes)

	ref, err := svc.Portrait(context.Background(), book.ID, "Mara")
	require.NoError(t, err, "synthesis failure must not fail the read path")
	assert.Equal(t, scenes.Placeholder(), ref)
}

func TestSceneService_Portrait_StoreFailureYieldsPlaceholder(t *testing.T) {
	store := memory.NewBookStore()
	book := seedAnalyzedBook(t, store)

	scenes := newMockSceneStore()
	scenes.putErr = assert.AnError
	svc := NewSceneService(store, &mockLLM{}, &mockImageSynthesizer{image: []byte("png")}, scenes)

	ref, err := svc.Portrait(context.Background(), book.ID, "Mara")
	require.NoError(t, err)
	assert.Equal(t, scenes.Placeholder(), ref)
}

func TestSceneService_Portrait_NoSynthesizerYieldsPlaceholder(t *testing.T) {
	store := memory.NewBookStore()
	book := seedAnalyzedBook(t, store)

	scenes := newMockSceneStore()
	svc := NewSceneService(store, &mockLLM{}, nil, scenes)

	ref, err := svc.Portrait(context.Background(), book.ID, "Mara")
	require.NoError(t, err)
	assert.Equal(t, scenes.Placeholder(), ref)
}

func TestSceneService_Portrait_UnknownCharacter(t *testing.T) {
	store := memory.NewBookStore()
	book := seedAnalyzedBook(t, store)

	svc := NewSceneService(store, &mockLLM{}, &mockImageSynthesizer{}, newMockSceneStore())

	_, err := svc.Portrait(context.Background(), book.ID, "Nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
