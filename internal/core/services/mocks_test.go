package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLLM implements driven.LLMService with scripted replies. Chat pops
// from chatReplies; when the queue is empty it returns chatErr if set,
// otherwise a generated reply. ChatStructured works the same way over
// structuredReplies with structuredReply as the repeating fallback.
type mockLLM struct {
	chatReplies       []string
	chatErr           error
	structuredReplies []json.RawMessage
	structuredReply   json.RawMessage
	structuredErr     error

	chatCalls       [][]driven.ChatMessage
	structuredCalls []driven.Schema
}

func (m *mockLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return "", nil
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.chatCalls = append(m.chatCalls, messages)
	if len(m.chatReplies) > 0 {
		reply := m.chatReplies[0]
		m.chatReplies = m.chatReplies[1:]
		return reply, nil
	}
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return fmt.Sprintf("reply %d", len(m.chatCalls)), nil
}

func (m *mockLLM) ChatStructured(_ context.Context, messages []driven.ChatMessage, schema driven.Schema) (json.RawMessage, error) {
	_ = messages
	m.structuredCalls = append(m.structuredCalls, schema)
	if len(m.structuredReplies) > 0 {
		reply := m.structuredReplies[0]
		m.structuredReplies = m.structuredReplies[1:]
		return reply, nil
	}
	if m.structuredErr != nil {
		return nil, m.structuredErr
	}
	if m.structuredReply != nil {
		return m.structuredReply, nil
	}
	return nil, errors.New("no structured reply scripted")
}

func (m *mockLLM) ModelName() string {
	return "mock-llm"
}

func (m *mockLLM) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLM) Close() error {
	return nil
}

// mockEmbedder implements driven.EmbeddingService with deterministic
// vectors: an optional per-text override map, otherwise the fixed vector.
type mockEmbedder struct {
	vector    []float32
	vectors   map[string][]float32
	embedErr  error
	dims      int
	dropLast  bool // EmbedBatch returns one embedding too few
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.vector, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if m.dropLast && len(result) > 0 {
		result = result[:len(result)-1]
	}
	return result, nil
}

func (m *mockEmbedder) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return len(m.vector)
}

func (m *mockEmbedder) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbedder) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbedder) Close() error {
	return nil
}

// mockImageSynthesizer implements driven.ImageSynthesizer.
type mockImageSynthesizer struct {
	image   []byte
	err     error
	prompts []string
}

func (m *mockImageSynthesizer) Synthesize(_ context.Context, prompt string) ([]byte, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return nil, m.err
	}
	return m.image, nil
}

func (m *mockImageSynthesizer) Close() error {
	return nil
}

// mockSceneStore implements driven.SceneStore over maps.
type mockSceneStore struct {
	refs      map[driven.SceneKey]string
	portraits map[driven.PortraitKey]string
	getErr    error
	putErr    error
	puts      int
}

func newMockSceneStore() *mockSceneStore {
	return &mockSceneStore{
		refs:      make(map[driven.SceneKey]string),
		portraits: make(map[driven.PortraitKey]string),
	}
}

func (m *mockSceneStore) Get(_ context.Context, key driven.SceneKey) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	ref, ok := m.refs[key]
	return ref, ok, nil
}

func (m *mockSceneStore) Put(_ context.Context, key driven.SceneKey, _ []byte) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	m.puts++
	ref := fmt.Sprintf("/scenes/%s_%d_%d.png", key.BookID, key.ChapterNumber, key.EventNumber)
	m.refs[key] = ref
	return ref, nil
}

func (m *mockSceneStore) GetPortrait(_ context.Context, key driven.PortraitKey) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	ref, ok := m.portraits[key]
	return ref, ok, nil
}

func (m *mockSceneStore) PutPortrait(_ context.Context, key driven.PortraitKey, _ []byte) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	m.puts++
	ref := fmt.Sprintf("/scenes/portrait_%s_%s.png", key.BookID, key.CharacterName)
	m.portraits[key] = ref
	return ref, nil
}

func (m *mockSceneStore) Placeholder() string {
	return "placeholder.png"
}

// mockPromptStore implements driven.PromptStore over a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if prompt, ok := m.prompts[name]; ok {
		return prompt, nil
	}
	return "", fmt.Errorf("prompt %q not found", name)
}

func (m *mockPromptStore) Reload() {}

// --- Seed helpers ---

// seedBook stores a book with the given number of chapters, three
// paragraphs each.
func seedBook(t *testing.T, store driven.BookStore, chapters int) *domain.Book {
	t.Helper()
	ctx := context.Background()

	book := &domain.Book{
		ID:                 "book-1",
		Title:              "The Glass Harbour",
		Author:             "A. Tester",
		LastChapterVisited: 1,
		CreatedAt:          time.Now(),
	}
	require.NoError(t, store.SaveBook(ctx, book))

	for n := 1; n <= chapters; n++ {
		chapter := &domain.Chapter{
			BookID: book.ID,
			Number: n,
			Title:  fmt.Sprintf("Chapter %d", n),
			Paragraphs: []string{
				fmt.Sprintf("Opening paragraph of chapter %d.", n),
				fmt.Sprintf("Middle paragraph of chapter %d.", n),
				fmt.Sprintf("Closing paragraph of chapter %d.", n),
			},
		}
		require.NoError(t, store.SaveChapter(ctx, chapter))
	}

	return book
}
