package cli

import (
	"bytes"
	"context"

	"github.com/spf13/cobra"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
)

// newTestCmd returns a throwaway command whose output is captured.
func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	return cmd, buf
}

// mockLibraryService implements driving.LibraryService for testing.
type mockLibraryService struct {
	books         []domain.Book
	book          *domain.Book
	chapters      map[int]*domain.Chapter
	characters    []domain.Character
	relationships []domain.Relationship
	events        []domain.Event
	summaryBefore string
	err           error

	deletedID string
}

func (m *mockLibraryService) AddBook(_ context.Context, input *driven.BookInput) (*domain.Book, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Book{ID: "new-book", Title: input.Title, Author: input.Author}, nil
}

func (m *mockLibraryService) GetBook(_ context.Context, _ string) (*domain.Book, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.book, nil
}

func (m *mockLibraryService) ListBooks(_ context.Context) ([]domain.Book, error) {
	return m.books, m.err
}

func (m *mockLibraryService) DeleteBook(_ context.Context, id string) error {
	m.deletedID = id
	return m.err
}

func (m *mockLibraryService) GetChapter(_ context.Context, _ string, number int) (*domain.Chapter, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.chapters[number], nil
}

func (m *mockLibraryService) ListCharacters(_ context.Context, _ string) ([]domain.Character, error) {
	return m.characters, m.err
}

func (m *mockLibraryService) ListRelationships(_ context.Context, _ string) ([]domain.Relationship, error) {
	return m.relationships, m.err
}

func (m *mockLibraryService) ListEvents(_ context.Context, _ string, _ int) ([]domain.Event, error) {
	return m.events, m.err
}

func (m *mockLibraryService) SummaryBefore(_ context.Context, _ string, _ int) (string, error) {
	return m.summaryBefore, m.err
}

// mockQueryService implements driving.QueryService for testing.
type mockQueryService struct {
	answer   *domain.Answer
	err      error
	bookID   string
	question string
}

func (m *mockQueryService) Ask(_ context.Context, bookID, question string) (*domain.Answer, error) {
	m.bookID = bookID
	m.question = question
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

// mockSceneService implements driving.SceneService for testing.
type mockSceneService struct {
	ref       string
	err       error
	bookID    string
	chapter   int
	event     int
	character string
}

func (m *mockSceneService) Scene(_ context.Context, bookID string, chapter, event int) (string, error) {
	m.bookID = bookID
	m.chapter = chapter
	m.event = event
	return m.ref, m.err
}

func (m *mockSceneService) Portrait(_ context.Context, bookID, characterName string) (string, error) {
	m.bookID = bookID
	m.character = characterName
	return m.ref, m.err
}

// mockAnalysisPipeline implements driving.AnalysisPipeline for testing.
type mockAnalysisPipeline struct {
	err      error
	analyzed []string
}

func (m *mockAnalysisPipeline) Analyze(_ context.Context, bookID string) error {
	m.analyzed = append(m.analyzed, bookID)
	return m.err
}
