package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driving"
)

// Ensure LibraryService implements the interface.
var _ driving.LibraryService = (*LibraryService)(nil)

// LibraryService manages the book library over the book store.
type LibraryService struct {
	bookStore driven.BookStore
}

// NewLibraryService creates a new library service.
func NewLibraryService(bookStore driven.BookStore) *LibraryService {
	return &LibraryService{bookStore: bookStore}
}

// AddBook registers a new book from ingestion output. Chapter numbers
// are taken from the input when set and assigned sequentially otherwise;
// paragraph indices are fixed here, once, and never renumbered.
func (s *LibraryService) AddBook(ctx context.Context, input *driven.BookInput) (*domain.Book, error) {
	if input == nil || len(input.Chapters) == 0 {
		return nil, fmt.Errorf("book has no chapters: %w", domain.ErrInvalidInput)
	}

	book := &domain.Book{
		ID:                 uuid.New().String(),
		Title:              input.Title,
		Author:             input.Author,
		LastChapterVisited: 1,
		CreatedAt:          time.Now(),
	}

	if err := s.bookStore.SaveBook(ctx, book); err != nil {
		return nil, fmt.Errorf("save book: %w", err)
	}

	for i, in := range input.Chapters {
		number := in.Number
		if number == 0 {
			number = i + 1
		}
		chapter := &domain.Chapter{
			BookID:     book.ID,
			Number:     number,
			Title:      in.Title,
			Paragraphs: in.Paragraphs,
		}
		if err := s.bookStore.SaveChapter(ctx, chapter); err != nil {
			return nil, fmt.Errorf("save chapter %d: %w", number, err)
		}
	}

	return book, nil
}

// GetBook retrieves a book by ID.
func (s *LibraryService) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return s.bookStore.GetBook(ctx, id)
}

// ListBooks returns all books.
func (s *LibraryService) ListBooks(ctx context.Context) ([]domain.Book, error) {
	return s.bookStore.ListBooks(ctx)
}

// DeleteBook removes a book and everything derived from it.
func (s *LibraryService) DeleteBook(ctx context.Context, id string) error {
	return s.bookStore.DeleteBook(ctx, id)
}

// GetChapter retrieves one chapter.
func (s *LibraryService) GetChapter(ctx context.Context, bookID string, number int) (*domain.Chapter, error) {
	return s.bookStore.GetChapter(ctx, bookID, number)
}

// ListCharacters returns a book's finalized characters.
func (s *LibraryService) ListCharacters(ctx context.Context, bookID string) ([]domain.Character, error) {
	return s.bookStore.ListCharacters(ctx, bookID)
}

// ListRelationships returns a book's relationship edges.
func (s *LibraryService) ListRelationships(ctx context.Context, bookID string) ([]domain.Relationship, error) {
	return s.bookStore.ListRelationships(ctx, bookID)
}

// ListEvents returns a chapter's events.
func (s *LibraryService) ListEvents(ctx context.Context, bookID string, chapterNumber int) ([]domain.Event, error) {
	return s.bookStore.ListEvents(ctx, bookID, chapterNumber)
}

// SummaryBefore returns the running summary truncated to chapters
// strictly before the given chapter number.
func (s *LibraryService) SummaryBefore(ctx context.Context, bookID string, chapter int) (string, error) {
	book, err := s.bookStore.GetBook(ctx, bookID)
	if err != nil {
		return "", fmt.Errorf("get book %s: %w", bookID, err)
	}
	return book.SummaryBefore(chapter), nil
}
