package driving

import (
	"context"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
)

// LibraryService manages the book library: registering ingested books
// and reading them and their derived artifacts back.
type LibraryService interface {
	// AddBook registers a new book from ingestion output and returns it.
	AddBook(ctx context.Context, input *driven.BookInput) (*domain.Book, error)

	// GetBook retrieves a book by ID.
	GetBook(ctx context.Context, id string) (*domain.Book, error)

	// ListBooks returns all books.
	ListBooks(ctx context.Context) ([]domain.Book, error)

	// DeleteBook removes a book and everything derived from it.
	DeleteBook(ctx context.Context, id string) error

	// GetChapter retrieves one chapter.
	GetChapter(ctx context.Context, bookID string, number int) (*domain.Chapter, error)

	// ListCharacters returns a book's finalized characters.
	ListCharacters(ctx context.Context, bookID string) ([]domain.Character, error)

	// ListRelationships returns a book's relationship edges.
	ListRelationships(ctx context.Context, bookID string) ([]domain.Relationship, error)

	// ListEvents returns a chapter's events.
	ListEvents(ctx context.Context, bookID string, chapterNumber int) ([]domain.Event, error)

	// SummaryBefore returns the running summary truncated to chapters
	// strictly before the given chapter number.
	SummaryBefore(ctx context.Context, bookID string, chapter int) (string, error)
}
