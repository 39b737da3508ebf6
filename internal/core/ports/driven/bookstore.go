package driven

import (
	"context"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
)

// BookStore persists books and everything derived from them. Reads are
// by natural key (book id, chapter number, character name, event
// ordinal); writes append or replace derived fields. Implementations
// return domain.ErrNotFound for missing entities.
type BookStore interface {
	// SaveBook stores or updates a book, including its running summary
	// and inferred metadata.
	SaveBook(ctx context.Context, book *domain.Book) error

	// GetBook retrieves a book by ID.
	GetBook(ctx context.Context, id string) (*domain.Book, error)

	// ListBooks returns all books ordered by creation time.
	ListBooks(ctx context.Context) ([]domain.Book, error)

	// DeleteBook removes a book and cascades to its chapters,
	// characters, events and relationships.
	DeleteBook(ctx context.Context, id string) error

	// SaveChapter stores or updates one chapter.
	SaveChapter(ctx context.Context, chapter *domain.Chapter) error

	// GetChapter retrieves a chapter by book ID and sequence number.
	GetChapter(ctx context.Context, bookID string, number int) (*domain.Chapter, error)

	// ListChapters returns a book's chapters in ascending number order.
	ListChapters(ctx context.Context, bookID string) ([]domain.Chapter, error)

	// ReplaceCharacters replaces a book's character set with the
	// finalized roster.
	ReplaceCharacters(ctx context.Context, bookID string, characters []domain.Character) error

	// ListCharacters returns a book's characters in roster order.
	ListCharacters(ctx context.Context, bookID string) ([]domain.Character, error)

	// GetCharacter retrieves a character by book ID and name.
	GetCharacter(ctx context.Context, bookID, name string) (*domain.Character, error)

	// ReplaceEvents discards a chapter's events and stores the given
	// list. Regeneration always replaces the whole chapter's events.
	ReplaceEvents(ctx context.Context, bookID string, chapterNumber int, events []domain.Event) error

	// ListEvents returns a chapter's events in ordinal order.
	ListEvents(ctx context.Context, bookID string, chapterNumber int) ([]domain.Event, error)

	// GetEvent retrieves an event by its natural key.
	GetEvent(ctx context.Context, bookID string, chapterNumber, eventNumber int) (*domain.Event, error)

	// ReplaceRelationships replaces a book's relationship edge list.
	ReplaceRelationships(ctx context.Context, bookID string, relationships []domain.Relationship) error

	// ListRelationships returns a book's relationship edges.
	ListRelationships(ctx context.Context, bookID string) ([]domain.Relationship, error)

	// Close releases resources.
	Close() error
}
