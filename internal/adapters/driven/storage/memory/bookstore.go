// Package memory provides in-memory store implementations, used in
// tests and as throwaway state for one-shot commands.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
)

// Ensure BookStore implements the interface.
var _ driven.BookStore = (*BookStore)(nil)

// chapterKey identifies a chapter within a book.
type chapterKey struct {
	bookID string
	number int
}

// BookStore is an in-memory implementation of driven.BookStore.
type BookStore struct {
	mu            sync.RWMutex
	books         map[string]domain.Book
	bookOrder     []string
	chapters      map[chapterKey]domain.Chapter
	characters    map[string][]domain.Character
	events        map[chapterKey][]domain.Event
	relationships map[string][]domain.Relationship
}

// NewBookStore creates a new in-memory book store.
func NewBookStore() *BookStore {
	return &BookStore{
		books:         make(map[string]domain.Book),
		chapters:      make(map[chapterKey]domain.Chapter),
		characters:    make(map[string][]domain.Character),
		events:        make(map[chapterKey][]domain.Event),
		relationships: make(map[string][]domain.Relationship),
	}
}

// SaveBook stores or updates a book.
func (s *BookStore) SaveBook(_ context.Context, book *domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.books[book.ID]; !exists {
		s.bookOrder = append(s.bookOrder, book.ID)
	}
	s.books[book.ID] = *book
	return nil
}

// GetBook retrieves a book by ID.
func (s *BookStore) GetBook(_ context.Context, id string) (*domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, ok := s.books[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &book, nil
}

// ListBooks returns all books in ingestion order.
func (s *BookStore) ListBooks(_ context.Context) ([]domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	books := make([]domain.Book, 0, len(s.bookOrder))
	for _, id := range s.bookOrder {
		books = append(books, s.books[id])
	}
	return books, nil
}

// DeleteBook removes a book and everything derived from it.
func (s *BookStore) DeleteBook(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.books, id)
	for i, bid := range s.bookOrder {
		if bid == id {
			s.bookOrder = append(s.bookOrder[:i], s.bookOrder[i+1:]...)
			break
		}
	}
	for key := range s.chapters {
		if key.bookID == id {
			delete(s.chapters, key)
		}
	}
	for key := range s.events {
		if key.bookID == id {
			delete(s.events, key)
		}
	}
	delete(s.characters, id)
	delete(s.relationships, id)
	return nil
}

// cloneChapter copies a chapter including its paragraph slice, so
// anchor edits on a fetched chapter never reach the store before
// SaveChapter.
func cloneChapter(chapter domain.Chapter) domain.Chapter {
	paragraphs := make([]string, len(chapter.Paragraphs))
	copy(paragraphs, chapter.Paragraphs)
	chapter.Paragraphs = paragraphs
	return chapter
}

// SaveChapter stores or updates one chapter.
func (s *BookStore) SaveChapter(_ context.Context, chapter *domain.Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chapters[chapterKey{chapter.BookID, chapter.Number}] = cloneChapter(*chapter)
	return nil
}

// GetChapter retrieves a chapter by book ID and sequence number.
func (s *BookStore) GetChapter(_ context.Context, bookID string, number int) (*domain.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chapter, ok := s.chapters[chapterKey{bookID, number}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	chapter = cloneChapter(chapter)
	return &chapter, nil
}

// ListChapters returns a book's chapters in ascending number order.
func (s *BookStore) ListChapters(_ context.Context, bookID string) ([]domain.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var chapters []domain.Chapter
	for key, chapter := range s.chapters {
		if key.bookID == bookID {
			chapters = append(chapters, cloneChapter(chapter))
		}
	}
	sort.Slice(chapters, func(i, j int) bool {
		return chapters[i].Number < chapters[j].Number
	})
	return chapters, nil
}

// ReplaceCharacters replaces a book's character set.
func (s *BookStore) ReplaceCharacters(_ context.Context, bookID string, characters []domain.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]domain.Character, len(characters))
	copy(stored, characters)
	s.characters[bookID] = stored
	return nil
}

// ListCharacters returns a book's characters in roster order.
func (s *BookStore) ListCharacters(_ context.Context, bookID string) ([]domain.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	characters := s.characters[bookID]
	result := make([]domain.Character, len(characters))
	copy(result, characters)
	return result, nil
}

// GetCharacter retrieves a character by book ID and name.
func (s *BookStore) GetCharacter(_ context.Context, bookID, name string) (*domain.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.characters[bookID] {
		if c.Name == name {
			character := c
			return &character, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ReplaceEvents discards a chapter's events and stores the given list.
func (s *BookStore) ReplaceEvents(_ context.Context, bookID string, chapterNumber int, events []domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]domain.Event, len(events))
	copy(stored, events)
	s.events[chapterKey{bookID, chapterNumber}] = stored
	return nil
}

// ListEvents returns a chapter's events in ordinal order.
func (s *BookStore) ListEvents(_ context.Context, bookID string, chapterNumber int) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.events[chapterKey{bookID, chapterNumber}]
	result := make([]domain.Event, len(events))
	copy(result, events)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Number < result[j].Number
	})
	return result, nil
}

// GetEvent retrieves an event by its natural key.
func (s *BookStore) GetEvent(_ context.Context, bookID string, chapterNumber, eventNumber int) (*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events[chapterKey{bookID, chapterNumber}] {
		if e.Number == eventNumber {
			event := e
			return &event, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ReplaceRelationships replaces a book's relationship edge list.
func (s *BookStore) ReplaceRelationships(_ context.Context, bookID string, relationships []domain.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]domain.Relationship, len(relationships))
	copy(stored, relationships)
	s.relationships[bookID] = stored
	return nil
}

// ListRelationships returns a book's relationship edges.
func (s *BookStore) ListRelationships(_ context.Context, bookID string) ([]domain.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	relationships := s.relationships[bookID]
	result := make([]domain.Relationship, len(relationships))
	copy(result, relationships)
	return result, nil
}

// Close releases resources.
func (s *BookStore) Close() error {
	return nil
}
