package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BookStore = (*Store)(nil)

// Store is a SQLite-backed implementation of driven.BookStore.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.bookwyrm/data/library.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".bookwyrm", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "library.db")

	// WAL mode for better concurrency between the analysis pass and reads
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveBook stores or updates a book.
func (s *Store) SaveBook(ctx context.Context, book *domain.Book) error {
	metadataJSON, err := marshalNullable(book.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO books (id, title, author, summary, metadata, last_chapter_visited, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			summary = excluded.summary,
			metadata = excluded.metadata,
			last_chapter_visited = excluded.last_chapter_visited
	`, book.ID, book.Title, book.Author, book.Summary, metadataJSON,
		book.LastChapterVisited, book.CreatedAt)

	if err != nil {
		return fmt.Errorf("saving book: %w", err)
	}
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, author, summary, metadata, last_chapter_visited, created_at
		FROM books WHERE id = ?
	`, id)

	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return book, nil
}

// ListBooks returns all books ordered by creation time.
func (s *Store) ListBooks(ctx context.Context) ([]domain.Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, author, summary, metadata, last_chapter_visited, created_at
		FROM books ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying books: %w", err)
	}
	defer rows.Close()

	var books []domain.Book //nolint:prealloc // size unknown from query
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating books: %w", err)
	}
	return books, nil
}

// DeleteBook removes a book; chapters, characters, events and
// relationships cascade via foreign keys.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SaveChapter stores or updates one chapter.
func (s *Store) SaveChapter(ctx context.Context, chapter *domain.Chapter) error {
	paragraphsJSON, err := json.Marshal(chapter.Paragraphs)
	if err != nil {
		return fmt.Errorf("marshalling paragraphs: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chapters (book_id, number, title, paragraphs)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(book_id, number) DO UPDATE SET
			title = excluded.title,
			paragraphs = excluded.paragraphs
	`, chapter.BookID, chapter.Number, chapter.Title, string(paragraphsJSON))

	if err != nil {
		return fmt.Errorf("saving chapter: %w", err)
	}
	return nil
}

// GetChapter retrieves a chapter by book ID and sequence number.
func (s *Store) GetChapter(ctx context.Context, bookID string, number int) (*domain.Chapter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT book_id, number, title, paragraphs
		FROM chapters WHERE book_id = ? AND number = ?
	`, bookID, number)

	chapter, err := scanChapter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return chapter, nil
}

// ListChapters returns a book's chapters in ascending number order.
func (s *Store) ListChapters(ctx context.Context, bookID string) ([]domain.Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT book_id, number, title, paragraphs
		FROM chapters WHERE book_id = ? ORDER BY number
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("querying chapters: %w", err)
	}
	defer rows.Close()

	var chapters []domain.Chapter //nolint:prealloc // size unknown from query
	for rows.Next() {
		chapter, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, *chapter)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chapters: %w", err)
	}
	return chapters, nil
}

// ReplaceCharacters replaces a book's character set with the finalized
// roster, preserving roster order.
func (s *Store) ReplaceCharacters(ctx context.Context, bookID string, characters []domain.Character) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM characters WHERE book_id = ?", bookID); err != nil {
		return fmt.Errorf("clearing characters: %w", err)
	}

	for i, c := range characters {
		chaptersJSON, err := json.Marshal(c.ChaptersAppeared)
		if err != nil {
			return fmt.Errorf("marshalling chapters appeared: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO characters (book_id, position, name, role, age, gender, personality, appearance, bio, chapters_appeared)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, bookID, i, c.Name, string(c.Role), c.Age, c.Gender,
			c.Personality, c.Appearance, c.Bio, string(chaptersJSON))
		if err != nil {
			return fmt.Errorf("inserting character %q: %w", c.Name, err)
		}
	}

	return tx.Commit()
}

// ListCharacters returns a book's characters in roster order.
func (s *Store) ListCharacters(ctx context.Context, bookID string) ([]domain.Character, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT book_id, name, role, age, gender, personality, appearance, bio, chapters_appeared
		FROM characters WHERE book_id = ? ORDER BY position
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("querying characters: %w", err)
	}
	defer rows.Close()

	var characters []domain.Character //nolint:prealloc // size unknown from query
	for rows.Next() {
		character, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		characters = append(characters, *character)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating characters: %w", err)
	}
	return characters, nil
}

// GetCharacter retrieves a character by book ID and name.
func (s *Store) GetCharacter(ctx context.Context, bookID, name string) (*domain.Character, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT book_id, name, role, age, gender, personality, appearance, bio, chapters_appeared
		FROM characters WHERE book_id = ? AND name = ?
	`, bookID, name)

	character, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return character, nil
}

// ReplaceEvents discards a chapter's events and stores the given list.
func (s *Store) ReplaceEvents(ctx context.Context, bookID string, chapterNumber int, events []domain.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM events WHERE book_id = ? AND chapter_number = ?",
		bookID, chapterNumber); err != nil {
		return fmt.Errorf("clearing events: %w", err)
	}

	for _, e := range events {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (book_id, chapter_number, number, label, synopsis, last_paragraph)
			VALUES (?, ?, ?, ?, ?, ?)
		`, bookID, chapterNumber, e.Number, e.Label, e.Synopsis, e.LastParagraph)
		if err != nil {
			return fmt.Errorf("inserting event %d: %w", e.Number, err)
		}
	}

	return tx.Commit()
}

// ListEvents returns a chapter's events in ordinal order.
func (s *Store) ListEvents(ctx context.Context, bookID string, chapterNumber int) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT book_id, chapter_number, number, label, synopsis, last_paragraph
		FROM events WHERE book_id = ? AND chapter_number = ? ORDER BY number
	`, bookID, chapterNumber)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event //nolint:prealloc // size unknown from query
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.BookID, &e.ChapterNumber, &e.Number,
			&e.Label, &e.Synopsis, &e.LastParagraph); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

// GetEvent retrieves an event by its natural key.
func (s *Store) GetEvent(ctx context.Context, bookID string, chapterNumber, eventNumber int) (*domain.Event, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT book_id, chapter_number, number, label, synopsis, last_paragraph
		FROM events WHERE book_id = ? AND chapter_number = ? AND number = ?
	`, bookID, chapterNumber, eventNumber)

	var e domain.Event
	if err := row.Scan(&e.BookID, &e.ChapterNumber, &e.Number,
		&e.Label, &e.Synopsis, &e.LastParagraph); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning event: %w", err)
	}
	return &e, nil
}

// ReplaceRelationships replaces a book's relationship edge list.
func (s *Store) ReplaceRelationships(ctx context.Context, bookID string, relationships []domain.Relationship) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM relationships WHERE book_id = ?", bookID); err != nil {
		return fmt.Errorf("clearing relationships: %w", err)
	}

	for i, r := range relationships {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO relationships (book_id, position, source, target, label)
			VALUES (?, ?, ?, ?, ?)
		`, bookID, i, r.Source, r.Target, r.Label)
		if err != nil {
			return fmt.Errorf("inserting relationship %s-%s: %w", r.Source, r.Target, err)
		}
	}

	return tx.Commit()
}

// ListRelationships returns a book's relationship edges.
func (s *Store) ListRelationships(ctx context.Context, bookID string) ([]domain.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT book_id, source, target, label
		FROM relationships WHERE book_id = ? ORDER BY position
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	var relationships []domain.Relationship //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.Relationship
		if err := rows.Scan(&r.BookID, &r.Source, &r.Target, &r.Label); err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		relationships = append(relationships, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relationships: %w", err)
	}
	return relationships, nil
}

// scanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// scanBook scans one book row.
func scanBook(row scanner) (*domain.Book, error) {
	var book domain.Book
	var metadataJSON sql.NullString
	var createdAt sql.NullTime
	if err := row.Scan(&book.ID, &book.Title, &book.Author, &book.Summary,
		&metadataJSON, &book.LastChapterVisited, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning book: %w", err)
	}

	if metadataJSON.Valid && metadataJSON.String != "" {
		var metadata domain.BookMetadata
		if err := json.Unmarshal([]byte(metadataJSON.String), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
		book.Metadata = &metadata
	}
	if createdAt.Valid {
		book.CreatedAt = createdAt.Time
	}
	return &book, nil
}

// scanChapter scans one chapter row.
func scanChapter(row scanner) (*domain.Chapter, error) {
	var chapter domain.Chapter
	var paragraphsJSON string
	if err := row.Scan(&chapter.BookID, &chapter.Number, &chapter.Title, &paragraphsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning chapter: %w", err)
	}

	if err := json.Unmarshal([]byte(paragraphsJSON), &chapter.Paragraphs); err != nil {
		return nil, fmt.Errorf("unmarshaling paragraphs: %w", err)
	}
	return &chapter, nil
}

// scanCharacter scans one character row.
func scanCharacter(row scanner) (*domain.Character, error) {
	var c domain.Character
	var role string
	var chaptersJSON string
	if err := row.Scan(&c.BookID, &c.Name, &role, &c.Age, &c.Gender,
		&c.Personality, &c.Appearance, &c.Bio, &chaptersJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning character: %w", err)
	}
	c.Role = domain.CharacterRole(role)

	if err := json.Unmarshal([]byte(chaptersJSON), &c.ChaptersAppeared); err != nil {
		return nil, fmt.Errorf("unmarshaling chapters appeared: %w", err)
	}
	return &c, nil
}

// marshalNullable marshals v to JSON, mapping nil to a SQL NULL.
func marshalNullable(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(*domain.BookMetadata); ok && m == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
