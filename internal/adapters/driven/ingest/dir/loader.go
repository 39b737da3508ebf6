// Package dir provides a book loader that reads ordered chapter text
// files from a directory.
//
// Each .txt or .md file in the directory is one chapter; files are
// ordered by name, so a numeric prefix ("01_arrival.txt") fixes the
// chapter sequence. The remainder of the file name becomes the chapter
// title. Paragraphs are blank-line separated.
package dir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.BookLoader = (*Loader)(nil)

// Loader reads books from chapter-per-file directories.
type Loader struct{}

// NewLoader creates a new directory book loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the book at the given directory path.
func (l *Loader) Load(_ context.Context, location string) (*driven.BookInput, error) {
	info, err := os.Stat(location)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, location)
		}
		return nil, fmt.Errorf("stat %s: %w", location, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, location)
	}

	entries, err := os.ReadDir(location)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", location, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".md":
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no chapter files in %s", domain.ErrInvalidInput, location)
	}
	sort.Strings(files)

	book := &driven.BookInput{
		Title: titleFromName(filepath.Base(location)),
	}

	for i, name := range files {
		data, err := os.ReadFile(filepath.Join(location, name))
		if err != nil {
			return nil, fmt.Errorf("read chapter %s: %w", name, err)
		}

		paragraphs := splitParagraphs(string(data))
		if len(paragraphs) == 0 {
			return nil, fmt.Errorf("%w: chapter file %s is empty", domain.ErrInvalidInput, name)
		}

		book.Chapters = append(book.Chapters, driven.ChapterInput{
			Number:     i + 1,
			Title:      titleFromName(stripOrderPrefix(name)),
			Paragraphs: paragraphs,
		})
	}

	return book, nil
}

// splitParagraphs splits chapter text into blank-line separated
// paragraphs. Line breaks inside a paragraph are collapsed to spaces.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var paragraphs []string
	for _, block := range strings.Split(text, "\n\n") {
		lines := strings.Split(block, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimSpace(line)
		}
		paragraph := strings.TrimSpace(strings.Join(lines, " "))
		if paragraph != "" {
			paragraphs = append(paragraphs, paragraph)
		}
	}
	return paragraphs
}

// stripOrderPrefix removes the extension and any leading digits and
// separators used for ordering, e.g. "01_arrival.txt" -> "arrival".
func stripOrderPrefix(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.TrimLeftFunc(name, func(r rune) bool {
		return unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' || r == ' '
	})
	return name
}

// titleFromName turns a file or directory name into a display title.
func titleFromName(name string) string {
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.TrimSpace(name)
}
