package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
)

type mockBookLoader struct {
	input *driven.BookInput
	err   error
	path  string
}

func (m *mockBookLoader) Load(_ context.Context, location string) (*driven.BookInput, error) {
	m.path = location
	if m.err != nil {
		return nil, m.err
	}
	return m.input, nil
}

func TestAddCmd_Use(t *testing.T) {
	assert.Equal(t, "add [path]", addCmd.Use)
}

func TestRunAdd_IngestsBook(t *testing.T) {
	loader := &mockBookLoader{input: &driven.BookInput{
		Title: "the glass harbour",
		Chapters: []driven.ChapterInput{
			{Number: 1, Paragraphs: []string{"One."}},
			{Number: 2, Paragraphs: []string{"Two."}},
		},
	}}
	oldLibrary, oldLoader := libraryService, bookLoader
	libraryService = &mockLibraryService{}
	bookLoader = loader
	defer func() {
		libraryService = oldLibrary
		bookLoader = oldLoader
	}()

	cmd, buf := newTestCmd()
	require.NoError(t, runAdd(cmd, []string{"/books/the-glass-harbour"}))

	out := buf.String()
	assert.Equal(t, "/books/the-glass-harbour", loader.path)
	assert.Contains(t, out, `Added "the glass harbour" (2 chapters)`)
	assert.Contains(t, out, "ID: new-book")
	assert.Contains(t, out, "Run 'bookwyrm analyze new-book'")
}

func TestRunAdd_TitleAndAuthorFlags(t *testing.T) {
	loader := &mockBookLoader{input: &driven.BookInput{
		Title:    "the glass harbour",
		Chapters: []driven.ChapterInput{{Number: 1, Paragraphs: []string{"One."}}},
	}}
	oldLibrary, oldLoader := libraryService, bookLoader
	oldTitle, oldAuthor := addTitle, addAuthor
	libraryService = &mockLibraryService{}
	bookLoader = loader
	addTitle = "The Glass Harbour"
	addAuthor = "A. Tester"
	defer func() {
		libraryService = oldLibrary
		bookLoader = oldLoader
		addTitle = oldTitle
		addAuthor = oldAuthor
	}()

	cmd, buf := newTestCmd()
	require.NoError(t, runAdd(cmd, []string{"/books/the-glass-harbour"}))

	assert.Contains(t, buf.String(), `Added "The Glass Harbour" (1 chapters)`)
	assert.Equal(t, "The Glass Harbour", loader.input.Title)
	assert.Equal(t, "A. Tester", loader.input.Author)
}

func TestRunAdd_AnalyzeFlag(t *testing.T) {
	pipeline := &mockAnalysisPipeline{}
	oldLibrary, oldLoader := libraryService, bookLoader
	oldAnalysis, oldFlag := analysisService, addAnalyze
	libraryService = &mockLibraryService{}
	bookLoader = &mockBookLoader{input: &driven.BookInput{
		Title:    "draft",
		Chapters: []driven.ChapterInput{{Number: 1, Paragraphs: []string{"One."}}},
	}}
	analysisService = pipeline
	addAnalyze = true
	defer func() {
		libraryService = oldLibrary
		bookLoader = oldLoader
		analysisService = oldAnalysis
		addAnalyze = oldFlag
	}()

	cmd, buf := newTestCmd()
	require.NoError(t, runAdd(cmd, []string{"/books/draft"}))

	assert.Equal(t, []string{"new-book"}, pipeline.analyzed)
	assert.Contains(t, buf.String(), "Analysis complete.")
}

func TestRunAdd_LoadError(t *testing.T) {
	oldLibrary, oldLoader := libraryService, bookLoader
	libraryService = &mockLibraryService{}
	bookLoader = &mockBookLoader{err: assert.AnError}
	defer func() {
		libraryService = oldLibrary
		bookLoader = oldLoader
	}()

	cmd, _ := newTestCmd()
	err := runAdd(cmd, []string{"/books/missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
