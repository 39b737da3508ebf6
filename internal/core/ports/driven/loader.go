package driven

import "context"

// ChapterInput is one ordered chapter produced by an external ingestion
// collaborator. The core treats ingestion as already done: chapters
// arrive in order with paragraph-splittable plain text.
type ChapterInput struct {
	// Number is the 1-based chapter sequence number.
	Number int

	// Title is the chapter title, possibly empty.
	Title string

	// Paragraphs is the chapter body split at paragraph granularity.
	Paragraphs []string
}

// BookInput is a complete book as delivered by ingestion.
type BookInput struct {
	Title    string
	Author   string
	Chapters []ChapterInput
}

// BookLoader produces ordered chapters for a book from some external
// source. Parsing packaged document formats is the loader's problem,
// not the core's.
type BookLoader interface {
	// Load reads the book at the given location.
	Load(ctx context.Context, location string) (*BookInput, error)
}
