package domain

import "time"

// Book represents an ingested book and all derived analysis artifacts.
// It is the root entity: chapters, characters, events and relationships
// all belong to a Book, and deleting it cascades.
type Book struct {
	// ID is the unique identifier for the book.
	ID string

	// Title is the human-readable title.
	Title string

	// Author is the book's author, if known.
	Author string

	// Summary is the running chapter-by-chapter digest built during the
	// analysis pass. It is append-only: one blank-line separated paragraph
	// group per digested chapter.
	Summary string

	// Metadata holds inferred book metadata. Nil until the analysis pass
	// has run; written once and never updated afterwards.
	Metadata *BookMetadata

	// LastChapterVisited tracks reading position, 1-based.
	LastChapterVisited int

	// CreatedAt is when the book was first ingested.
	CreatedAt time.Time
}

// BookMetadata is inferred from the finished running summary in a single
// structured model call. Write-once after ingestion.
type BookMetadata struct {
	// Genres lists the main genres the book belongs to.
	Genres []string

	// TimePeriod is the approximate period the story takes place in,
	// e.g. "Victorian era", "near-future", "unspecified".
	TimePeriod string

	// Setting is a short label for where most of the story happens.
	Setting string

	// Synopsis is a short whole-book synopsis.
	Synopsis string

	// Moods holds one entry per chapter, in chapter order.
	Moods []ChapterMood
}

// ChapterMood is the overall atmosphere of one chapter.
type ChapterMood string

// Recognised chapter moods.
const (
	MoodNeutral ChapterMood = "neutral"
	MoodHopeful ChapterMood = "hopeful"
	MoodTense   ChapterMood = "tense"
	MoodSad     ChapterMood = "sad"
	MoodDark    ChapterMood = "dark"
)

// IsValid returns true if the mood is recognised.
func (m ChapterMood) IsValid() bool {
	switch m {
	case MoodNeutral, MoodHopeful, MoodTense, MoodSad, MoodDark:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m ChapterMood) String() string {
	return string(m)
}

// SummaryBefore returns the running summary truncated to the chapters
// strictly before the given chapter number. The summary is split into
// blank-line paragraph groups; the first chapter-1 groups are kept.
// Chapter numbers at or below 1 yield an empty string.
func (b *Book) SummaryBefore(chapter int) string {
	if chapter <= 1 {
		return ""
	}
	groups := splitParagraphGroups(b.Summary)
	if len(groups) > chapter-1 {
		groups = groups[:chapter-1]
	}
	return joinParagraphGroups(groups)
}
