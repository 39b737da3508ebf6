package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBook_SummaryBefore(t *testing.T) {
	book := &Book{
		Summary: "Digest of chapter two.\n\nDigest of chapter three.\n\nDigest of chapter four.",
	}

	tests := []struct {
		name    string
		chapter int
		want    string
	}{
		{"chapter one has no prior summary", 1, ""},
		{"zero and negative yield nothing", 0, ""},
		{"keeps the first chapter minus one groups", 3, "Digest of chapter two.\n\nDigest of chapter three."},
		{"chapter past the summary keeps everything", 10,
			"Digest of chapter two.\n\nDigest of chapter three.\n\nDigest of chapter four."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, book.SummaryBefore(tt.chapter))
		})
	}
}

func TestBook_SummaryBefore_EmptySummary(t *testing.T) {
	book := &Book{}
	assert.Empty(t, book.SummaryBefore(5))
}

func TestChapterMood_IsValid(t *testing.T) {
	for _, mood := range []ChapterMood{MoodNeutral, MoodHopeful, MoodTense, MoodSad, MoodDark} {
		assert.True(t, mood.IsValid(), "%s", mood)
	}
	assert.False(t, ChapterMood("melancholy").IsValid())
	assert.False(t, ChapterMood("").IsValid())
}

func TestSplitParagraphGroups(t *testing.T) {
	groups := splitParagraphGroups("one\n\n\n\ntwo\n\n  \n\nthree")
	assert.Equal(t, []string{"one", "two", "three"}, groups)

	assert.Nil(t, splitParagraphGroups(""))
}
