package domain

import "fmt"

// Event is a contiguous span of chapter paragraphs identified by the
// event segmenter. The span start is implicit: either paragraph 1 or one
// past the previous event's terminator. Within a chapter, terminators
// are strictly increasing and the final terminator equals the chapter's
// paragraph count, so events exactly partition the chapter.
type Event struct {
	// BookID links to the owning Book.
	BookID string

	// ChapterNumber is the owning chapter's sequence number.
	ChapterNumber int

	// Number is the 1-based ordinal, unique within the chapter. It is
	// also the event's anchor address in the chapter text.
	Number int

	// Label is a short title for the event.
	Label string

	// Synopsis is a 2-3 sentence summary of the event.
	Synopsis string

	// LastParagraph is the span terminator: the 1-based index of the
	// last paragraph belonging to this event.
	LastParagraph int
}

// ValidateEvents checks that the events partition paragraphs 1..n:
// ordinals run 1..len(events), terminators strictly increase and the
// final terminator equals n.
func ValidateEvents(events []Event, n int) error {
	if len(events) == 0 {
		return fmt.Errorf("no events: %w", ErrInvalidInput)
	}
	prev := 0
	for i, ev := range events {
		if ev.Number != i+1 {
			return fmt.Errorf("event %d has ordinal %d: %w", i+1, ev.Number, ErrInvalidInput)
		}
		if ev.LastParagraph <= prev {
			return fmt.Errorf("event %d terminator %d not after %d: %w",
				ev.Number, ev.LastParagraph, prev, ErrInvalidInput)
		}
		prev = ev.LastParagraph
	}
	if prev != n {
		return fmt.Errorf("final terminator %d does not cover %d paragraphs: %w",
			prev, n, ErrInvalidInput)
	}
	return nil
}
