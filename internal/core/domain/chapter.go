package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Chapter represents one chapter of a book, addressed at paragraph
// granularity. Paragraph indices are 1-based, assigned once at ingestion
// and never renumbered. After ingestion the only permitted mutation is
// anchor placement by the event segmenter.
type Chapter struct {
	// BookID links to the owning Book.
	BookID string

	// Number is the 1-based sequence number, unique within the book.
	Number int

	// Title is the chapter title, possibly empty.
	Title string

	// Paragraphs holds the chapter body. Paragraph i has index i+1.
	// Event anchors, when placed, are appended to the paragraph that
	// terminates the event's span.
	Paragraphs []string
}

// anchorPattern matches any event anchor regardless of ordinal.
var anchorPattern = regexp.MustCompile(`\n?\x{200b}\[\[ev:\d+\]\]`)

// AnchorTag returns the anchor marker for the given event ordinal.
// The marker opens with a zero-width space so it stays invisible when the
// chapter text is rendered as prose.
func AnchorTag(ordinal int) string {
	return fmt.Sprintf("​[[ev:%d]]", ordinal)
}

// Text returns the chapter body including any placed anchors,
// paragraphs joined with blank lines.
func (c *Chapter) Text() string {
	return strings.Join(c.Paragraphs, "\n\n")
}

// PlainText returns the chapter body with all anchors stripped.
func (c *Chapter) PlainText() string {
	return anchorPattern.ReplaceAllString(c.Text(), "")
}

// NumberedText returns the chapter body with each paragraph prefixed by
// its 1-based index, the form the event segmenter presents to the model.
// Anchors are stripped so a re-segmentation sees clean input.
func (c *Chapter) NumberedText() string {
	var b strings.Builder
	for i, p := range c.Paragraphs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "PARAGRAPH %d: %s", i+1, anchorPattern.ReplaceAllString(p, ""))
	}
	return b.String()
}

// ClearAnchors removes every event anchor from the chapter body.
// Re-segmentation calls this before placing a fresh anchor set, so
// markers never accumulate across runs.
func (c *Chapter) ClearAnchors() {
	for i, p := range c.Paragraphs {
		c.Paragraphs[i] = anchorPattern.ReplaceAllString(p, "")
	}
}

// PlaceAnchor appends the anchor for the given event ordinal to the
// paragraph at the 1-based index. Out-of-range indices are clamped to
// the last paragraph.
func (c *Chapter) PlaceAnchor(paragraph, ordinal int) error {
	if len(c.Paragraphs) == 0 {
		return fmt.Errorf("place anchor: chapter %d has no paragraphs: %w", c.Number, ErrInvalidInput)
	}
	if paragraph < 1 {
		return fmt.Errorf("place anchor: paragraph %d: %w", paragraph, ErrInvalidInput)
	}
	if paragraph > len(c.Paragraphs) {
		paragraph = len(c.Paragraphs)
	}
	c.Paragraphs[paragraph-1] += "\n" + AnchorTag(ordinal)
	return nil
}

// EventText returns the literal chapter text covered by the event with
// the given ordinal: from the previous ordinal's anchor (or the chapter
// start for ordinal 1) through this ordinal's anchor. The anchors are the
// sole linkage between an event record and its byte range, so the slice
// is empty when the chapter has not been anchored.
func (c *Chapter) EventText(ordinal int) string {
	text := c.Text()
	end := strings.Index(text, AnchorTag(ordinal))
	if end < 0 {
		return ""
	}
	start := 0
	if ordinal > 1 {
		prev := AnchorTag(ordinal - 1)
		idx := strings.Index(text, prev)
		if idx < 0 {
			return ""
		}
		start = idx + len(prev)
	}
	return strings.TrimSpace(anchorPattern.ReplaceAllString(text[start:end], ""))
}

// splitParagraphGroups splits text on blank lines, dropping empty groups.
func splitParagraphGroups(text string) []string {
	var groups []string
	for _, g := range strings.Split(text, "\n\n") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

// joinParagraphGroups is the inverse of splitParagraphGroups.
func joinParagraphGroups(groups []string) string {
	return strings.Join(groups, "\n\n")
}
