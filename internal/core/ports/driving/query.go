package driving

import (
	"context"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
)

// QueryService answers natural-language questions about one book using
// hybrid retrieval over its indexed chunks. Each question is independent:
// no conversation state is carried between calls.
type QueryService interface {
	// Ask answers the question against the given book's index.
	Ask(ctx context.Context, bookID, question string) (*domain.Answer, error)
}

// SceneService resolves rendered images for a book's events and
// characters, building and caching them on first access.
type SceneService interface {
	// Scene returns a stable reference to the event's scene image.
	Scene(ctx context.Context, bookID string, chapterNumber, eventNumber int) (string, error)

	// Portrait returns a stable reference to the character's portrait
	// image.
	Portrait(ctx context.Context, bookID, characterName string) (string, error)
}
