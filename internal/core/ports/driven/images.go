package driven

import "context"

// ImageSynthesizer renders an image from a text prompt. It is an
// external collaborator: the core builds the prompt, hands it over and
// stores whatever comes back. Failures here must never fail a read
// path; callers substitute a placeholder instead.
type ImageSynthesizer interface {
	// Synthesize returns the rendered image bytes (PNG).
	Synthesize(ctx context.Context, prompt string) ([]byte, error)

	// Close releases resources.
	Close() error
}
