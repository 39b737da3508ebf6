package driven

import (
	"context"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/domain"
)

// ConfigStore persists application settings.
type ConfigStore interface {
	// LoadSettings reads the current settings. A missing config file
	// yields zero-value settings, not an error.
	LoadSettings(ctx context.Context) (*domain.Settings, error)

	// SaveSettings writes the settings.
	SaveSettings(ctx context.Context, settings *domain.Settings) error
}
