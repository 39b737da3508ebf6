// Package disk provides a filesystem-backed scene image cache.
package disk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/bookwyrm-labs/bookwyrm-cli/internal/core/ports/driven"
)

// Ensure SceneStore implements the interface.
var _ driven.SceneStore = (*SceneStore)(nil)

// placeholderName is the reference served when synthesis fails. It is a
// fixed name, not a real file: viewers resolve it to their bundled
// default image.
const placeholderName = "placeholder.png"

// SceneStore caches rendered scenes as PNG files under a directory.
type SceneStore struct {
	dir string
}

// NewSceneStore creates a scene store rooted at dir. If dir is empty,
// defaults to ~/.bookwyrm/scenes.
func NewSceneStore(dir string) (*SceneStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".bookwyrm", "scenes")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating scenes directory: %w", err)
	}

	return &SceneStore{dir: dir}, nil
}

// fileName maps a key to its cache file name. The name is derived from
// the literal id tuple so re-requests for the same tuple hit the same file.
func fileName(key driven.SceneKey) string {
	return fmt.Sprintf("scene_%s_%d_%d.png", key.BookID, key.ChapterNumber, key.EventNumber)
}

// portraitFileName maps a portrait key to its cache file name.
// Character names are free text, so unsafe characters become
// underscores before they reach the filesystem.
func portraitFileName(key driven.PortraitKey) string {
	name := unsafeNameChars.ReplaceAllString(key.CharacterName, "_")
	return fmt.Sprintf("portrait_%s_%s.png", key.BookID, name)
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Get returns the path for a cached scene and whether it exists.
func (s *SceneStore) Get(_ context.Context, key driven.SceneKey) (string, bool, error) {
	return s.lookup(fileName(key))
}

// GetPortrait returns the path for a cached portrait and whether it exists.
func (s *SceneStore) GetPortrait(_ context.Context, key driven.PortraitKey) (string, bool, error) {
	return s.lookup(portraitFileName(key))
}

func (s *SceneStore) lookup(name string) (string, bool, error) {
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("stat scene: %w", err)
	}
	return path, true, nil
}

// Put stores the image bytes for a key and returns its path.
func (s *SceneStore) Put(_ context.Context, key driven.SceneKey, image []byte) (string, error) {
	return s.write(fileName(key), image)
}

// PutPortrait stores the image bytes for a key and returns its path.
func (s *SceneStore) PutPortrait(_ context.Context, key driven.PortraitKey, image []byte) (string, error) {
	return s.write(portraitFileName(key), image)
}

// write stores image bytes under name. The write goes through a temp
// file and rename so readers never see a partial image.
func (s *SceneStore) write(name string, image []byte) (string, error) {
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, "scene_*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("writing scene: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing scene file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("renaming scene file: %w", err)
	}

	return path, nil
}

// Placeholder returns the fixed default reference used when synthesis fails.
func (s *SceneStore) Placeholder() string {
	return placeholderName
}
