package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"globomart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// diskStore implements Store on the local file system. It backs development
// setups without S3; the router serves the directory under baseURL.
type diskStore struct {
	dir     string
	baseURL string
	logger  zerolog.Logger
}

// NewDiskStore creates a file system store rooted at dir.
func NewDiskStore(dir, baseURL string, logger zerolog.Logger) Store {
	return &diskStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With().Str("component", "disk-image-store").Logger(),
	}
}

// Upload writes the object to <dir>/<folder>/<uuid><ext>.
func (s *diskStore) Upload(_ context.Context, folder, contentType string, data []byte) (model.Image, error) {
	publicID := folder + "/" + uuid.NewString() + extensionFor(contentType)
	path := filepath.Join(s.dir, filepath.FromSlash(publicID))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return model.Image{}, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("failed to write image")
		return model.Image{}, fmt.Errorf("failed to write image: %w", err)
	}

	return model.Image{PublicID: publicID, URL: s.baseURL + "/" + publicID}, nil
}

// Delete removes the file. publicID must stay inside the store directory.
func (s *diskStore) Delete(_ context.Context, publicID string) error {
	clean := filepath.Clean(filepath.FromSlash(publicID))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("invalid image id %q", publicID)
	}

	err := os.Remove(filepath.Join(s.dir, clean))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Error().Err(err).Str("public_id", publicID).Msg("failed to delete image")
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
