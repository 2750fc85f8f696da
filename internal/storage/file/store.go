package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/competitive-radar/backend/internal/storage/models"
	"github.com/competitive-radar/backend/pkg/logger"
)

// Store keeps the latest digest as a Markdown file, overwritten on each save.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// SaveDigest writes to a temp file and renames it so readers never see a
// partially written digest.
func (s *Store) SaveDigest(_ context.Context, digest *models.Digest) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create digest directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".digest-*.md")
	if err != nil {
		return fmt.Errorf("failed to create temp digest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(digest.Content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write digest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close digest: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set digest permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace digest: %w", err)
	}

	logger.Info("Digest saved", zap.String("path", s.path), zap.Int("bytes", len(digest.Content)))
	return nil
}
