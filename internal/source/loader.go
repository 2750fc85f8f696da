package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/competitive-radar/backend/internal/storage/models"
	"github.com/competitive-radar/backend/pkg/logger"
)

var ErrNoInput = errors.New("no competitor update file found")

// Loader reads the first existing file among its candidates.
type Loader struct {
	candidates []string
}

func NewLoader(candidates []string) *Loader {
	return &Loader{candidates: candidates}
}

// Load returns the records and the path they were read from.
func (l *Loader) Load() ([]models.RawUpdate, string, error) {
	for _, path := range l.candidates {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, path, fmt.Errorf("failed to read %s: %w", path, err)
		}

		updates, err := Parse(data)
		if err != nil {
			return nil, path, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		logger.Info("Competitor updates loaded",
			zap.String("path", path),
			zap.Int("count", len(updates)),
		)
		return updates, path, nil
	}

	return nil, "", fmt.Errorf("%w (tried %v)", ErrNoInput, l.candidates)
}

// Parse decodes a JSON array of updates and rejects duplicate ids.
func Parse(data []byte) ([]models.RawUpdate, error) {
	var updates []models.RawUpdate
	if err := json.Unmarshal(data, &updates); err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(updates))
	for _, u := range updates {
		if _, dup := seen[u.ID]; dup {
			return nil, fmt.Errorf("duplicate update id %d", u.ID)
		}
		seen[u.ID] = struct{}{}
	}

	return updates, nil
}
