package service

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stager owns the lifecycle of transient attachment files: it persists
// uploaded bytes before a publish attempt and guarantees their removal after.
type Stager struct {
	logger *zap.Logger
	dir    string
}

func NewStager(logger *zap.Logger, dir string) (*Stager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Stager{logger: logger, dir: dir}, nil
}

// Stage writes the uploaded bytes under a per-request unique prefix so
// concurrent requests with the same filename cannot collide.
func (s *Stager) Stage(data []byte, suggestedName string) (string, error) {
	name := suggestedName
	if name == "" {
		name = "attachment"
	}
	path := filepath.Join(s.dir, uuid.NewString()+"_"+filepath.Base(name))

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to stage attachment: %w", err)
	}
	return path, nil
}

// Release removes staged files. Individual failures are logged and swallowed;
// already-missing files are fine.
func (s *Stager) Release(paths []string) {
	for _, path := range paths {
		err := os.Remove(path)
		if err == nil {
			s.logger.Info("Removed staged attachment", zap.String("path", path))
			continue
		}
		if os.IsNotExist(err) {
			continue
		}
		s.logger.Warn("Failed to remove staged attachment",
			zap.String("path", path),
			zap.Error(err))
	}
}
