// Package storage provides artifact persistence backends.  The filesystem
// store is the default; the minio subpackage offers the same contract over
// object storage.
package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
)

// FSStore persists artifacts as JSON files under a root directory.  Keys
// use forward slashes and map directly to relative paths.
type FSStore struct {
	root   string
	logger logging.Logger
}

// NewFSStore creates the root directory if needed.
func NewFSStore(root string, logger logging.Logger) (*FSStore, error) {
	if root == "" {
		return nil, appErrors.InvalidParam("artifact root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeInternal, "create artifact root")
	}
	return &FSStore{root: root, logger: logger.Named("storage.fs")}, nil
}

func (s *FSStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Write marshals v and writes it atomically: a temp file in the target
// directory renamed over the final path, so readers never observe a partial
// artifact.
func (s *FSStore) Write(_ context.Context, key string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "marshal artifact")
	}

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "create artifact directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*")
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "create temp artifact")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "write artifact")
	}
	if err := tmp.Close(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "close artifact")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "finalize artifact")
	}

	s.logger.Debug("artifact written",
		logging.String("key", key),
		logging.Int("bytes", len(data)))
	return nil
}

// Read unmarshals the artifact at key into v.
func (s *FSStore) Read(_ context.Context, key string, v interface{}) error {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return appErrors.Newf(appErrors.ErrCodeArtifactNotFound, "artifact %q not found", key)
		}
		return appErrors.Wrap(err, appErrors.ErrCodeArtifactReadFailed, "read artifact")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "unmarshal artifact")
	}
	return nil
}

// Exists reports whether the artifact is present.
func (s *FSStore) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, appErrors.Wrap(err, appErrors.ErrCodeArtifactReadFailed, "stat artifact")
}
