package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/minio/minio-go/v7"

	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
)

// Store persists artifacts as JSON objects in the artifact bucket; keys map
// directly to object names.
type Store struct {
	client *Client
}

// NewStore wraps a connected client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// Write uploads the marshaled artifact, overwriting any previous version.
func (s *Store) Write(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "marshal artifact")
	}
	_, err = s.client.api.PutObject(ctx, s.client.cfg.Bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "upload artifact")
	}
	return nil
}

// Read downloads and unmarshals the artifact at key.
func (s *Store) Read(ctx context.Context, key string, v interface{}) error {
	obj, err := s.client.api.GetObject(ctx, s.client.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeArtifactReadFailed, "download artifact")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return appErrors.Newf(appErrors.ErrCodeArtifactNotFound, "artifact %q not found", key)
		}
		return appErrors.Wrap(err, appErrors.ErrCodeArtifactReadFailed, "read artifact body")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "unmarshal artifact")
	}
	return nil
}

// Exists stats the object at key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.api.StatObject(ctx, s.client.cfg.Bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNoSuchKey(err) {
		return false, nil
	}
	return false, appErrors.Wrap(err, appErrors.ErrCodeArtifactReadFailed, "stat artifact")
}

// Delete removes the artifact at key.  Deleting a missing key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.client.api.RemoveObject(ctx, s.client.cfg.Bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		return appErrors.Wrap(err, appErrors.ErrCodeArtifactWriteFailed, "remove artifact")
	}
	return nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
