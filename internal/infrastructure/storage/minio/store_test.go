package minio

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
)

// fakeAPI implements MinIOAPI with overridable function fields.
type fakeAPI struct {
	listBuckets  func(ctx context.Context) ([]minio.BucketInfo, error)
	bucketExists func(ctx context.Context, bucket string) (bool, error)
	makeBucket   func(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	putObject    func(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	getObject    func(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (*minio.Object, error)
	statObject   func(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	removeObject func(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error
}

func (f *fakeAPI) ListBuckets(ctx context.Context) ([]minio.BucketInfo, error) {
	if f.listBuckets == nil {
		return nil, nil
	}
	return f.listBuckets(ctx)
}

func (f *fakeAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if f.bucketExists == nil {
		return true, nil
	}
	return f.bucketExists(ctx, bucket)
}

func (f *fakeAPI) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	if f.makeBucket == nil {
		return nil
	}
	return f.makeBucket(ctx, bucket, opts)
}

func (f *fakeAPI) PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putObject == nil {
		return minio.UploadInfo{}, nil
	}
	return f.putObject(ctx, bucket, object, r, size, opts)
}

func (f *fakeAPI) GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (*minio.Object, error) {
	if f.getObject == nil {
		return nil, errors.New("not implemented")
	}
	return f.getObject(ctx, bucket, object, opts)
}

func (f *fakeAPI) StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	if f.statObject == nil {
		return minio.ObjectInfo{}, nil
	}
	return f.statObject(ctx, bucket, object, opts)
}

func (f *fakeAPI) RemoveObject(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error {
	if f.removeObject == nil {
		return nil
	}
	return f.removeObject(ctx, bucket, object, opts)
}

func noSuchKey() error {
	return minio.ErrorResponse{Code: "NoSuchKey", Message: "key not found"}
}

func newTestStore(api *fakeAPI) *Store {
	client := newClientWithAPI(api, Config{Endpoint: "localhost:9000"}, logging.NewNopLogger())
	return NewStore(client)
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{}
	cfg.applyDefaults()
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "disrupt-artifacts", cfg.Bucket)
}

func TestStoreWriteUploadsJSON(t *testing.T) {
	t.Parallel()

	var gotBucket, gotObject string
	var gotBody []byte
	api := &fakeAPI{
		putObject: func(_ context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
			gotBucket, gotObject = bucket, object
			gotBody, _ = io.ReadAll(r)
			assert.Equal(t, int64(len(gotBody)), size)
			assert.Equal(t, "application/json", opts.ContentType)
			return minio.UploadInfo{}, nil
		},
	}

	store := newTestStore(api)
	require.NoError(t, store.Write(context.Background(), "companies/acme/panel.json", map[string]int{"rows": 3}))

	assert.Equal(t, "disrupt-artifacts", gotBucket)
	assert.Equal(t, "companies/acme/panel.json", gotObject)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, 3, decoded["rows"])
}

func TestStoreWriteUploadFailure(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		putObject: func(context.Context, string, string, io.Reader, int64, minio.PutObjectOptions) (minio.UploadInfo, error) {
			return minio.UploadInfo{}, errors.New("connection reset")
		},
	}

	err := newTestStore(api).Write(context.Background(), "k", struct{}{})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeArtifactWriteFailed))
}

func TestStoreExists(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()
		api := &fakeAPI{}
		ok, err := newTestStore(api).Exists(context.Background(), "k")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()
		api := &fakeAPI{
			statObject: func(context.Context, string, string, minio.StatObjectOptions) (minio.ObjectInfo, error) {
				return minio.ObjectInfo{}, noSuchKey()
			},
		}
		ok, err := newTestStore(api).Exists(context.Background(), "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()
		api := &fakeAPI{
			statObject: func(context.Context, string, string, minio.StatObjectOptions) (minio.ObjectInfo, error) {
				return minio.ObjectInfo{}, errors.New("timeout")
			},
		}
		_, err := newTestStore(api).Exists(context.Background(), "k")
		require.Error(t, err)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeArtifactReadFailed))
	})
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	t.Run("missing key is a no-op", func(t *testing.T) {
		t.Parallel()
		api := &fakeAPI{
			removeObject: func(context.Context, string, string, minio.RemoveObjectOptions) error {
				return noSuchKey()
			},
		}
		assert.NoError(t, newTestStore(api).Delete(context.Background(), "k"))
	})

	t.Run("transport error propagates", func(t *testing.T) {
		t.Parallel()
		api := &fakeAPI{
			removeObject: func(context.Context, string, string, minio.RemoveObjectOptions) error {
				return errors.New("timeout")
			},
		}
		assert.Error(t, newTestStore(api).Delete(context.Background(), "k"))
	})
}

func TestEnsureBucketCreatesWhenMissing(t *testing.T) {
	t.Parallel()

	created := false
	api := &fakeAPI{
		bucketExists: func(context.Context, string) (bool, error) { return false, nil },
		makeBucket: func(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
			created = true
			assert.Equal(t, "disrupt-artifacts", bucket)
			return nil
		},
	}
	client := newClientWithAPI(api, Config{}, logging.NewNopLogger())
	require.NoError(t, client.ensureBucket(context.Background()))
	assert.True(t, created)
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()
		client := newClientWithAPI(&fakeAPI{}, Config{}, logging.NewNopLogger())
		assert.NoError(t, client.HealthCheck(context.Background()))
	})

	t.Run("bucket missing", func(t *testing.T) {
		t.Parallel()
		api := &fakeAPI{bucketExists: func(context.Context, string) (bool, error) { return false, nil }}
		client := newClientWithAPI(api, Config{}, logging.NewNopLogger())
		err := client.HealthCheck(context.Background())
		require.Error(t, err)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrCodeServiceUnavailable))
	})
}
