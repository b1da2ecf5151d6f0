package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	gcs "cloud.google.com/go/storage"

	"github.com/darkruden/mock-interview-ai/internal/utils"
)

// GCSStore serves the audio bucket: signed PUT URLs for client uploads and
// download-to-scratch for the processing worker.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSStore{client: c, bucket: bucket}, nil
}

func (s *GCSStore) Close() error { return s.client.Close() }

func (s *GCSStore) SignedPutURL(ctx context.Context, objectName, contentType string, ttl time.Duration) (string, error) {
	return s.client.Bucket(s.bucket).SignedURL(objectName, &gcs.SignedURLOptions{
		Scheme:      gcs.SigningSchemeV4,
		Method:      "PUT",
		ContentType: contentType,
		Expires:     time.Now().Add(ttl),
	})
}

// DownloadToFile copies bucket/key into dest. A missing object maps to
// CodeNotFound so the caller can distinguish it from transport failures;
// both classes are retryable at the orchestration layer.
func (s *GCSStore) DownloadToFile(ctx context.Context, bucket, key, dest string) error {
	const op = "GCSStore.DownloadToFile"

	rc, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return utils.E(utils.CodeNotFound, op, "object not found", err)
		}
		return utils.E(utils.CodeUnavailable, op, "open object reader", err)
	}
	defer rc.Close()

	f, err := os.Create(dest)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "create scratch file", err)
	}

	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		_ = os.Remove(dest)
		return utils.E(utils.CodeUnavailable, op, "copy object", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dest)
		return utils.E(utils.CodeInternal, op, "close scratch file", err)
	}
	return nil
}
