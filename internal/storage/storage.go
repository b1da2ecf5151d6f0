package storage

import (
	"context"
	"time"
)

// Downloader fetches an object into a local scratch file.
type Downloader interface {
	DownloadToFile(ctx context.Context, bucket, key, dest string) error
}

// Signer issues write-capability URLs for direct client uploads.
type Signer interface {
	SignedPutURL(ctx context.Context, objectName, contentType string, ttl time.Duration) (string, error)
}
