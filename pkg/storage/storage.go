// Package storage abstracts the object storage provider: bytes in, durable
// URL out. The rest of the system only ever stores the returned URL string.
package storage

import (
	"context"
	"fmt"
	"path"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/nayher/commerce-backend/pkg/apperr"
)

// Store writes a byte buffer and returns a durable URL for it.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// BlobStore is a Store backed by a gocloud blob bucket (file://, s3://, ...).
type BlobStore struct {
	bucket  *blob.Bucket
	baseURL string
}

// OpenBlobStore opens the bucket at bucketURL. baseURL is the public prefix
// under which stored keys are served.
func OpenBlobStore(ctx context.Context, bucketURL, baseURL string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", bucketURL, err)
	}
	return &BlobStore{bucket: bucket, baseURL: baseURL}, nil
}

func (s *BlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	opts := &blob.WriterOptions{ContentType: contentType}
	if err := s.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return "", apperr.Wrap(err, apperr.CodeUpstream, "Failed to upload image")
	}
	return s.baseURL + "/" + path.Clean(key), nil
}

func (s *BlobStore) Close() error {
	return s.bucket.Close()
}
