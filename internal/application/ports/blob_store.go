package ports

import (
	"context"
	"io"
	"time"
)

// ObjectInfo is what a stat of a stored object reports. ETag doubles as an
// MD5 checksum for objects uploaded in a single part.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// BlobStore wraps the S3-compatible object store. Presigned URLs are already
// rewritten to the public endpoint when returned.
type BlobStore interface {
	EnsureBuckets(ctx context.Context)
	PresignPut(ctx context.Context, bucket, key, contentType string, size int64, ttl time.Duration) (string, error)
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	Put(ctx context.Context, bucket, key, contentType string, body io.Reader) error
	Get(ctx context.Context, bucket, key string) ([]byte, string, error)
	Stat(ctx context.Context, bucket, key string) (*ObjectInfo, error)
	Remove(ctx context.Context, bucket, key string) error
	RemoveMany(ctx context.Context, bucket string, keys []string) error
	Copy(ctx context.Context, bucket, srcKey, dstKey string) error
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	BucketSize(ctx context.Context, bucket string) (bytes int64, objects int64, err error)
}
