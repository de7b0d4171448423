package storage

import (
	"context"
	"io"
	"time"
)

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// Service stores uploaded site assets (topic images) in remote object
// storage.
type Service interface {
	Upload(ctx context.Context, body io.Reader, bucket, key, contentType string) (string, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	DeletePrefix(ctx context.Context, bucket, prefix string) error
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}
