// Package storage reads objects from S3, MinIO or Google Cloud Storage.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrObjectNotFound indicates the bucket has no object under the key.
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrObjectTooLarge indicates the object exceeds the caller's size limit.
	ErrObjectTooLarge = errors.New("storage: object too large")
	// ErrLocationRequired indicates an empty bucket or key.
	ErrLocationRequired = errors.New("storage: bucket and key are required")
)

// Storage defines the read operations used by the service.
type Storage interface {
	io.Closer

	// GetObject opens the object for reading. Callers must close the reader.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	// StatObject returns object metadata without reading its contents.
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
}

// ObjectInfo describes object metadata.
type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ETag        string
	ContentType string
	UpdatedAt   time.Time
}

// ReadAll reads the whole object, failing with ErrObjectTooLarge when it
// holds more than limit bytes. A limit <= 0 disables the check.
func ReadAll(ctx context.Context, s Storage, bucket, key string, limit int64) ([]byte, ObjectInfo, error) {
	if bucket == "" || key == "" {
		return nil, ObjectInfo{}, ErrLocationRequired
	}

	rc, info, err := s.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	defer func() { _ = rc.Close() }()

	if limit > 0 && info.Size > limit {
		return nil, info, ErrObjectTooLarge
	}

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, info, err
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, info, ErrObjectTooLarge
	}

	return data, info, nil
}
