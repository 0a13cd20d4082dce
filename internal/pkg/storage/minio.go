package storage

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOOptions configures MinIO client initialization.
type MinIOOptions struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	UseSSL       bool
}

// MinIO implements Storage using a MinIO server.
type MinIO struct {
	client *minio.Client
}

// NewMinIO constructs a MinIO reader with the provided options.
func NewMinIO(opts MinIOOptions) (*MinIO, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, opts.SessionToken),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}
	return &MinIO{client: client}, nil
}

func (m *MinIO) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, minioError(err)
	}

	// minio opens lazily; Stat performs the request.
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, ObjectInfo{}, minioError(err)
	}

	return obj, minioInfo(bucket, key, stat), nil
}

func (m *MinIO) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	stat, err := m.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, minioError(err)
	}
	return minioInfo(bucket, key, stat), nil
}

// Close is a no-op; the minio client holds no resources.
func (m *MinIO) Close() error { return nil }

func minioInfo(bucket, key string, stat minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        stat.Size,
		ETag:        stat.ETag,
		ContentType: stat.ContentType,
		UpdatedAt:   stat.LastModified,
	}
}

func minioError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound {
		return errors.Join(ErrObjectNotFound, err)
	}
	return err
}
