package storage

import (
	"context"
	"errors"
	"io"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// GCSOptions configures Google Cloud Storage client initialization.
type GCSOptions struct {
	// CredentialsJSON holds a service account key. Empty uses application
	// default credentials.
	CredentialsJSON []byte
	// Endpoint overrides the API endpoint, e.g. for fake-gcs-server.
	Endpoint    string
	UserAgent   string
	WithoutAuth bool
}

// GCS implements Storage using Google Cloud Storage.
type GCS struct {
	client *gcs.Client
}

// NewGCS constructs a GCS reader.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCS, error) {
	clientOpts := []option.ClientOption{}
	if opts.WithoutAuth {
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	} else if len(opts.CredentialsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, opts.CredentialsJSON, gcs.ScopeReadOnly)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, option.WithCredentials(creds))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	if opts.UserAgent != "" {
		clientOpts = append(clientOpts, option.WithUserAgent(opts.UserAgent))
	}

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}

	return &GCS{client: client}, nil
}

func (g *GCS) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	reader, err := g.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, ObjectInfo{}, gcsError(err)
	}

	info := ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        reader.Attrs.Size,
		ContentType: reader.Attrs.ContentType,
		UpdatedAt:   reader.Attrs.LastModified,
	}

	return reader, info, nil
}

func (g *GCS) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	attrs, err := g.client.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		return ObjectInfo{}, gcsError(err)
	}

	return ObjectInfo{
		Bucket:      attrs.Bucket,
		Key:         attrs.Name,
		Size:        attrs.Size,
		ETag:        attrs.Etag,
		ContentType: attrs.ContentType,
		UpdatedAt:   attrs.Updated,
	}, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

func gcsError(err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
		return errors.Join(ErrObjectNotFound, err)
	}
	return err
}
