package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/shandysiswandi/mailblast/internal/pkg/instrument"
	"github.com/shandysiswandi/mailblast/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects map[string][]byte

func (f fakeObjects) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	data, ok := f[bucket+"/"+key]
	if !ok {
		return nil, storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (f fakeObjects) StatObject(ctx context.Context, bucket, key string) (storage.ObjectInfo, error) {
	_, info, err := f.GetObject(ctx, bucket, key)
	return info, err
}

func (f fakeObjects) Close() error { return nil }

func TestReadObject(t *testing.T) {
	s := New(fakeObjects{"lists/june.csv": []byte("email\na@x.com\n")}, instrument.NewNoop())

	data, err := s.ReadObject(context.Background(), "lists", "june.csv", 1024)
	require.NoError(t, err)
	assert.Equal(t, "email\na@x.com\n", string(data))

	_, err = s.ReadObject(context.Background(), "lists", "june.csv", 4)
	assert.ErrorIs(t, err, storage.ErrObjectTooLarge)

	_, err = s.ReadObject(context.Background(), "lists", "july.csv", 1024)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}
