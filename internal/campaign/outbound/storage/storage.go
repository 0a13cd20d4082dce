package storage

import (
	"context"

	"github.com/shandysiswandi/mailblast/internal/pkg/instrument"
	"github.com/shandysiswandi/mailblast/internal/pkg/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Storage struct {
	client storage.Storage
	ins    instrument.Instrumentation
}

func New(client storage.Storage, ins instrument.Instrumentation) *Storage {
	return &Storage{client: client, ins: ins}
}

func (s *Storage) ReadObject(ctx context.Context, bucket, key string, limit int64) ([]byte, error) {
	ctx, span := s.ins.Tracer("campaign.outbound.storage").Start(ctx, "ReadObject")
	defer span.End()

	span.SetAttributes(attribute.String("storage.bucket", bucket), attribute.String("storage.key", key))

	data, info, err := storage.ReadAll(ctx, s.client, bucket, key, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int64("storage.size", info.Size), attribute.String("storage.etag", info.ETag))

	return data, nil
}
