package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/mailblast/internal/campaign/entity"
	"github.com/shandysiswandi/mailblast/internal/pkg/goerror"
	"github.com/shandysiswandi/mailblast/internal/pkg/storage"
)

const (
	maxImportRows         = 10000
	defaultImportMaxBytes = 5 << 20
)

var (
	errImportTooLarge = errors.New("recipient file exceeds max size")
	errTooManyRows    = fmt.Errorf("recipient file has more than %d rows", maxImportRows)

	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
)

type (
	ImportRecipientsInput struct {
		File io.Reader
	}

	ImportRecipientsFromObjectInput struct {
		Bucket string `validate:"required,max=255"`
		Key    string `validate:"required,max=1024"`
	}

	ImportRecipientsOutput struct {
		Recipients []entity.Recipient
	}
)

// ImportRecipients parses an uploaded CSV recipient list.
func (s *Usecase) ImportRecipients(ctx context.Context, in ImportRecipientsInput) (*ImportRecipientsOutput, error) {
	ctx, span := s.startSpan(ctx, "ImportRecipients")
	defer span.End()

	if in.File == nil {
		return nil, goerror.NewInvalidInput(nil, "file", "file is required")
	}

	data, err := io.ReadAll(&maxBytesReader{r: in.File, max: s.importMaxBytes()})
	if errors.Is(err, errImportTooLarge) {
		return nil, goerror.NewBusiness("Recipient file too large", goerror.CodePayloadTooLarge)
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to read recipient file", "error", err)
		return nil, goerror.NewInvalidFormat("Failed to read recipient file")
	}

	return s.importCSV(ctx, data)
}

// ImportRecipientsFromObject parses a CSV recipient list kept in object storage.
func (s *Usecase) ImportRecipientsFromObject(ctx context.Context, in ImportRecipientsFromObjectInput) (*ImportRecipientsOutput, error) {
	ctx, span := s.startSpan(ctx, "ImportRecipientsFromObject")
	defer span.End()

	if s.repoStorage == nil {
		return nil, goerror.NewBusiness("Object storage is not configured", goerror.CodeUnavailable)
	}

	in.Bucket = strings.TrimSpace(in.Bucket)
	in.Key = strings.TrimSpace(in.Key)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	data, err := s.repoStorage.ReadObject(ctx, in.Bucket, in.Key, s.importMaxBytes())
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		return nil, goerror.NewBusiness("Recipient file not found", goerror.CodeNotFound)
	case errors.Is(err, storage.ErrObjectTooLarge):
		return nil, goerror.NewBusiness("Recipient file too large", goerror.CodePayloadTooLarge)
	case err != nil:
		slog.ErrorContext(ctx, "failed to repo read object", "bucket", in.Bucket, "key", in.Key, "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.importCSV(ctx, data)
}

func (s *Usecase) importMaxBytes() int64 {
	if s.cfg != nil {
		if v := s.cfg.GetInt64("modules.campaign.import_max_bytes"); v > 0 {
			return v
		}
	}
	return defaultImportMaxBytes
}

func (s *Usecase) importCSV(ctx context.Context, data []byte) (*ImportRecipientsOutput, error) {
	recipients, err := ParseRecipientsCSV(data)
	if errors.Is(err, errTooManyRows) {
		return nil, goerror.NewInvalidInput(nil, "file", errTooManyRows.Error())
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to parse recipient file", "error", err)
		return nil, goerror.NewInvalidFormat("Invalid CSV file")
	}

	return &ImportRecipientsOutput{Recipients: recipients}, nil
}

// ParseRecipientsCSV reads name/email rows. A first row containing an
// "email" cell is a header and columns are matched by name; otherwise rows
// are positional name,email and a single-cell row is an email. Cells are
// trimmed and rows without an email are dropped.
func ParseRecipientsCSV(data []byte) ([]entity.Recipient, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []entity.Recipient{}, nil
	}

	nameCol, emailCol, positional := 0, 1, true
	header := lo.Map(rows[0], func(c string, _ int) string {
		return strings.ToLower(strings.TrimSpace(c))
	})
	if idx := lo.IndexOf(header, "email"); idx >= 0 {
		emailCol = idx
		nameCol = lo.IndexOf(header, "name")
		positional = false
		rows = rows[1:]
	}

	recipients := lo.FilterMap(rows, func(row []string, _ int) (entity.Recipient, bool) {
		if positional && len(row) == 1 {
			return entity.Recipient{Email: cell(row, 0)}, cell(row, 0) != ""
		}
		rec := entity.Recipient{Name: cell(row, nameCol), Email: cell(row, emailCol)}
		return rec, rec.Email != ""
	})
	if len(recipients) > maxImportRows {
		return nil, errTooManyRows
	}

	return recipients, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

type maxBytesReader struct {
	r    io.Reader
	max  int64
	read int64
}

func (m *maxBytesReader) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	m.read += int64(n)
	if m.read > m.max {
		return n, errImportTooLarge
	}
	return n, err
}
