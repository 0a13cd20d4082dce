package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/mailblast/internal/campaign/entity"
	"github.com/shandysiswandi/mailblast/internal/pkg/clock"
	"github.com/shandysiswandi/mailblast/internal/pkg/config"
	"github.com/shandysiswandi/mailblast/internal/pkg/idempotency"
	"github.com/shandysiswandi/mailblast/internal/pkg/instrument"
	"github.com/shandysiswandi/mailblast/internal/pkg/mail"
	"github.com/shandysiswandi/mailblast/internal/pkg/uid"
	"github.com/shandysiswandi/mailblast/internal/pkg/validator"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type repoMQ interface {
	PublishCampaign(ctx context.Context, job entity.SendJob) error
}

type repoStorage interface {
	ReadObject(ctx context.Context, bucket, key string, limit int64) ([]byte, error)
}

type Usecase struct {
	cfg         config.Config
	clock       clock.Clocker
	uid         uid.NumberID
	validator   validator.Validator
	ins         instrument.Instrumentation
	repoMail    repoMail
	repoMQ      repoMQ
	repoStorage repoStorage
	idem        idempotency.Idempotency
	registry    *registry
	hub         *hub
	// transport admits one delivery loop at a time so pacing holds
	// across concurrent campaigns.
	transport *semaphore.Weighted

	sentCounter    metric.Int64Counter
	failedCounter  metric.Int64Counter
	attemptCounter metric.Int64Counter
}

// Dependency lists what the campaign usecase needs. RepoMQ and RepoStorage
// may be nil when messaging or object storage is not configured.
type Dependency struct {
	Config      config.Config
	Clock       clock.Clocker
	UID         uid.NumberID
	Validator   validator.Validator
	Instrument  instrument.Instrumentation
	RepoMail    repoMail
	RepoMQ      repoMQ
	RepoStorage repoStorage
	Idempotency idempotency.Idempotency
}

func NewCampaign(dep Dependency) *Usecase {
	idem := dep.Idempotency
	if idem == nil {
		idem = idempotency.Noop{}
	}

	s := &Usecase{
		cfg:         dep.Config,
		clock:       dep.Clock,
		uid:         dep.UID,
		validator:   dep.Validator,
		ins:         dep.Instrument,
		repoMail:    dep.RepoMail,
		repoMQ:      dep.RepoMQ,
		repoStorage: dep.RepoStorage,
		idem:        idem,
		registry:    newRegistry(),
		hub:         newHub(),
		transport:   semaphore.NewWeighted(1),
	}

	meter := dep.Instrument.Meter("campaign.usecase")
	var err error
	if s.sentCounter, err = meter.Int64Counter("campaign.emails.sent", metric.WithDescription("Emails delivered")); err != nil {
		slog.Error("failed to create campaign sent counter", "error", err)
	}
	if s.failedCounter, err = meter.Int64Counter("campaign.emails.failed", metric.WithDescription("Emails that failed every attempt")); err != nil {
		slog.Error("failed to create campaign failed counter", "error", err)
	}
	if s.attemptCounter, err = meter.Int64Counter("campaign.attempts", metric.WithDescription("Transport send attempts")); err != nil {
		slog.Error("failed to create campaign attempt counter", "error", err)
	}

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("campaign.usecase").Start(ctx, name)
}

func (s *Usecase) count(ctx context.Context, c metric.Int64Counter) {
	if c != nil {
		c.Add(ctx, 1)
	}
}
