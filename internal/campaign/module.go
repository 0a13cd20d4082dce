package campaign

import (
	"context"

	"github.com/shandysiswandi/mailblast/internal/campaign/inbound"
	"github.com/shandysiswandi/mailblast/internal/campaign/outbound/email"
	"github.com/shandysiswandi/mailblast/internal/campaign/outbound/mq"
	outstorage "github.com/shandysiswandi/mailblast/internal/campaign/outbound/storage"
	"github.com/shandysiswandi/mailblast/internal/campaign/usecase"
	"github.com/shandysiswandi/mailblast/internal/pkg/clock"
	"github.com/shandysiswandi/mailblast/internal/pkg/config"
	"github.com/shandysiswandi/mailblast/internal/pkg/goroutine"
	"github.com/shandysiswandi/mailblast/internal/pkg/idempotency"
	"github.com/shandysiswandi/mailblast/internal/pkg/instrument"
	"github.com/shandysiswandi/mailblast/internal/pkg/mail"
	"github.com/shandysiswandi/mailblast/internal/pkg/messaging"
	"github.com/shandysiswandi/mailblast/internal/pkg/router"
	"github.com/shandysiswandi/mailblast/internal/pkg/storage"
	"github.com/shandysiswandi/mailblast/internal/pkg/uid"
	"github.com/shandysiswandi/mailblast/internal/pkg/validator"
)

// Dependency wires the campaign module. Messaging, Storage and Idempotency
// are optional; the features that need them answer 503 when they are nil.
type Dependency struct {
	Ctx         context.Context
	Messaging   messaging.Messaging
	Storage     storage.Storage
	Idempotency idempotency.Idempotency
	Config      config.Config
	Instrument  instrument.Instrumentation
	UID         uid.NumberID
	UUID        uid.StringID
	Clock       clock.Clocker
	Goroutine   *goroutine.Manager
	Validator   validator.Validator
	Router      *router.Router
	Mail        mail.Mail
}

func New(dep Dependency) error {
	ucDep := usecase.Dependency{
		Config:      dep.Config,
		Clock:       dep.Clock,
		UID:         dep.UID,
		Validator:   dep.Validator,
		Instrument:  dep.Instrument,
		RepoMail:    email.New(dep.Mail, dep.Instrument),
		Idempotency: dep.Idempotency,
	}
	if dep.Messaging != nil {
		ucDep.RepoMQ = mq.NewMessaging(dep.Messaging, dep.Instrument)
	}
	if dep.Storage != nil {
		ucDep.RepoStorage = outstorage.New(dep.Storage, dep.Instrument)
	}

	uc := usecase.NewCampaign(ucDep)

	inbound.RegisterHTTPEndpoint(dep.Router, dep.Config, uc)
	if dep.Ctx != nil && dep.Messaging != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
