package app

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
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

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID

	// resources
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging
	storage   storage.Storage

	// server
	router       *router.Router
	httpServer   *http.Server
	streamServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initCache()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
