package app

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
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
	"google.golang.org/api/option"
)

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: float64(a.config.GetInt("instrument.trace_sample_percent")) / 100,
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	validator, err := validator.NewV10Validator(validator.WithSenderDomains(func() []string {
		return a.config.GetArray("mail.allowed_sender_domains")
	}))
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

// initCache connects Redis for idempotency keys. Without redis.url the
// Idempotency-Key header is accepted but not enforced.
func (a *App) initCache() {
	url := strings.TrimSpace(a.config.GetString("redis.url"))
	if url == "" {
		slog.Warn("redis is not configured, idempotency keys are not enforced")
		a.idemp = idempotency.Noop{}
		return
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(a.cacheConn, a.config.GetString("redis.idempotency_prefix"))
}

func (a *App) initMail() {
	driver := a.config.GetString("mail.driver")
	client, err := mail.NewFromDriver(a.ctx, driver, mail.FactoryOptions{
		From: a.config.GetString("mail.from"),
		SMTP: mail.SMTPConfig{
			Host:     a.config.GetString("mail.smtp.host"),
			Port:     a.config.GetInt("mail.smtp.port"),
			Username: a.config.GetString("mail.smtp.username"),
			Password: a.config.GetString("mail.smtp.password"),
			TLS:      a.config.GetString("mail.smtp.tls"),
			Timeout:  a.config.GetSecond("mail.smtp.timeout_seconds"),
		},
		Resend: mail.ResendConfig{
			APIKey:  a.config.GetString("mail.resend.api_key"),
			BaseURL: a.config.GetString("mail.resend.base_url"),
		},
		SES: mail.SESConfig{
			Region:           strings.TrimSpace(a.config.GetString("mail.ses.region")),
			Endpoint:         strings.TrimSpace(a.config.GetString("mail.ses.endpoint")),
			AccessKey:        strings.TrimSpace(a.config.GetString("mail.ses.access_key")),
			SecretKey:        strings.TrimSpace(a.config.GetString("mail.ses.secret_key")),
			SessionToken:     strings.TrimSpace(a.config.GetString("mail.ses.session_token")),
			ConfigurationSet: strings.TrimSpace(a.config.GetString("mail.ses.configuration_set")),
		},
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.mail = client
}

func (a *App) initStorage() {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))

	var gcsCredentials []byte
	if driver == storage.DriverGCS {
		if v := strings.TrimSpace(a.config.GetString("storage.gcs.credentials_file")); v != "" {
			// #nosec G304 -- path is from trusted config file.
			credsJSON, err := os.ReadFile(v)
			if err != nil {
				slog.Error("failed to read gcs credentials file", "error", err)
				os.Exit(1)
			}
			gcsCredentials = credsJSON
		}
	}

	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		S3: storage.S3Options{
			Region:       strings.TrimSpace(a.config.GetString("storage.s3.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.s3.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.s3.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.s3.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.s3.session_token")),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			CredentialsJSON: gcsCredentials,
			Endpoint:        strings.TrimSpace(a.config.GetString("storage.gcs.endpoint")),
			UserAgent:       strings.TrimSpace(a.config.GetString("storage.gcs.user_agent")),
			WithoutAuth:     a.config.GetBool("storage.gcs.without_auth"),
		},
		MinIO: storage.MinIOOptions{
			Region:       strings.TrimSpace(a.config.GetString("storage.minio.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.minio.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.minio.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.minio.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.minio.session_token")),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	})
	if err != nil {
		slog.Error("failed to init storage", "error", err, "driver", driver)
		os.Exit(1)
	}

	// nil when storage.driver is none
	a.storage = stg
}

func (a *App) initMessaging() {
	driver := strings.TrimSpace(a.config.GetString("messaging.driver"))
	if driver == "" {
		slog.Warn("messaging is not configured, queued campaigns are disabled")
		return
	}

	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.config.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
			ProducerConfig: func() *nsq.Config {
				cfg := nsq.NewConfig()
				cfg.DialTimeout = a.config.GetSecond("messaging.nsq.producer_config.dial_timeout_seconds")
				cfg.ReadTimeout = a.config.GetSecond("messaging.nsq.producer_config.read_timeout_seconds")
				cfg.WriteTimeout = a.config.GetSecond("messaging.nsq.producer_config.write_timeout_seconds")
				return cfg
			}(),
			ConsumerConfig: func() *nsq.Config {
				cfg := nsq.NewConfig()
				cfg.MaxInFlight = 1
				cfg.LookupdPollInterval = a.config.GetSecond("messaging.nsq.consumer_config.lookupd_poll_interval_seconds")
				cfg.DialTimeout = a.config.GetSecond("messaging.nsq.consumer_config.dial_timeout_seconds")
				cfg.ReadTimeout = a.config.GetSecond("messaging.nsq.consumer_config.read_timeout_seconds")
				cfg.WriteTimeout = a.config.GetSecond("messaging.nsq.consumer_config.write_timeout_seconds")
				return cfg
			}(),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID:  a.config.GetString("messaging.kafka.client_id"),
				Timeout:   a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
				DualStack: true,
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID: a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: func() []option.ClientOption {
				var opts []option.ClientOption
				if v := strings.TrimSpace(a.config.GetString("messaging.pubsub.endpoint")); v != "" {
					opts = append(opts, option.WithEndpoint(v), option.WithoutAuthentication())
				}
				return opts
			}(),
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
	})

	a.router.GET("/health", func(r *router.Request) (any, error) {
		return map[string]string{"status": "ok"}, nil
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Campaign-ID", "X-Correlation-ID"},
		AllowCredentials: true,
	}).Handler(a.router)

	// in-flight streams observe shutdown through the request context
	baseCtx := func(net.Listener) context.Context { return a.ctx }

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		BaseContext:       baseCtx,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}

	// long-running NDJSON and SSE responses have no write timeout
	a.streamServer = &http.Server{
		Addr:              a.config.GetString("app.server.stream.address"),
		Handler:           routerWithCORS,
		BaseContext:       baseCtx,
		ReadHeaderTimeout: a.config.GetSecond("app.server.stream.read_header_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				if a.messaging == nil {
					return nil
				}
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				if a.cacheConn == nil {
					return nil
				}
				return a.cacheConn.Close()
			},
		},
		{
			name: "Storage",
			fn: func(context.Context) error {
				if a.storage == nil {
					return nil
				}
				return a.storage.Close()
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
