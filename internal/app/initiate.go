package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/krishignan/krishignan/internal/pkg/clock"
	"github.com/krishignan/krishignan/internal/pkg/config"
	"github.com/krishignan/krishignan/internal/pkg/goroutine"
	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"github.com/krishignan/krishignan/internal/pkg/mail"
	"github.com/krishignan/krishignan/internal/pkg/messaging"
	"github.com/krishignan/krishignan/internal/pkg/router"
	"github.com/krishignan/krishignan/internal/pkg/uid"
	"github.com/krishignan/krishignan/internal/pkg/validator"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fatal logs err and exits; wiring errors leave nothing to serve.
func fatal(msg string, err error, kv ...any) {
	slog.Error(msg, append([]any{"error", err}, kv...)...)
	os.Exit(1)
}

// pingWithin gives a freshly opened connection five seconds to answer.
func (a *App) pingWithin(ping func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()

	return ping(ctx)
}

// onStop registers a closer; Stop runs them last registered first.
func (a *App) onStop(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

func (a *App) initConfig() {
	local := os.Getenv("LOCAL") == "true"
	if local {
		config.LoadDotEnv()
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if local {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		fatal("failed to load config", err, "path", path)
	}

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // TZ is only read by time.Local on first use
		os.Setenv("TZ", tz)
	}

	a.config = cfg
	a.onStop("Config", func(context.Context) error { return cfg.Close() })
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogLevel:         a.config.GetString("instrument.log_level"),
	})
	if err != nil {
		fatal("failed to init instrumentation", err)
	}

	a.ins = ins
	a.onStop("Instrument", ins.Shutdown)
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	v, err := validator.NewV10Validator()
	if err != nil {
		fatal("failed to build validator", err)
	}

	snow, err := uid.NewSnowflake()
	if err != nil {
		fatal("failed to build snowflake generator", err)
	}

	a.validator = v
	a.uid = snow
}

func (a *App) initDatabase() {
	switch driver := strings.ToLower(strings.TrimSpace(a.config.GetString("database.driver"))); driver {
	case "mongo", "mongodb":
		a.initMongo()
	case "postgres", "":
		a.initPostgres()
	default:
		fatal("unknown database driver", nil, "driver", driver)
	}
}

func (a *App) initPostgres() {
	pc, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		fatal("invalid database.url", err)
	}

	const pool = "database.pool."
	pc.MaxConns = a.config.GetInt32(pool + "max_conns")
	pc.MinConns = a.config.GetInt32(pool + "min_conns")
	pc.MaxConnLifetime = a.config.GetSecond(pool + "max_conn_lifetime_seconds")
	pc.MaxConnIdleTime = a.config.GetSecond(pool + "max_conn_idle_seconds")
	pc.HealthCheckPeriod = a.config.GetSecond(pool + "health_check_period_seconds")

	conn, err := pgxpool.NewWithConfig(a.ctx, pc)
	if err != nil {
		fatal("failed to open postgres pool", err)
	}

	if err := a.pingWithin(conn.Ping); err != nil {
		fatal("postgres did not answer ping", err)
	}

	a.dbConn = conn
	a.onStop("Postgres", func(context.Context) error {
		conn.Close()
		return nil
	})
}

func (a *App) initMongo() {
	opts := options.Client().
		ApplyURI(a.config.GetString("database.mongo.uri")).
		SetMaxPoolSize(uint64(a.config.GetUint("database.mongo.max_pool_size"))).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(a.ctx, opts)
	if err != nil {
		fatal("failed to connect mongo", err)
	}

	if err := a.pingWithin(func(ctx context.Context) error { return client.Ping(ctx, nil) }); err != nil {
		fatal("mongo did not answer ping", err)
	}

	a.mongoDB = client.Database(a.config.GetString("database.mongo.name"))
	a.onStop("Mongo", client.Disconnect)
}

// initCache connects Redis only when redis.url is set; the recovery module
// refuses the redis store without it.
func (a *App) initCache() {
	url := strings.TrimSpace(a.config.GetString("redis.url"))
	if url == "" {
		return
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		fatal("failed to parse redis url", err)
	}

	rdb := redis.NewClient(opt)
	if err := a.pingWithin(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }); err != nil {
		fatal("redis did not answer ping", err)
	}

	a.cacheConn = rdb
	a.onStop("Redis", func(context.Context) error { return rdb.Close() })
}

func (a *App) initMail() {
	var client mail.Mail
	switch driver := strings.ToLower(strings.TrimSpace(a.config.GetString("mail.driver"))); driver {
	case "log":
		client = mail.NewLog()
	case "smtp", "":
		smtp, err := mail.NewSMTP(mail.SMTPConfig{
			Host:     a.config.GetString("mail.host"),
			Port:     a.config.GetInt("mail.port"),
			Username: a.config.GetString("mail.username"),
			Password: a.config.GetString("mail.password"),
			From:     a.config.GetString("mail.from"),
			Timeout:  a.config.GetSecond("mail.timeout_seconds"),
		})
		if err != nil {
			fatal("failed to init mail", err)
		}
		client = smtp
	default:
		fatal("unknown mail driver", nil, "driver", driver)
	}

	a.mail = mail.NewBreaker(client, mail.BreakerConfig{
		Name:        "mail",
		MaxFailures: uint32(a.config.GetUint("mail.breaker.max_failures")), //nolint:gosec // small config value
		Interval:    a.config.GetSecond("mail.breaker.interval_seconds"),
		Timeout:     a.config.GetSecond("mail.breaker.timeout_seconds"),
	})
	a.onStop("Mail", func(context.Context) error { return a.mail.Close() })
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		Memory: messaging.MemoryConfig{
			Buffer:          a.config.GetInt("messaging.memory.buffer"),
			RedeliveryDelay: a.config.GetMillisecond("messaging.memory.redelivery_delay_ms"),
		},
		NSQ: messaging.NSQConfig{
			ProducerAddr:   a.config.GetString("messaging.nsq.producer_addr"),
			NSQDAddrs:      a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			LookupdAddrs:   a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
			RequeueBackoff: a.config.GetSecond("messaging.nsq.requeue_backoff_seconds"),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID:  a.config.GetString("messaging.kafka.client_id"),
				Timeout:   a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
				DualStack: true,
			},
		},
		NATS: messaging.NATSConfig{
			URL:     a.config.GetString("messaging.nats.url"),
			Options: a.natsOptions(),
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:       a.config.GetString("messaging.pubsub.project_id"),
			CredentialsJSON: a.config.GetBinary("messaging.pubsub.credentials_json"),
			Endpoint:        a.config.GetString("messaging.pubsub.endpoint"),
		},
	})
	if err != nil {
		fatal("failed to init messaging", err, "driver", driver)
	}

	a.messaging = client
	a.onStop("Messaging", func(context.Context) error { return client.Close() })
}

func (a *App) natsOptions() []nats.Option {
	const key = "messaging.nats."

	return []nats.Option{
		nats.Name(a.config.GetString(key + "name")),
		nats.MaxReconnects(a.config.GetInt(key + "max_reconnects")),
		nats.Timeout(a.config.GetSecond(key + "timeout_seconds")),
		nats.ReconnectWait(a.config.GetSecond(key + "reconnect_wait_seconds")),
		nats.RetryOnFailedConnect(a.config.GetBool(key + "retry_on_failed_connect")),
	}
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
	})
	a.router.Handle(http.MethodGet, "/api/health", healthHandler(a.clock))

	a.goroutine.Go(a.ctx, func(ctx context.Context) error {
		return a.router.RunJanitor(ctx, a.config.GetSecond("app.rate_limit.janitor_interval_seconds"))
	})

	// The frontend calls the auth endpoints cross-origin with credentials.
	handler := cors.New(cors.Options{
		AllowedOrigins:   a.config.GetArray("app.server.cors"),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", router.HeaderRequestID, router.HeaderCorrelationID},
		ExposedHeaders:   []string{router.HeaderCorrelationID, "Retry-After"},
		AllowCredentials: true,
	}).Handler(a.router)

	const key = "app.server.http."
	a.httpServer = &http.Server{
		Addr:              a.config.GetString(key + "address"),
		Handler:           handler,
		ReadTimeout:       a.config.GetSecond(key + "read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond(key + "read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond(key + "write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond(key + "idle_timeout_seconds"),
	}
}
