package app

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	credentialdb "github.com/shandysiswandi/crmotp/internal/credential/outbound/db"
	notificationdb "github.com/shandysiswandi/crmotp/internal/notification/outbound/db"
	"github.com/shandysiswandi/crmotp/internal/pkg/clock"
	"github.com/shandysiswandi/crmotp/internal/pkg/config"
	"github.com/shandysiswandi/crmotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/crmotp/internal/pkg/hash"
	"github.com/shandysiswandi/crmotp/internal/pkg/idempotency"
	"github.com/shandysiswandi/crmotp/internal/pkg/instrument"
	"github.com/shandysiswandi/crmotp/internal/pkg/mail"
	"github.com/shandysiswandi/crmotp/internal/pkg/messaging"
	"github.com/shandysiswandi/crmotp/internal/pkg/otp"
	"github.com/shandysiswandi/crmotp/internal/pkg/password"
	"github.com/shandysiswandi/crmotp/internal/pkg/router"
	"github.com/shandysiswandi/crmotp/internal/pkg/uid"
	"github.com/shandysiswandi/crmotp/internal/pkg/validator"
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

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // ignore error
		os.Setenv("TZ", tz)
	}

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("app.name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("app.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_grpc_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
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
	a.goroutine = goroutine.NewManager(a.config.GetInt("server.max_goroutine"))
	a.password = password.NewTemporary()

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("uid.snowflake_node"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow

	otpHash, err := hash.NewFromAlgorithm(a.config.GetString("hash.otp.algorithm"), hash.Options{
		Secret: a.config.GetString("hash.otp.secret"),
	})
	if err != nil {
		slog.Error("failed to init otp hash", "error", err)
		os.Exit(1)
	}
	a.otpHash = otpHash

	passwordHash, err := hash.NewFromAlgorithm(a.config.GetString("hash.password.algorithm"), hash.Options{
		Pepper:     a.config.GetString("hash.password.pepper"),
		BcryptCost: a.config.GetInt("hash.password.bcrypt_cost"),
	})
	if err != nil {
		slog.Error("failed to init password hash", "error", err)
		os.Exit(1)
	}
	a.passwordHash = passwordHash

	a.otp = otp.New(otp.Config{
		Hasher: a.otpHash,
		Clock:  a.clock,
		TTL:    a.config.GetSecond("modules.credential.otp_ttl_seconds"),
	})
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	if pass := a.config.GetString("database.password"); pass != "" {
		config.ConnConfig.Password = pass
	}
	config.MaxConns = int32(a.config.GetInt("database.max_conns"))
	config.MinConns = int32(a.config.GetInt("database.min_conns"))
	config.MaxConnLifetime = a.config.GetSecond("database.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.max_conn_idle_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("database.auto_migrate") {
		for name, schema := range map[string]string{
			"credential":   credentialdb.Schema,
			"notification": notificationdb.Schema,
		} {
			if _, err := pool.Exec(a.ctx, schema); err != nil {
				slog.Error("failed to apply schema", "module", name, "error", err)
				os.Exit(1)
			}
		}
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	if pass := a.config.GetString("redis.password"); pass != "" {
		opt.Password = pass
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(a.cacheConn)
}

func (a *App) initMail() {
	mail, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = mail
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(driver, messaging.FactoryOptions{
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer:  a.kafkaDialer(),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("app.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) kafkaDialer() *kafka.Dialer {
	dialer := &kafka.Dialer{
		ClientID:  a.config.GetString("app.name"),
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	if a.config.GetBool("messaging.kafka.tls") {
		dialer.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	if user := a.config.GetString("messaging.kafka.username"); user != "" {
		dialer.SASLMechanism = plain.Mechanism{
			Username: user,
			Password: a.config.GetString("messaging.kafka.password"),
		}
	}

	return dialer
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:         a.config,
		UUID:           a.uuid,
		Instrument:     a.ins,
		TrustedProxies: router.ParseTrustedProxies(a.config.GetArray("server.trusted_proxies")),
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", router.HeaderCorrelationID, router.HeaderAdminKey},
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("server.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("server.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("server.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("server.idle_timeout_seconds"),
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
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				a.dbConn.Close()

				return nil
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
