package config

import (
	"io"
	"time"
)

// Config is the read-only view of application configuration.
//
// Implementations return the zero value when a key is missing or cannot be
// converted; callers that need a fallback should rely on registered defaults.
type Config interface {
	io.Closer

	// GetBool returns the value for key as a bool.
	GetBool(key string) bool
	// GetString returns the value for key as a string.
	GetString(key string) string
	// GetInt returns the value for key as an int.
	GetInt(key string) int
	// GetInt64 returns the value for key as an int64.
	GetInt64(key string) int64
	// GetFloat64 returns the value for key as a float64.
	GetFloat64(key string) float64
	// GetSecond interprets the value for key as a number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute interprets the value for key as a number of minutes.
	GetMinute(key string) time.Duration
	// GetBinary decodes a base64 value for key.
	GetBinary(key string) []byte
	// GetArray splits a "<a>,<b>,..." value for key, dropping empty elements.
	GetArray(key string) []string
	// GetMap parses a "<k1>:<v1>,<k2>:<v2>" value for key.
	GetMap(key string) map[string]string
}

// envBindings maps configuration keys to the environment variables that
// override them. The SMTP_* names match what operators already export for the
// mail relay.
var envBindings = map[string]string{
	"mail.host":                     "SMTP_HOST",
	"mail.port":                     "SMTP_PORT",
	"mail.username":                 "SMTP_USER",
	"mail.password":                 "SMTP_PASS",
	"mail.from":                     "SMTP_FROM",
	"database.password":             "DATABASE_PASSWORD",
	"redis.password":                "REDIS_PASSWORD",
	"hash.otp.secret":               "OTP_HASH_SECRET",
	"hash.password.pepper":          "PASSWORD_PEPPER",
	"modules.credential.admin_key":  "CREDENTIAL_ADMIN_KEY",
	"instrument.otlp_grpc_endpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",
}

// defaults are applied before the config file is read.
var defaults = map[string]any{
	"app.name":                                    "crmotp",
	"app.env":                                     "development",
	"app.display_name":                            "CRM",
	"server.address":                              ":8080",
	"server.read_timeout_seconds":                 15,
	"server.write_timeout_seconds":                15,
	"server.read_header_timeout_seconds":          5,
	"server.idle_timeout_seconds":                 60,
	"server.shutdown_timeout_seconds":             20,
	"server.max_goroutine":                        100,
	"instrument.trace_sample_ratio":               1.0,
	"instrument.metric_interval_seconds":          30,
	"database.max_conns":                          10,
	"database.min_conns":                          1,
	"database.auto_migrate":                       false,
	"uid.snowflake_node":                          1,
	"mail.port":                                   587,
	"messaging.driver":                            "nats",
	"hash.otp.algorithm":                          "sha256",
	"hash.password.algorithm":                     "bcrypt",
	"hash.password.bcrypt_cost":                   10,
	"modules.credential.enabled":                  true,
	"modules.credential.otp_ttl_seconds":          300,
	"modules.credential.max_attempts":             5,
	"modules.credential.resend_cooldown_seconds":  30,
	"modules.credential.rate_limit_per_minute":    30,
	"modules.notification.enabled":                true,
	"modules.notification.mail_timeout_seconds":   10,
	"modules.notification.consumer_concurrency":   4,
	"modules.notification.welcome_retry_attempts": 3,
	"modules.notification.welcome_retry_base_ms":  500,
}
