package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"scheduling-service/internal/logger"
)

const (
	EnvPort                = "PORT"
	EnvDatabaseURL         = "DATABASE_URL"
	EnvTimezone            = "APP_TIMEZONE"
	EnvLogLevel            = "LOG_LEVEL"
	EnvLogFormat           = "LOG_FORMAT"
	EnvJWTSecret           = "JWT_HMAC_SECRET"
	EnvStaticTokens        = "STATIC_TOKENS"
	EnvGoogleClientID      = "GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret  = "GOOGLE_CLIENT_SECRET"
	EnvGoogleRedirectURL   = "GOOGLE_REDIRECT_URL"
	EnvCalendarEventPrefix = "CALENDAR_EVENT_PREFIX"
	EnvCalendarSyncTimeout = "CALENDAR_SYNC_TIMEOUT"
	EnvSyncRetryInterval   = "SYNC_RETRY_INTERVAL"
	EnvSyncBatchSize       = "SYNC_BATCH_SIZE"
	EnvSyncMaxAttempts     = "SYNC_MAX_ATTEMPTS"
	EnvKafkaBrokers        = "KAFKA_BROKERS"
	EnvKafkaBookingTopic   = "KAFKA_BOOKING_TOPIC"
	EnvRedisAddr           = "REDIS_ADDR"
	EnvRedisPassword       = "REDIS_PASSWORD"
	EnvRateLimitRequests   = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow     = "RATE_LIMIT_WINDOW"
	EnvCORSAllowedOrigins  = "CORS_ALLOWED_ORIGINS"
	EnvTrustedProxies      = "TRUSTED_PROXIES"
	EnvReadTimeout         = "READ_TIMEOUT"
	EnvWriteTimeout        = "WRITE_TIMEOUT"
	EnvIdleTimeout         = "IDLE_TIMEOUT"
	EnvShutdownTimeout     = "SHUTDOWN_TIMEOUT"
)

const (
	DefaultPort                = "8080"
	DefaultTimezone            = "UTC"
	DefaultLogLevel            = logger.INFO
	DefaultLogFormat           = logger.JSON
	DefaultCalendarEventPrefix = "Call"
	DefaultCalendarSyncTimeout = 10 * time.Second
	DefaultSyncRetryInterval   = time.Minute
	DefaultSyncBatchSize       = 20
	DefaultSyncMaxAttempts     = 5
	DefaultKafkaBookingTopic   = "booking.created"
	DefaultRateLimitRequests   = 30
	DefaultRateLimitWindow     = time.Minute
	DefaultCORSAllowedOrigins  = "*"
	DefaultReadTimeout         = 10 * time.Second
	DefaultWriteTimeout        = 15 * time.Second
	DefaultIdleTimeout         = 60 * time.Second
	DefaultShutdownTimeout     = 10 * time.Second
)

type Config struct {
	Port        string
	DatabaseURL string
	Timezone    string
	Location    *time.Location

	LogLevel  string
	LogFormat string

	JWTSecret    string
	StaticTokens []string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	CalendarEventPrefix string
	CalendarSyncTimeout time.Duration
	SyncRetryInterval   time.Duration
	SyncBatchSize       int
	SyncMaxAttempts     int

	KafkaBrokers      []string
	KafkaBookingTopic string

	RedisAddr     string
	RedisPassword string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	CORSAllowedOrigins []string
	// TrustedProxies lists the proxy addresses or CIDRs whose
	// X-Forwarded-For is believed. Empty means the peer address is the client.
	TrustedProxies []string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads an optional .env file followed by the process environment.
func Load() (*Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvStr(EnvPort, DefaultPort),
		DatabaseURL: getEnvStr(EnvDatabaseURL, ""),
		Timezone:    getEnvStr(EnvTimezone, DefaultTimezone),

		LogLevel:  getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat: getEnvStr(EnvLogFormat, DefaultLogFormat),

		JWTSecret:    getEnvStr(EnvJWTSecret, ""),
		StaticTokens: getEnvList(EnvStaticTokens, ""),

		GoogleClientID:     getEnvStr(EnvGoogleClientID, ""),
		GoogleClientSecret: getEnvStr(EnvGoogleClientSecret, ""),
		GoogleRedirectURL:  getEnvStr(EnvGoogleRedirectURL, ""),

		CalendarEventPrefix: getEnvStr(EnvCalendarEventPrefix, DefaultCalendarEventPrefix),
		CalendarSyncTimeout: getEnvDuration(EnvCalendarSyncTimeout, DefaultCalendarSyncTimeout),
		SyncRetryInterval:   getEnvDuration(EnvSyncRetryInterval, DefaultSyncRetryInterval),
		SyncBatchSize:       getEnvNum(EnvSyncBatchSize, DefaultSyncBatchSize),
		SyncMaxAttempts:     getEnvNum(EnvSyncMaxAttempts, DefaultSyncMaxAttempts),

		KafkaBrokers:      getEnvList(EnvKafkaBrokers, ""),
		KafkaBookingTopic: getEnvStr(EnvKafkaBookingTopic, DefaultKafkaBookingTopic),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		CORSAllowedOrigins: getEnvList(EnvCORSAllowedOrigins, DefaultCORSAllowedOrigins),
		TrustedProxies:     getEnvList(EnvTrustedProxies, ""),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and reports all problems at once. It also
// resolves Timezone into Location.
func (cfg *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT must be between 1 and 65535, got: %s", cfg.Port))
	}
	if cfg.DatabaseURL == "" {
		problems = append(problems, "DATABASE_URL required")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		problems = append(problems, fmt.Sprintf("APP_TIMEZONE is not a known time zone: %s", cfg.Timezone))
	} else {
		cfg.Location = loc
	}

	if cfg.GoogleCalendarEnabled() && (cfg.GoogleClientSecret == "" || cfg.GoogleRedirectURL == "") {
		problems = append(problems, "GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL are required with GOOGLE_CLIENT_ID")
	}

	positive := map[string]time.Duration{
		EnvCalendarSyncTimeout: cfg.CalendarSyncTimeout,
		EnvSyncRetryInterval:   cfg.SyncRetryInterval,
		EnvRateLimitWindow:     cfg.RateLimitWindow,
		EnvReadTimeout:         cfg.ReadTimeout,
		EnvWriteTimeout:        cfg.WriteTimeout,
		EnvIdleTimeout:         cfg.IdleTimeout,
		EnvShutdownTimeout:     cfg.ShutdownTimeout,
	}
	for _, key := range []string{EnvCalendarSyncTimeout, EnvSyncRetryInterval, EnvRateLimitWindow, EnvReadTimeout, EnvWriteTimeout, EnvIdleTimeout, EnvShutdownTimeout} {
		if positive[key] <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %s", key, positive[key]))
		}
	}

	if cfg.SyncBatchSize <= 0 {
		problems = append(problems, fmt.Sprintf("SYNC_BATCH_SIZE must be positive, got: %d", cfg.SyncBatchSize))
	}
	if cfg.SyncMaxAttempts <= 0 {
		problems = append(problems, fmt.Sprintf("SYNC_MAX_ATTEMPTS must be positive, got: %d", cfg.SyncMaxAttempts))
	}
	if cfg.RateLimitRequests <= 0 {
		problems = append(problems, fmt.Sprintf("RATE_LIMIT_REQUESTS must be positive, got: %d", cfg.RateLimitRequests))
	}
	for _, proxy := range cfg.TrustedProxies {
		if !validProxy(proxy) {
			problems = append(problems, fmt.Sprintf("TRUSTED_PROXIES entry is not an IP or CIDR: %s", proxy))
		}
	}

	if len(problems) > 0 {
		msg := "configuration validation failed:\n"
		for i, p := range problems {
			msg += fmt.Sprintf("  %d. %s\n", i+1, p)
		}
		return errors.New(msg)
	}
	return nil
}

func (cfg *Config) GoogleCalendarEnabled() bool {
	return cfg.GoogleClientID != ""
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"database_url", redactDatabaseURL(cfg.DatabaseURL),
		"timezone", cfg.Timezone,
		"log_level", cfg.LogLevel,
		"jwt_secret_set", cfg.JWTSecret != "",
		"static_tokens", len(cfg.StaticTokens),
		"google_calendar_enabled", cfg.GoogleCalendarEnabled(),
		"calendar_sync_timeout", cfg.CalendarSyncTimeout,
		"sync_retry_interval", cfg.SyncRetryInterval,
		"sync_batch_size", cfg.SyncBatchSize,
		"sync_max_attempts", cfg.SyncMaxAttempts,
		"kafka_brokers", cfg.KafkaBrokers,
		"kafka_booking_topic", cfg.KafkaBookingTopic,
		"redis_enabled", cfg.RedisAddr != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"cors_allowed_origins", cfg.CORSAllowedOrigins,
		"trusted_proxies", cfg.TrustedProxies,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func validProxy(s string) bool {
	if strings.Contains(s, "/") {
		_, _, err := net.ParseCIDR(s)
		return err == nil
	}
	return net.ParseIP(s) != nil
}

func redactDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	var out []string
	for _, item := range strings.Split(getEnvStr(key, fallback), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
