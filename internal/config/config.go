package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type (
	// Config holds configuration settings for the approval service
	Config struct {
		// API Server
		APIHost         string
		APIPort         int
		CallbackBaseURL string
		LogLevel        string
		ShutdownTimeout time.Duration

		// Checkpoint store
		Redis RedisConfig

		// Notifier
		SMTP SMTPConfig

		// Payment executor
		PaymentEndpoint string
		PaymentTimeout  time.Duration

		// Archive (optional; empty URL disables archiving)
		ArchiveBucketURL string
		ArchivePrefix    string
	}

	// RedisConfig holds connection settings for the checkpoint store
	RedisConfig struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}

	// SMTPConfig holds settings for the email notifier. An empty Host
	// selects the log notifier
	SMTPConfig struct {
		Host string
		Port int
		From string
	}
)

const (
	DefaultAPIHost         = "0.0.0.0"
	DefaultAPIPort         = 8080
	DefaultCallbackBaseURL = "http://localhost:8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultPaymentTimeout  = 30 * time.Second

	DefaultRedisAddr   = "localhost:6379"
	DefaultRedisDB     = 0
	DefaultRedisPrefix = "signoff"

	DefaultSMTPPort = 587

	MaxTCPPort        = 65535
	MaxPaymentTimeout = 10 * time.Minute
)

var (
	ErrInvalidAPIPort        = errors.New("invalid API port")
	ErrInvalidSMTPPort       = errors.New("invalid SMTP port")
	ErrInvalidCallbackURL    = errors.New("invalid callback base URL")
	ErrInvalidPaymentTimeout = errors.New("payment timeout must be positive")
	ErrMissingRedisAddr      = errors.New("redis address is required")
	ErrMissingSMTPFrom       = errors.New(
		"smtp from address is required when smtp host is set",
	)
)

// NewDefaultConfig creates a configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:         DefaultAPIHost,
		APIPort:         DefaultAPIPort,
		CallbackBaseURL: DefaultCallbackBaseURL,
		LogLevel:        "info",
		ShutdownTimeout: DefaultShutdownTimeout,
		Redis: RedisConfig{
			Addr:   DefaultRedisAddr,
			DB:     DefaultRedisDB,
			Prefix: DefaultRedisPrefix,
		},
		SMTP: SMTPConfig{
			Port: DefaultSMTPPort,
		},
		PaymentTimeout: DefaultPaymentTimeout,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	if host := os.Getenv("API_HOST"); host != "" {
		c.APIHost = host
	}
	if base := os.Getenv("CALLBACK_BASE_URL"); base != "" {
		c.CallbackBaseURL = base
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}
	if prefix := os.Getenv("REDIS_PREFIX"); prefix != "" {
		c.Redis.Prefix = prefix
	}

	if host := os.Getenv("SMTP_HOST"); host != "" {
		c.SMTP.Host = host
	}
	if from := os.Getenv("FROM_EMAIL"); from != "" {
		c.SMTP.From = from
	}

	if endpoint := os.Getenv("PAYMENT_ENDPOINT"); endpoint != "" {
		c.PaymentEndpoint = endpoint
	}
	if bucket := os.Getenv("ARCHIVE_BUCKET_URL"); bucket != "" {
		c.ArchiveBucketURL = bucket
	}
	if prefix := os.Getenv("ARCHIVE_PREFIX"); prefix != "" {
		c.ArchivePrefix = prefix
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt("SMTP_PORT", &c.SMTP.Port, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt("REDIS_DB", &c.Redis.DB, -1, 15); err != nil {
		return err
	}

	if s := os.Getenv("PAYMENT_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid PAYMENT_TIMEOUT: %q", s)
		}
		c.PaymentTimeout = d
	}

	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}

	if _, err := url.ParseRequestURI(c.CallbackBaseURL); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidCallbackURL, c.CallbackBaseURL)
	}

	if c.Redis.Addr == "" {
		return ErrMissingRedisAddr
	}

	if c.SMTP.Host != "" {
		if c.SMTP.Port <= 0 || c.SMTP.Port > MaxTCPPort {
			return fmt.Errorf("%w: %d", ErrInvalidSMTPPort, c.SMTP.Port)
		}
		if c.SMTP.From == "" {
			return ErrMissingSMTPFrom
		}
	}

	if c.PaymentTimeout <= 0 || c.PaymentTimeout > MaxPaymentTimeout {
		return ErrInvalidPaymentTimeout
	}

	return nil
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max). Returns an error if
// the value cannot be parsed or falls outside the valid range
func loadEnvInt(key string, dst *int, min, max int) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	if v <= min || v > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, v, min+1, max)
	}
	*dst = v
	return nil
}
