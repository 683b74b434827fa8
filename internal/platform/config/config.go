package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr         string
	LogLevel     string
	DatabaseURL  string
	StoreTimeout time.Duration

	Redis   RedisConfig
	Kafka   KafkaConfig
	SMTP    SMTPConfig
	Lending LendingConfig
	Sweep   SweepConfig
}

// RedisConfig configures the optional catalog cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BookCacheTTL time.Duration
}

// KafkaConfig configures the optional notification topic.
type KafkaConfig struct {
	Brokers     []string
	NotifyTopic string
}

// SMTPConfig configures the optional mail transport.
type SMTPConfig struct {
	Addr     string
	From     string
	Username string
	Password string
}

// LendingConfig holds lending policy.
type LendingConfig struct {
	OverdueAfterDays int
}

// SweepConfig controls the overdue sweep and its notifier.
type SweepConfig struct {
	Enabled          bool
	Interval         time.Duration
	Message          string
	FailureThreshold int
	Cooldown         time.Duration
}

// FromEnv builds the config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []string
	intVar := func(name string, def int) int {
		v, err := envInt(name, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	durVar := func(name string, def time.Duration) time.Duration {
		v, err := envDuration(name, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	cfg := Server{
		Addr:         envString("LIBRARY_ADDR", ":8080"),
		LogLevel:     envString("LOG_LEVEL", "info"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		StoreTimeout: durVar("STORE_TIMEOUT", 3*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intVar("REDIS_POOL_SIZE", 10),
			MinIdleConns: intVar("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durVar("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durVar("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durVar("REDIS_WRITE_TIMEOUT", 3*time.Second),
			BookCacheTTL: durVar("BOOK_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(os.Getenv("KAFKA_BROKERS")),
			NotifyTopic: envString("KAFKA_NOTIFY_TOPIC", "library.overdue-notifications"),
		},
		SMTP: SMTPConfig{
			Addr:     os.Getenv("SMTP_ADDR"),
			From:     envString("SMTP_FROM", "library@localhost"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},
		Lending: LendingConfig{
			OverdueAfterDays: intVar("LOAN_OVERDUE_AFTER_DAYS", 3),
		},
		Sweep: SweepConfig{
			Enabled:          envString("SWEEP_ENABLED", "true") != "false",
			Interval:         durVar("SWEEP_INTERVAL", 24*time.Hour),
			Message:          strings.TrimSpace(os.Getenv("SWEEP_MESSAGE")),
			FailureThreshold: intVar("NOTIFIER_FAILURE_THRESHOLD", 5),
			Cooldown:         durVar("NOTIFIER_COOLDOWN", time.Minute),
		},
	}

	if cfg.Lending.OverdueAfterDays < 1 {
		errs = append(errs, "LOAN_OVERDUE_AFTER_DAYS must be at least 1")
	}
	if cfg.Sweep.Interval <= 0 {
		errs = append(errs, "SWEEP_INTERVAL must be positive")
	}
	if len(errs) > 0 {
		return Server{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func envString(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %q is not an integer", name, raw)
	}
	return v, nil
}

func envDuration(name string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %q is not a duration", name, raw)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
