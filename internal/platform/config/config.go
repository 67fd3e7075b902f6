package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	// LookupTimeout bounds one API request, backoff waits included.
	LookupTimeout time.Duration
	ReadTimeout   time.Duration
	IdleTimeout   time.Duration
}

// Registry holds the record-search registry endpoint and polling limits.
type Registry struct {
	BaseURL          string
	MaxAttempts      int
	BackoffUnit      time.Duration
	SearchDelay      time.Duration
	DocumentDelay    time.Duration
	ReliabilityPages int
}

// Individual holds the personal tax ID service settings.
type Individual struct {
	BaseURL      string
	MaxAttempts  int
	PollInterval time.Duration
}

// Session tunes the outbound HTTP sessions, one per lookup.
type Session struct {
	Timeout     time.Duration
	UserAgent   string
	ProxyURL    string
	MinInterval time.Duration
}

// Archive selects where certificate documents are kept between lookups.
type Archive struct {
	// Backend is one of memory, redis, postgres or none.
	Backend string
	TTL     time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Postgres struct {
	DSN      string
	MaxConns int32
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type Log struct {
	Level  string
	Format string
}

// Config is the full process configuration.
type Config struct {
	Server     Server
	Registry   Registry
	Individual Individual
	Session    Session
	Archive    Archive
	Redis      RedisConfig
	Postgres   Postgres
	Kafka      Kafka
	Log        Log
}

// FromEnv builds the configuration from environment variables so main stays
// lean. Unset variables take defaults; malformed values are reported.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	e := &env{lookup: lookup}
	cfg := Config{
		Server: Server{
			Addr:            e.str("EGRUL_ADDR", ":8080"),
			ShutdownTimeout: e.duration("EGRUL_SHUTDOWN_TIMEOUT", 10*time.Second),
			LookupTimeout:   e.duration("EGRUL_LOOKUP_TIMEOUT", 15*time.Minute),
			ReadTimeout:     e.duration("EGRUL_READ_TIMEOUT", 30*time.Second),
			IdleTimeout:     e.duration("EGRUL_IDLE_TIMEOUT", 2*time.Minute),
		},
		Registry: Registry{
			BaseURL:          e.str("EGRUL_REGISTRY_URL", "https://egrul.nalog.ru"),
			MaxAttempts:      e.integer("EGRUL_MAX_ATTEMPTS", 10),
			BackoffUnit:      e.duration("EGRUL_BACKOFF_UNIT", 10*time.Second),
			SearchDelay:      e.duration("EGRUL_SEARCH_DELAY", time.Second),
			DocumentDelay:    e.duration("EGRUL_DOCUMENT_DELAY", 5*time.Second),
			ReliabilityPages: e.integer("EGRUL_RELIABILITY_PAGES", 4),
		},
		Individual: Individual{
			BaseURL:      e.str("EGRUL_INDIVIDUAL_URL", "https://service.nalog.ru"),
			MaxAttempts:  e.integer("EGRUL_INDIVIDUAL_MAX_ATTEMPTS", 3),
			PollInterval: e.duration("EGRUL_INDIVIDUAL_POLL_INTERVAL", 100*time.Millisecond),
		},
		Session: Session{
			Timeout:     e.duration("EGRUL_HTTP_TIMEOUT", 30*time.Second),
			UserAgent:   e.str("EGRUL_USER_AGENT", ""),
			ProxyURL:    e.str("EGRUL_PROXY_URL", ""),
			MinInterval: e.duration("EGRUL_MIN_REQUEST_INTERVAL", 0),
		},
		Archive: Archive{
			Backend: strings.ToLower(e.str("EGRUL_ARCHIVE", "memory")),
			TTL:     e.duration("EGRUL_ARCHIVE_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			URL:          e.str("REDIS_URL", ""),
			PoolSize:     e.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: e.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: Postgres{
			DSN:      e.str("DATABASE_URL", ""),
			MaxConns: int32(e.integer("DATABASE_MAX_CONNS", 4)),
		},
		Kafka: Kafka{
			Brokers: e.list("KAFKA_BROKERS"),
			Topic:   e.str("KAFKA_AUDIT_TOPIC", "egrul.audit"),
		},
		Log: Log{
			Level:  e.str("LOG_LEVEL", "info"),
			Format: e.str("LOG_FORMAT", "json"),
		},
	}
	if e.err != nil {
		return Config{}, e.err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Archive.Backend {
	case "memory", "none":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("EGRUL_ARCHIVE=redis requires REDIS_URL")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("EGRUL_ARCHIVE=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown archive backend %q", c.Archive.Backend)
	}
	if c.Registry.MaxAttempts <= 0 {
		return fmt.Errorf("EGRUL_MAX_ATTEMPTS must be positive")
	}
	return nil
}

type env struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (e *env) integer(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return n
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return d
}

func (e *env) list(key string) []string {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (e *env) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("parse %s: %w", key, err)
	}
}
