package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	pstrings "pensio/pkg/platform/strings"
)

// DuplicateDossierPolicy decides what create_dossier does with an id that
// already exists in the request's working state.
type DuplicateDossierPolicy string

const (
	DuplicateDossierReject    DuplicateDossierPolicy = "reject"
	DuplicateDossierOverwrite DuplicateDossierPolicy = "overwrite"
)

// SchemeCacheBackend selects the cross-request scheme rule cache.
// Per-request reuse of a fetched rule set is always on; this only controls
// whether rule sets outlive the request that fetched them.
type SchemeCacheBackend string

const (
	SchemeCacheNone     SchemeCacheBackend = "none"
	SchemeCacheMemory   SchemeCacheBackend = "memory"
	SchemeCacheRedis    SchemeCacheBackend = "redis"
	SchemeCachePostgres SchemeCacheBackend = "postgres"
)

// AuditSink selects where calculation audit events are written.
type AuditSink string

const (
	// AuditSinkAuto uses Kafka when KAFKA_BROKERS is set, the log otherwise.
	AuditSinkAuto     AuditSink = "auto"
	AuditSinkLog      AuditSink = "log"
	AuditSinkKafka    AuditSink = "kafka"
	AuditSinkPostgres AuditSink = "postgres"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"PENSIO_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"PENSIO_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`

	DuplicateDossierPolicy DuplicateDossierPolicy `env:"DUPLICATE_DOSSIER_POLICY" envDefault:"reject"`

	HTTP         HTTPConfig
	SchemeSource SchemeSourceConfig
	Redis        RedisConfig
	Database     DatabaseConfig
	Kafka        KafkaConfig

	AuditSink AuditSink `env:"AUDIT_SINK" envDefault:"auto"`
}

// HTTPConfig bounds inbound connections.
type HTTPConfig struct {
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

// SchemeSourceConfig configures the outbound scheme rule client and its decorators.
type SchemeSourceConfig struct {
	URL              string             `env:"SCHEME_SOURCE_URL" envDefault:"http://localhost:8090"`
	APIKey           string             `env:"SCHEME_SOURCE_API_KEY"`
	Timeout          time.Duration      `env:"SCHEME_SOURCE_TIMEOUT" envDefault:"5s"`
	RequestsPerSec   float64            `env:"SCHEME_SOURCE_RPS" envDefault:"50"`
	RetryAttempts    int                `env:"SCHEME_RETRY_ATTEMPTS" envDefault:"0"`
	BreakerThreshold int                `env:"SCHEME_BREAKER_THRESHOLD" envDefault:"0"`
	BreakerCooldown  time.Duration      `env:"SCHEME_BREAKER_COOLDOWN" envDefault:"30s"`
	Cache            SchemeCacheBackend `env:"SCHEME_CACHE" envDefault:"none"`
	CacheTTL         time.Duration      `env:"SCHEME_CACHE_TTL" envDefault:"5m"`
}

// RedisConfig configures the optional Redis client.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// DatabaseConfig configures the optional PostgreSQL connection.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// KafkaConfig configures the optional audit event sink.
type KafkaConfig struct {
	Brokers    []string `env:"KAFKA_BROKERS" envSeparator:","`
	AuditTopic string   `env:"KAFKA_AUDIT_TOPIC" envDefault:"pensio.calculation.audit"`
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Kafka.Brokers = pstrings.DedupeAndTrim(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects option combinations that cannot be wired.
func (c Server) Validate() error {
	switch c.DuplicateDossierPolicy {
	case DuplicateDossierReject, DuplicateDossierOverwrite:
	default:
		return fmt.Errorf("invalid DUPLICATE_DOSSIER_POLICY %q", c.DuplicateDossierPolicy)
	}

	switch c.SchemeSource.Cache {
	case SchemeCacheNone, SchemeCacheMemory:
	case SchemeCacheRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("SCHEME_CACHE=redis requires REDIS_URL")
		}
	case SchemeCachePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("SCHEME_CACHE=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("invalid SCHEME_CACHE %q", c.SchemeSource.Cache)
	}

	switch c.AuditSink {
	case AuditSinkAuto, AuditSinkLog:
	case AuditSinkKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("AUDIT_SINK=kafka requires KAFKA_BROKERS")
		}
	case AuditSinkPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("AUDIT_SINK=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("invalid AUDIT_SINK %q", c.AuditSink)
	}

	if c.SchemeSource.Cache != SchemeCacheNone && c.SchemeSource.CacheTTL <= 0 {
		return fmt.Errorf("SCHEME_CACHE_TTL must be positive")
	}
	if c.SchemeSource.RetryAttempts < 0 {
		return fmt.Errorf("SCHEME_RETRY_ATTEMPTS must not be negative")
	}
	return nil
}

// ResolvedAuditSink turns AuditSinkAuto into a concrete sink.
func (c Server) ResolvedAuditSink() AuditSink {
	if c.AuditSink != AuditSinkAuto && c.AuditSink != "" {
		return c.AuditSink
	}
	if len(c.Kafka.Brokers) > 0 {
		return AuditSinkKafka
	}
	return AuditSinkLog
}
