package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pensio/internal/audit"
	"pensio/internal/platform/config"
	"pensio/internal/platform/postgres"
	"pensio/internal/platform/redis"
	"pensio/internal/scheme"
	"pensio/internal/scheme/client"
	schemeMetrics "pensio/internal/scheme/metrics"
	"pensio/internal/scheme/store"
	httptransport "pensio/internal/transport/http"
	"pensio/pkg/platform/circuit"
)

const (
	auditInboxSize    = 1024
	auditTopicParts   = 3
	auditTopicRF      = 1
	retryInitialDelay = 100 * time.Millisecond
	retryMaxDelay     = 2 * time.Second
)

// infra holds the optional shared connections. Either field may be nil.
type infra struct {
	redis *redis.Client
	db    *sql.DB
}

func openInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		if rc != nil {
			_ = rc.Close()
		}
		return nil, err
	}
	log.Info("infrastructure ready", "redis", rc != nil, "postgres", db != nil)
	return &infra{redis: rc, db: db}, nil
}

func (i *infra) Checks() []httptransport.ReadinessCheck {
	var checks []httptransport.ReadinessCheck
	if i.redis != nil {
		checks = append(checks, httptransport.ReadinessCheck{Name: "redis", Check: i.redis.Health})
	}
	if i.db != nil {
		checks = append(checks, httptransport.ReadinessCheck{Name: "postgres", Check: i.db.PingContext})
	}
	return checks
}

func (i *infra) Close() {
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

// buildSchemeSource composes the rule source: client, then retry, then
// breaker, then the cross-request cache, each only when configured.
func buildSchemeSource(ctx context.Context, cfg config.Server, inf *infra, reg prometheus.Registerer, log *slog.Logger) (scheme.Source, []httptransport.ReadinessCheck, error) {
	sc := cfg.SchemeSource
	m := schemeMetrics.New(reg)

	upstream := client.New(sc.URL, sc.APIKey, sc.Timeout,
		client.WithRateLimit(sc.RequestsPerSec, int(sc.RequestsPerSec)),
		client.WithMetrics(m),
	)
	checks := []httptransport.ReadinessCheck{{Name: "scheme_source", Check: upstream.Health}}

	var source scheme.Source = upstream
	if sc.RetryAttempts > 0 {
		source = scheme.NewRetrying(source, sc.RetryAttempts, retryInitialDelay, log)
	}
	if sc.BreakerThreshold > 0 {
		breaker := circuit.New("scheme_source",
			circuit.WithFailureThreshold(sc.BreakerThreshold),
			circuit.WithCooldown(sc.BreakerCooldown),
		)
		source = scheme.NewGuarded(source, breaker, log, m)
	}

	cache, err := schemeCache(ctx, sc, inf)
	if err != nil {
		return nil, nil, err
	}
	if cache != nil {
		source = scheme.NewCached(source, cache, string(sc.Cache), log, m,
			scheme.WithFetchTimeout(sharedFetchTimeout(sc)),
		)
	}
	return source, checks, nil
}

// sharedFetchTimeout covers every attempt of one upstream fetch plus the
// backoff between attempts.
func sharedFetchTimeout(sc config.SchemeSourceConfig) time.Duration {
	if sc.Timeout <= 0 {
		return 0
	}
	attempts := time.Duration(sc.RetryAttempts + 1)
	return sc.Timeout*attempts + retryMaxDelay*(attempts-1)
}

func schemeCache(ctx context.Context, sc config.SchemeSourceConfig, inf *infra) (scheme.Cache, error) {
	switch sc.Cache {
	case config.SchemeCacheMemory:
		return store.NewInMemoryCache(sc.CacheTTL), nil
	case config.SchemeCacheRedis:
		if inf.redis == nil {
			return nil, errors.New("scheme cache: redis is not configured")
		}
		return store.NewRedisCache(inf.redis.Client, sc.CacheTTL), nil
	case config.SchemeCachePostgres:
		if inf.db == nil {
			return nil, errors.New("scheme cache: postgres is not configured")
		}
		pc := store.NewPostgresCache(inf.db, sc.CacheTTL)
		if err := pc.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("scheme cache: %w", err)
		}
		return pc, nil
	default:
		return nil, nil
	}
}

// auditPipeline publishes through a non-blocking channel drained by a worker
// into the configured sink (log, Kafka or Postgres).
type auditPipeline struct {
	*audit.Publisher
	inbox *audit.ChannelStore
	done  chan struct{}
	kafka *audit.KafkaStore
}

func startAudit(ctx context.Context, cfg config.Server, inf *infra, log *slog.Logger) (*auditPipeline, []httptransport.ReadinessCheck, error) {
	var (
		sink   audit.Store
		checks []httptransport.ReadinessCheck
		kafka  *audit.KafkaStore
	)
	switch cfg.ResolvedAuditSink() {
	case config.AuditSinkKafka:
		ks, err := audit.NewKafkaStore(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return nil, nil, err
		}
		if err := ks.EnsureTopic(ctx, auditTopicParts, auditTopicRF); err != nil {
			ks.Close()
			return nil, nil, err
		}
		sink, kafka = ks, ks
		checks = append(checks, httptransport.ReadinessCheck{Name: "kafka", Check: ks.Health})
	case config.AuditSinkPostgres:
		if inf.db == nil {
			return nil, nil, errors.New("audit sink: postgres is not configured")
		}
		ps := audit.NewPostgresStore(inf.db)
		if err := ps.Migrate(ctx); err != nil {
			return nil, nil, err
		}
		sink = ps
	default:
		sink = audit.NewLogStore(log)
	}

	inbox := audit.NewChannelStore(auditInboxSize)
	p := &auditPipeline{
		Publisher: audit.NewPublisher(inbox),
		inbox:     inbox,
		done:      make(chan struct{}),
		kafka:     kafka,
	}
	worker := audit.NewWorker(sink, inbox.Inbox(), log)
	go func() {
		defer close(p.done)
		// Detached from the signal context so buffered events survive shutdown.
		_ = worker.Run(context.WithoutCancel(ctx))
	}()
	return p, checks, nil
}

// drain flushes buffered events, giving up when ctx expires.
func (p *auditPipeline) drain(ctx context.Context) {
	p.inbox.Close()
	select {
	case <-p.done:
	case <-ctx.Done():
	}
	if p.kafka != nil {
		p.kafka.Close()
	}
}
