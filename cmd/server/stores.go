package main

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"veil/internal/anonymize"
	"veil/internal/audit"
	"veil/internal/audit/kafka"
	auditmem "veil/internal/audit/store/memory"
	auditpg "veil/internal/audit/store/postgres"
	"veil/internal/identity"
	"veil/internal/platform/config"
	"veil/internal/platform/postgres"
	"veil/internal/platform/redis"
	"veil/internal/ratelimit"
	"veil/internal/session"
	"veil/pkg/platform/circuit"
)

// stores holds the repositories chosen from configuration. Without
// DATABASE_URL or REDIS_URL the in-memory implementations are used.
type stores struct {
	sessions  session.Store
	records   anonymize.Store
	audit     audit.Store
	auditSink audit.Sink
	rateLimit ratelimit.Store

	closers []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*stores, error) {
	st := &stores{
		sessions: session.NewInMemoryStore(),
		records:  anonymize.NewInMemoryStore(),
		audit:    auditmem.NewInMemoryStore(),
	}
	st.rateLimit = ratelimit.NewInMemoryStore()

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		st.sessions = session.NewRedisStore(rc.Client)
		st.rateLimit = ratelimit.NewRedisStore(rc.Client)
		st.closers = append(st.closers, func() { _ = rc.Close() })
		log.Info("session and rate limit stores: redis")
	}

	if cfg.DatabaseURL != "" {
		db, pool, err := openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.audit = auditpg.New(db)
		st.records = anonymize.NewPostgresStore(pool)
		st.closers = append(st.closers, func() { _ = db.Close() }, pool.Close)
		log.Info("audit and record stores: postgres")
	}

	if cfg.Kafka.Enabled() {
		sink, err := kafka.NewSink(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, kafka.WithLogger(log))
		if err != nil {
			st.Close()
			return nil, err
		}
		if err := sink.EnsureTopic(ctx); err != nil {
			log.Warn("audit topic check failed, publishing anyway", "topic", sink.Topic(), "error", err)
		}
		st.auditSink = sink
		st.closers = append(st.closers, sink.Close)
		log.Info("audit stream: kafka", "topic", sink.Topic())
	}
	return st, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, *pgxpool.Pool, error) {
	db, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	pool, err := postgres.Connect(ctx, dsn)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, pool, nil
}

// identityProvider returns the HTTP provider when IDP_URL is set. Outside
// production a permissive static provider stands in.
func identityProvider(cfg config.Config, log *slog.Logger) identity.Provider {
	if cfg.IdentityProviderURL != "" {
		return identity.NewHTTPProvider(cfg.IdentityProviderURL, cfg.IdentityTimeout,
			identity.WithLogger(log),
			identity.WithBreaker(circuit.New("identity_provider")),
		)
	}
	log.Warn("IDP_URL not set, every external user id is accepted")
	p := identity.NewStaticProvider()
	p.AcceptAll = true
	return p
}
