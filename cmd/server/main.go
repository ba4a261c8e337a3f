package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"veil/internal/anonymize"
	"veil/internal/audit"
	"veil/internal/classification"
	"veil/internal/company"
	"veil/internal/platform/config"
	"veil/internal/platform/httpserver"
	"veil/internal/platform/logger"
	"veil/internal/platform/metrics"
	"veil/internal/platform/scheduler"
	"veil/internal/pseudonym"
	"veil/internal/ratelimit"
	"veil/internal/retention"
	"veil/internal/sealing"
	"veil/internal/session"
	httptransport "veil/internal/transport/http"
	"veil/pkg/requestcontext"
)

// main wires dependencies and runs the HTTP server, the audit writer and the
// sweeps under one errgroup. Business logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("veil exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	log.Info("starting veil", "config", cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	key, err := sealing.DeriveKey([]byte(cfg.MasterSecret), cfg.Anonymization)
	if err != nil {
		return err
	}
	sealer, err := sealing.NewSealer(key)
	if err != nil {
		return err
	}
	cfg.MasterSecret = ""
	log.Info("sealing key ready", "sealer", sealer)

	deployment := cfg.Anonymization.ComplianceLevel
	policy := classification.DefaultPolicy()
	companies := company.NewRegistry(deployment, company.WithLogger(log))
	if cfg.PolicyFile != "" {
		pf, err := company.LoadPolicyFile(cfg.PolicyFile)
		if err != nil {
			return err
		}
		if err := pf.Apply(ctx, companies, policy); err != nil {
			return err
		}
		log.Info("policy file applied", "path", cfg.PolicyFile, "companies", len(pf.Companies), "categories", len(pf.Categories))
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	auditOpts := []audit.Option{
		audit.WithLogger(log),
		audit.WithMetrics(m),
		audit.WithBufferSize(cfg.AuditBufferSize),
	}
	if st.auditSink != nil {
		auditOpts = append(auditOpts, audit.WithSink(st.auditSink))
	}
	auditLog := audit.NewLogger(st.audit, deployment, auditOpts...)

	sessions := session.NewService(
		st.sessions,
		session.NewTokenIssuer(cfg.JWTSigningKey, cfg.Anonymization.TokenExpiration),
		identityProvider(cfg, log),
		companies,
		pseudonym.NewGenerator(""),
		auditLog,
		session.WithLogger(log),
		session.WithMetrics(m),
		session.WithIdentityTimeout(cfg.IdentityTimeout),
	)
	gateway := anonymize.NewService(
		sessions,
		classification.NewEngine(policy),
		sealer,
		st.records,
		auditLog,
		companies,
		anonymize.WithLogger(log),
		anonymize.WithMetrics(m),
	)
	reporter := audit.NewReporter(st.audit, deployment)
	enforcer := retention.NewEnforcer(
		st.records,
		st.audit,
		auditLog,
		companies,
		cfg.Anonymization.DataRetention,
		cfg.Anonymization.AuditRetention,
		deployment,
		retention.WithLogger(log),
		retention.WithMetrics(m),
	)

	reaper := scheduler.New("session_reaper", cfg.ReapInterval, func(ctx context.Context) error {
		_, err := sessions.ReapExpired(requestcontext.WithTime(ctx, time.Now().UTC()))
		return err
	}, scheduler.WithLogger(log), scheduler.WithObserver(m))
	sweeper := scheduler.New("retention", cfg.RetentionInterval, enforcer.Sweep,
		scheduler.WithLogger(log), scheduler.WithObserver(m))

	handler := httptransport.NewHandler(sessions, gateway, reporter, enforcer, companies, log,
		httptransport.WithSweepGuards(reaper, sweeper))
	routerCfg := httptransport.RouterConfig{AdminToken: cfg.AdminAPIToken}
	if cfg.MetricsEnabled {
		routerCfg.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimit = ratelimit.New(st.rateLimit, ratelimit.Limits{
			Standard:  cfg.RateLimit.Requests,
			Sensitive: cfg.RateLimit.Sensitive,
			Window:    cfg.RateLimit.Window,
		}, ratelimit.WithLogger(log), ratelimit.WithMetrics(m))
	}
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, routerCfg))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.Addr)
		return httpserver.Run(gctx, srv, cfg.ShutdownTimeout)
	})
	g.Go(func() error { return auditLog.Run(gctx) })
	g.Go(func() error { return reaper.Run(gctx) })
	g.Go(func() error { return sweeper.Run(gctx) })
	if mem, ok := st.rateLimit.(*ratelimit.InMemoryStore); ok && cfg.RateLimit.Enabled {
		windows := scheduler.New("ratelimit_sweep", cfg.RateLimit.Window, func(context.Context) error {
			mem.Sweep(cfg.RateLimit.Window)
			return nil
		}, scheduler.WithLogger(log), scheduler.WithObserver(m))
		g.Go(func() error { return windows.Run(gctx) })
	}

	err = g.Wait()
	log.Info("veil stopped")
	return err
}
