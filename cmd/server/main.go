package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"pensio/internal/calculation/engine"
	calcHandler "pensio/internal/calculation/handler"
	calcMetrics "pensio/internal/calculation/metrics"
	"pensio/internal/calculation/models"
	"pensio/internal/calculation/mutation"
	"pensio/internal/platform/config"
	"pensio/internal/platform/httpserver"
	"pensio/internal/platform/logger"
	httptransport "pensio/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	if err := run(); err != nil {
		slog.Error("pensio exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	inf, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer inf.Close()

	source, checks, err := buildSchemeSource(ctx, cfg, inf, reg, log)
	if err != nil {
		return err
	}

	registry, err := mutation.NewRegistry(mutation.Builtin(source, cfg.DuplicateDossierPolicy == config.DuplicateDossierOverwrite)...)
	if err != nil {
		return err
	}
	if err := registry.RequireKinds(models.AllKinds...); err != nil {
		return err
	}

	auditor, auditChecks, err := startAudit(ctx, cfg, inf, log)
	if err != nil {
		return err
	}
	checks = append(checks, auditChecks...)

	eng := engine.New(registry,
		engine.WithLogger(log),
		engine.WithMetrics(calcMetrics.New(reg)),
		engine.WithAuditor(auditor),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Gatherer: reg,
		Checks:   append(checks, inf.Checks()...),
		Modules:  []httptransport.Registrar{calcHandler.New(eng, log)},
	})
	srv := httpserver.New(cfg.Addr, router, httpserver.Timeouts{
		ReadHeader: cfg.HTTP.ReadHeaderTimeout,
		Read:       cfg.HTTP.ReadTimeout,
		Write:      cfg.HTTP.WriteTimeout,
		Idle:       cfg.HTTP.IdleTimeout,
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting pensio", "addr", cfg.Addr, "scheme_cache", cfg.SchemeSource.Cache)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	auditor.drain(shutdownCtx)
	return nil
}
