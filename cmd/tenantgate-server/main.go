// Package main provides the entry point for tenantgate-server.
//
// tenantgate-server is the request-boundary gateway of a multi-tenant
// service: it rate limits callers, resolves bearer tokens and API keys into
// principals, and admits a tenant only after membership validation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/yndnr/tenantgate/internal/infra/buildinfo"
	"github.com/yndnr/tenantgate/internal/infra/shutdown"
	"github.com/yndnr/tenantgate/internal/server/config"
	"github.com/yndnr/tenantgate/internal/server/httpserver"
	"github.com/yndnr/tenantgate/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		addr        = flag.String("addr", "", "Override server.http.addr")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("tenantgate-server " + buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile, *addr)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := initLogger(cfg)
	log.Info("starting tenantgate-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Get().Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	reg := metric.NewRegistry()
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = config.DefaultShutdownTimeout
	}
	hooks := shutdown.NewHandler(shutdownTimeout, log)

	stores, err := initStores(cfg, log, reg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	hooks.OnShutdown("storage", stores.close)

	gateway, err := initGateway(cfg, stores, reg, log)
	if err != nil {
		hooks.Shutdown()
		return fmt.Errorf("init gateway: %w", err)
	}

	rateLimit, err := initRateLimit(cfg, reg, log, hooks)
	if err != nil {
		hooks.Shutdown()
		return fmt.Errorf("init rate limiter: %w", err)
	}

	if *configFile != "" {
		if err := watchConfig(*configFile, *addr, log, hooks); err != nil {
			log.Warn("config watcher unavailable, log level changes need a restart", "error", err)
		}
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Gateway:            gateway,
		RateLimit:          rateLimit,
		MetricsHandler:     reg.Handler(),
		Metrics:            reg,
		Ready:              stores.ready,
		Version:            buildinfo.Version,
		CORSAllowedOrigins: cfg.Server.HTTP.CORSAllowedOrigins,
		Logger:             log,
	})

	srv, useTLS, err := newServer(cfg, router, log, hooks)
	if err != nil {
		hooks.Shutdown()
		return fmt.Errorf("init http server: %w", err)
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr(), "tls", useTLS)

		var err error
		if useTLS {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil {
			cancel(fmt.Errorf("http server: %w", err))
		}
	}()

	if err := hooks.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	if cause := context.Cause(ctx); cause != nil {
		return cause
	}

	log.Info("server stopped gracefully")
	return nil
}
