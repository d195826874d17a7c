package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/yndnr/tenantgate/internal/core/domain"
	"github.com/yndnr/tenantgate/internal/core/service"
	"github.com/yndnr/tenantgate/internal/infra/confloader"
	"github.com/yndnr/tenantgate/internal/infra/redislimit"
	"github.com/yndnr/tenantgate/internal/infra/shutdown"
	"github.com/yndnr/tenantgate/internal/infra/tlsroots"
	"github.com/yndnr/tenantgate/internal/infra/tokenverify"
	"github.com/yndnr/tenantgate/internal/server/config"
	"github.com/yndnr/tenantgate/internal/server/httpserver"
	"github.com/yndnr/tenantgate/internal/server/httpserver/handler"
	"github.com/yndnr/tenantgate/internal/storage"
	"github.com/yndnr/tenantgate/internal/storage/memory"
	"github.com/yndnr/tenantgate/internal/telemetry/logger"
	"github.com/yndnr/tenantgate/internal/telemetry/metric"
)

// verifyKeyHash is replaced in tests.
var verifyKeyHash = domain.VerifyKeyHash

// startupPingTimeout bounds the Redis reachability check at startup.
const startupPingTimeout = 2 * time.Second

// newLoader builds the config loader. addr, when set, overrides the file
// and environment.
func newLoader(configFile, addr string) *confloader.Loader {
	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if addr != "" {
		opts = append(opts, confloader.WithOverrides(map[string]any{"server.http.addr": addr}))
	}
	return confloader.NewLoader(opts...)
}

// loadConfig loads configuration from defaults, file, environment and flags.
func loadConfig(configFile, addr string) (*config.ServerConfig, error) {
	cfg := config.Default()

	if err := newLoader(configFile, addr).Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger builds the process logger and installs it as the default.
func initLogger(cfg *config.ServerConfig) *slog.Logger {
	log := logger.NewSlog(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	slog.SetDefault(log)
	return log
}

// stores holds the repositories behind the resolvers.
type stores struct {
	keys    service.APIKeyRepository
	members service.MembershipRepository
	ready   []handler.Pinger
	close   shutdown.Hook
}

func initStores(cfg *config.ServerConfig, log *slog.Logger, reg *metric.Registry) (*stores, error) {
	if cfg.Storage.Backend == config.BackendMemory {
		log.Warn("memory storage backend: API keys and memberships are lost on restart")
		return &stores{
			keys:    memory.NewAPIKeyStore(),
			members: memory.NewMembershipStore(),
			close:   func(context.Context) error { return nil },
		}, nil
	}

	kvCfg := storage.DefaultKVConfig(cfg.Storage.DataDir)
	if cfg.Storage.GCInterval > 0 {
		kvCfg.Badger.GCInterval = cfg.Storage.GCInterval.String()
	}
	kvCfg.Badger.SyncWrites = cfg.Storage.SyncWrites

	engine, err := storage.NewBadgerEngine(kvCfg, log)
	if err != nil {
		return nil, err
	}
	if err := reg.Register(engine.Collectors()...); err != nil {
		engine.Close()
		return nil, fmt.Errorf("register storage metrics: %w", err)
	}

	return &stores{
		keys:    storage.NewAPIKeyStore(engine),
		members: storage.NewMembershipStore(engine),
		ready: []handler.Pinger{handler.PingFunc(func(ctx context.Context) error {
			_, err := engine.Stats(ctx)
			return err
		})},
		close: func(context.Context) error { return engine.Close() },
	}, nil
}

func initGateway(cfg *config.ServerConfig, st *stores, reg *metric.Registry, log *slog.Logger) (*httpserver.GatewayConfig, error) {
	gw := &httpserver.GatewayConfig{
		Members: service.NewMembershipValidator(st.members, log),
		Metrics: reg,
		Logger:  log,
	}

	jwtCfg := cfg.Auth.JWT
	if jwtCfg.Enabled() {
		verifier, err := tokenverify.New(tokenverify.Config{
			HMACSecret:    jwtCfg.HMACSecret,
			PublicKeyFile: jwtCfg.PublicKeyFile,
			Algorithms:    jwtCfg.Algorithms,
			Issuer:        jwtCfg.Issuer,
			Audience:      jwtCfg.Audience,
			Leeway:        jwtCfg.Leeway,
		})
		if err != nil {
			return nil, err
		}
		gw.Tokens = service.NewTokenResolver(verifier, log)
	} else {
		log.Warn("auth.jwt has no key material, bearer authentication disabled")
	}

	if cfg.Auth.APIKeys.Enabled {
		if err := verifyKeyHash(); err != nil {
			return nil, fmt.Errorf("api key hashing self-test: %w", err)
		}
		gw.Keys = service.NewAPIKeyResolver(st.keys, log)
	}
	return gw, nil
}

func initRateLimit(cfg *config.ServerConfig, reg *metric.Registry, log *slog.Logger, hooks *shutdown.Handler) (*httpserver.RateLimitConfig, error) {
	rlCfg := cfg.RateLimit
	if !rlCfg.Enabled {
		log.Warn("rate limiting disabled")
		return nil, nil
	}

	rl := &httpserver.RateLimitConfig{
		ExemptPaths: rlCfg.ExemptPaths,
		Logger:      log,
		Metrics:     reg,
	}

	if rlCfg.Backend == config.BackendRedis {
		limiter, err := redislimit.New(redislimit.Config{
			Addr:     rlCfg.Redis.Addr,
			Password: rlCfg.Redis.Password,
			DB:       rlCfg.Redis.DB,
			Prefix:   rlCfg.Redis.Prefix,
			Limit:    rlCfg.Limit,
			Window:   rlCfg.Window,
		})
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), startupPingTimeout)
		if err := limiter.Ping(ctx); err != nil {
			log.Warn("redis unreachable, requests are allowed until it recovers", "addr", rlCfg.Redis.Addr, "error", err)
		}
		cancel()

		hooks.OnShutdown("redis-limiter", func(context.Context) error { return limiter.Close() })
		rl.Limiter = limiter
		return rl, nil
	}

	limiter, err := service.NewRateLimiter(service.RateLimitConfig{
		Limit:         rlCfg.Limit,
		Window:        rlCfg.Window,
		SweepInterval: rlCfg.SweepInterval,
	}, log)
	if err != nil {
		return nil, err
	}
	limiter.OnEvict(reg.AddEvicted)
	if err := reg.Register(metric.NewCollector(limiter)); err != nil {
		return nil, fmt.Errorf("register limiter metrics: %w", err)
	}
	limiter.Start()

	hooks.OnShutdown("limiter", func(context.Context) error {
		limiter.Stop()
		return nil
	})
	rl.Limiter = limiter
	return rl, nil
}

// watchConfig reloads the log level when the config file changes. Other
// settings need a restart.
func watchConfig(configFile, addr string, log *slog.Logger, hooks *shutdown.Handler) error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return err
	}
	if err := w.Watch(configFile); err != nil {
		w.Stop()
		return err
	}

	w.OnChange(func(string) {
		cfg, err := loadConfig(configFile, addr)
		if err != nil {
			log.Error("config reload rejected", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", logger.GetLevel())
		}
	})
	w.StartAsync()

	hooks.OnShutdown("config-watcher", func(context.Context) error { return w.Stop() })
	return nil
}

// newServer builds the HTTP server. The second result reports whether it
// serves TLS.
func newServer(cfg *config.ServerConfig, router http.Handler, log *slog.Logger, hooks *shutdown.Handler) (*httpserver.Server, bool, error) {
	httpCfg := cfg.Server.HTTP

	opts := httpserver.DefaultOptions()
	if httpCfg.ReadTimeout > 0 {
		opts.ReadTimeout = httpCfg.ReadTimeout
	}
	if httpCfg.WriteTimeout > 0 {
		opts.WriteTimeout = httpCfg.WriteTimeout
	}
	if httpCfg.IdleTimeout > 0 {
		opts.IdleTimeout = httpCfg.IdleTimeout
	}

	useTLS := httpCfg.TLSCertFile != ""
	if useTLS {
		kp, err := tlsroots.NewKeyPair(httpCfg.TLSCertFile, httpCfg.TLSKeyFile, tlsroots.WithLogger(log))
		if err != nil {
			return nil, false, err
		}
		opts.TLSConfig = kp.ServerConfig()

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			if err := kp.Watch(ctx); err != nil {
				log.Error("certificate watcher stopped", "error", err)
			}
		}()
		hooks.OnShutdown("cert-watcher", func(context.Context) error {
			cancel()
			return nil
		})
	}

	srv := httpserver.New(httpCfg.Addr, router, opts)
	hooks.OnShutdown("http", srv.Shutdown)
	return srv, useTLS, nil
}
