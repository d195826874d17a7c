package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultRateLimit     = 60
	DefaultRateWindow    = time.Minute
	DefaultSweepInterval = time.Minute
	DefaultRedisPrefix   = "tenantgate:rl:"

	DefaultJWTLeeway = 30 * time.Second

	DefaultDataDir    = "/var/lib/tenantgate/data"
	DefaultGCInterval = 10 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Storage and rate limit backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// DefaultExemptPaths are never rate limited.
var DefaultExemptPaths = []string{"/health", "/ready", "/metrics", "/docs", "/swagger", "/openapi"}

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:         DefaultHTTPAddr,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
				IdleTimeout:  DefaultIdleTimeout,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		RateLimit: RateLimitSection{
			Enabled:       true,
			Limit:         DefaultRateLimit,
			Window:        DefaultRateWindow,
			SweepInterval: DefaultSweepInterval,
			ExemptPaths:   append([]string(nil), DefaultExemptPaths...),
			Backend:       BackendMemory,
			Redis: RedisConfig{
				Prefix: DefaultRedisPrefix,
			},
		},
		Auth: AuthSection{
			JWT: JWTConfig{
				Leeway: DefaultJWTLeeway,
			},
			APIKeys: APIKeysConfig{
				Enabled: true,
			},
		},
		Storage: StorageSection{
			Backend:    BackendBadger,
			DataDir:    DefaultDataDir,
			GCInterval: DefaultGCInterval,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
