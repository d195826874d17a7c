package config

import "time"

// ServerConfig is the root configuration for tenantgate-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	RateLimit RateLimitSection `koanf:"ratelimit"`
	Auth      AuthSection      `koanf:"auth"`
	Storage   StorageSection   `koanf:"storage"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// CORSAllowedOrigins lists allowed origins; "*" allows any.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// RateLimitSection configures the fixed-window rate limiter.
type RateLimitSection struct {
	Enabled bool `koanf:"enabled"`

	// Limit is the number of requests per client key per window.
	Limit  int           `koanf:"limit"`
	Window time.Duration `koanf:"window"`

	// SweepInterval is how often expired entries are evicted (memory backend).
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// ExemptPaths are path prefixes that are never limited.
	ExemptPaths []string `koanf:"exempt_paths"`

	// Backend is "memory" (per process) or "redis" (shared).
	Backend string `koanf:"backend"`

	Redis RedisConfig `koanf:"redis"`
}

// RedisConfig configures the shared rate limit backend.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

// AuthSection configures credential resolution.
type AuthSection struct {
	JWT     JWTConfig     `koanf:"jwt"`
	APIKeys APIKeysConfig `koanf:"api_keys"`
}

// JWTConfig configures bearer token validation. Bearer authentication is
// disabled when neither HMACSecret nor PublicKeyFile is set.
type JWTConfig struct {
	HMACSecret    string        `koanf:"hmac_secret"`
	PublicKeyFile string        `koanf:"public_key_file"`
	Algorithms    []string      `koanf:"algorithms"`
	Issuer        string        `koanf:"issuer"`
	Audience      string        `koanf:"audience"`
	Leeway        time.Duration `koanf:"leeway"`
}

// Enabled reports whether key material is configured.
func (c JWTConfig) Enabled() bool {
	return c.HMACSecret != "" || c.PublicKeyFile != ""
}

// APIKeysConfig configures API key authentication.
type APIKeysConfig struct {
	Enabled bool `koanf:"enabled"`
}

// StorageSection configures the API key and membership stores.
type StorageSection struct {
	// Backend is "badger" (persistent) or "memory".
	Backend string `koanf:"backend"`

	DataDir    string        `koanf:"data_dir"`
	GCInterval time.Duration `koanf:"gc_interval"`
	SyncWrites bool          `koanf:"sync_writes"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
