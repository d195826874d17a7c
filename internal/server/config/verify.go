package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// minHMACSecretLength is the shortest accepted HS256 secret, in bytes.
const minHMACSecretLength = 32

// Verify validates the configuration. It reports every problem found, not
// only the first.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyRateLimit(&cfg.RateLimit),
		verifyAuth(&cfg.Auth),
		verifyStorage(&cfg.Storage),
		verifyLog(&cfg.Log),
	)
}

func verifyServer(cfg *ServerSection) error {
	var errs []error

	if cfg.HTTP.Addr == "" {
		errs = append(errs, errors.New("server.http.addr is required"))
	} else if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr: %w", err))
	}

	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("server.http tls file: %w", err))
		}
	}

	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must not be negative"))
	}
	return errors.Join(errs...)
}

func verifyRateLimit(cfg *RateLimitSection) error {
	if !cfg.Enabled {
		return nil
	}

	var errs []error
	if cfg.Limit <= 0 {
		errs = append(errs, errors.New("ratelimit.limit must be positive"))
	}
	if cfg.Window <= 0 {
		errs = append(errs, errors.New("ratelimit.window must be positive"))
	}
	if cfg.SweepInterval < 0 {
		errs = append(errs, errors.New("ratelimit.sweep_interval must not be negative"))
	}

	switch cfg.Backend {
	case BackendMemory:
	case BackendRedis:
		if cfg.Redis.Addr == "" {
			errs = append(errs, errors.New("ratelimit.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("ratelimit.backend %q: must be memory or redis", cfg.Backend))
	}
	return errors.Join(errs...)
}

func verifyAuth(cfg *AuthSection) error {
	var errs []error
	jwt := cfg.JWT

	if jwt.HMACSecret != "" && jwt.PublicKeyFile != "" {
		errs = append(errs, errors.New("auth.jwt: hmac_secret and public_key_file are mutually exclusive"))
	}
	if jwt.HMACSecret != "" && len(jwt.HMACSecret) < minHMACSecretLength {
		errs = append(errs, fmt.Errorf("auth.jwt.hmac_secret must be at least %d bytes", minHMACSecretLength))
	}
	if jwt.PublicKeyFile != "" {
		if _, err := os.Stat(jwt.PublicKeyFile); err != nil {
			errs = append(errs, fmt.Errorf("auth.jwt.public_key_file: %w", err))
		}
	}
	if jwt.Leeway < 0 {
		errs = append(errs, errors.New("auth.jwt.leeway must not be negative"))
	}
	return errors.Join(errs...)
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Backend {
	case BackendMemory:
		return nil
	case BackendBadger:
	default:
		return fmt.Errorf("storage.backend %q: must be badger or memory", cfg.Backend)
	}

	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}
	if cfg.GCInterval < 0 {
		return errors.New("storage.gc_interval must not be negative")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q: must be debug, info, warn or error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: must be json or text", cfg.Format))
	}
	return errors.Join(errs...)
}
