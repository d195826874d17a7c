package tlsroots

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// expiryWarning is how close to NotAfter a reload starts warning.
const expiryWarning = 14 * 24 * time.Hour

// KeyPair serves a server certificate and reloads it when the files change.
type KeyPair struct {
	certFile string
	keyFile  string
	log      *slog.Logger
	debounce time.Duration

	mu   sync.RWMutex
	cert *tls.Certificate
}

// Option configures a KeyPair.
type Option func(*KeyPair)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(k *KeyPair) {
		k.log = log
	}
}

// WithDebounce sets how long to wait for writes to settle before reloading.
func WithDebounce(d time.Duration) Option {
	return func(k *KeyPair) {
		k.debounce = d
	}
}

// NewKeyPair loads certFile and keyFile.
func NewKeyPair(certFile, keyFile string, opts ...Option) (*KeyPair, error) {
	k := &KeyPair{
		certFile: certFile,
		keyFile:  keyFile,
		log:      slog.Default(),
		debounce: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(k)
	}

	if err := k.Reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return k, nil
}

// Reload reads the key pair from disk. On failure the previous certificate
// stays in service.
func (k *KeyPair) Reload() error {
	cert, err := tls.LoadX509KeyPair(k.certFile, k.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("parse leaf: %w", err)
	}
	cert.Leaf = leaf

	k.mu.Lock()
	k.cert = &cert
	k.mu.Unlock()

	remaining := time.Until(leaf.NotAfter)
	switch {
	case remaining <= 0:
		k.log.Error("certificate expired", "cert_file", k.certFile, "not_after", leaf.NotAfter)
	case remaining < expiryWarning:
		k.log.Warn("certificate expires soon", "cert_file", k.certFile, "not_after", leaf.NotAfter)
	default:
		k.log.Info("certificate loaded", "cert_file", k.certFile, "not_after", leaf.NotAfter)
	}
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (k *KeyPair) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.cert, nil
}

// Leaf returns the parsed leaf of the certificate in service.
func (k *KeyPair) Leaf() *x509.Certificate {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.cert.Leaf
}

// ServerConfig returns a server TLS config backed by this key pair.
func (k *KeyPair) ServerConfig() *tls.Config {
	return &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: k.GetCertificate,
	}
}

// Watch reloads the key pair on file changes until ctx is done.
// Directories are watched so that editor-style renames are seen.
func (k *KeyPair) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	defer watcher.Close()

	certPath, _ := filepath.Abs(k.certFile)
	keyPath, _ := filepath.Abs(k.keyFile)
	for _, dir := range uniqueDirs(certPath, keyPath) {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(event.Name)
			if name != certPath && name != keyPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(k.debounce, func() {
				if err := k.Reload(); err != nil {
					k.log.Error("certificate reload failed", "cert_file", k.certFile, "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			k.log.Error("certificate watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

func uniqueDirs(paths ...string) []string {
	seen := make(map[string]bool, len(paths))
	var dirs []string
	for _, p := range paths {
		d := filepath.Dir(p)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs
}
