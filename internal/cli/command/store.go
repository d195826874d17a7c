package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tenantgate/internal/core/service"
	"github.com/yndnr/tenantgate/internal/storage"
	"github.com/yndnr/tenantgate/internal/telemetry/logger"
)

// adminStore is the data directory opened for one admin command.
type adminStore struct {
	engine  *storage.BadgerEngine
	keys    *service.APIKeyService
	members *service.MembershipService
}

// openStore opens the badger data directory named by --data-dir.
func openStore(c *cli.Context) (*adminStore, error) {
	dir := ParseGlobalFlags(c).DataDir
	if dir == "" {
		return nil, errors.New("--data-dir is required")
	}

	log := logger.NewSlog(logger.Config{
		Level:  "warn",
		Format: "text",
		Output: c.App.ErrWriter,
	})
	engine, err := storage.NewBadgerEngine(storage.DefaultKVConfig(dir), log)
	if err != nil {
		return nil, fmt.Errorf("open data dir %s (is tenantgate-server running?): %w", dir, err)
	}

	return &adminStore{
		engine:  engine,
		keys:    service.NewAPIKeyService(storage.NewAPIKeyStore(engine)),
		members: service.NewMembershipService(storage.NewMembershipStore(engine)),
	}, nil
}

// Close releases the data directory lock.
func (s *adminStore) Close() error {
	return s.engine.Close()
}

// withStore runs fn with an open store and closes it afterwards.
func withStore(c *cli.Context, fn func(*adminStore) error) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}
	err = fn(store)
	if cerr := store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
