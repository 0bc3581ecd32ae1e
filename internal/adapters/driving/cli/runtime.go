package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/authkit/internal/adapters/driven/oauth"
	"github.com/custodia-labs/authkit/internal/adapters/driven/storage/keyring"
	"github.com/custodia-labs/authkit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/authkit/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/authkit/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/authkit/internal/core/domain"
	"github.com/custodia-labs/authkit/internal/core/ports/driven"
	"github.com/custodia-labs/authkit/internal/core/ports/driving"
	"github.com/custodia-labs/authkit/internal/core/services"
	"github.com/custodia-labs/authkit/internal/logger"
)

// environment holds the adapters and services a command needs.
type environment struct {
	settings    domain.AppSettings
	account     domain.Account
	dataDir     string
	exchanger   driven.TokenExchanger
	userInfo    driven.UserInfoClient
	sessions    driven.SessionStore
	credentials driving.CredentialsManager
	closers     []func() error
}

// Close releases storage connections.
func (e *environment) Close() error {
	var errs []error
	for _, closeFn := range e.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}

// openEnvironment builds the environment for settings. Tests replace it.
var openEnvironment = newEnvironment

func newEnvironment(ctx context.Context, settings domain.AppSettings) (*environment, error) {
	account, err := settings.Account()
	if err != nil {
		return nil, err
	}

	dir, err := dataDir()
	if err != nil {
		return nil, err
	}

	client := oauth.NewTokenClient(account,
		oauth.WithUserAgent("authkit/"+version),
		oauth.WithTelemetry(domain.Telemetry{Name: "authkit", Version: version}),
	)

	env := &environment{
		settings:  settings,
		account:   account,
		dataDir:   dir,
		exchanger: client,
		userInfo:  client,
	}

	storage, err := env.openStorage(ctx)
	if err != nil {
		return nil, err
	}

	env.credentials = services.NewCredentialsManager(storage, client,
		services.WithRefreshLeeway(settings.Credentials.RefreshLeeway),
	)
	return env, nil
}

// openStorage opens the configured backend. Backends that cannot hold
// sessions keep them in memory for the lifetime of the login command.
func (e *environment) openStorage(ctx context.Context) (driven.CredentialStorage, error) {
	cfg := e.settings.Storage
	logger.Debug("credential storage: %s", cfg.Backend.Description())

	switch cfg.Backend {
	case domain.StorageSQLite:
		store, err := sqlite.NewStore(filepath.Join(e.dataDir, "data"))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		e.closers = append(e.closers, store.Close)
		e.sessions = store.SessionStore()
		return store.CredentialStorage(), nil

	case domain.StorageKeyring:
		if !keyring.Available(cfg.KeyringService) {
			return nil, errors.New("OS keyring is not available; choose another storage backend")
		}
		e.sessions = memory.NewSessionStore()
		return keyring.NewCredentialStorage(cfg.KeyringService), nil

	case domain.StorageRedis:
		store, err := redis.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis storage: %w", err)
		}
		e.closers = append(e.closers, store.Close)
		e.sessions = store.SessionStore()
		return store.CredentialStorage(), nil

	case domain.StorageMemory:
		logger.Warn("memory storage does not outlive this command")
		e.sessions = memory.NewSessionStore()
		return memory.NewCredentialStorage(), nil

	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, cfg.Backend)
	}
}
