package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/authkit/internal/core/domain"
	"github.com/custodia-labs/authkit/internal/core/ports/driven"
	"github.com/custodia-labs/authkit/internal/core/ports/driving"
	"github.com/custodia-labs/authkit/internal/logger"
)

// Ensure CredentialsManager implements the interfaces.
var (
	_ driving.CredentialsManager = (*CredentialsManager)(nil)
	_ driven.TokenProvider       = (*CredentialsManager)(nil)
)

// Storage keys for the cached credential.
//
//nolint:gosec // G101: These are storage key names, not actual credentials.
const (
	keyAccessToken  = "authkit.access_token"
	keyRefreshToken = "authkit.refresh_token"
	keyIDToken      = "authkit.id_token"
	keyTokenType    = "authkit.token_type"
	keyExpiresAt    = "authkit.expires_at"
)

var credentialKeys = []string{keyAccessToken, keyRefreshToken, keyIDToken, keyTokenType, keyExpiresAt}

// refreshFlightKey is the single singleflight key; a manager caches one credential.
const refreshFlightKey = "refresh"

// CredentialsManager caches a credential in a CredentialStorage and renews
// it through a TokenExchanger once it expires.
type CredentialsManager struct {
	storage   driven.CredentialStorage
	exchanger driven.TokenExchanger
	leeway    time.Duration
	now       func() time.Time

	refreshGroup singleflight.Group
}

// CredentialsOption configures a CredentialsManager.
type CredentialsOption func(*CredentialsManager)

// WithRefreshLeeway treats a credential as expired d before its expiry.
func WithRefreshLeeway(d time.Duration) CredentialsOption {
	return func(m *CredentialsManager) {
		if d > 0 {
			m.leeway = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) CredentialsOption {
	return func(m *CredentialsManager) {
		m.now = now
	}
}

// NewCredentialsManager creates a manager over storage and exchanger.
func NewCredentialsManager(
	storage driven.CredentialStorage,
	exchanger driven.TokenExchanger,
	opts ...CredentialsOption,
) *CredentialsManager {
	m := &CredentialsManager{
		storage:   storage,
		exchanger: exchanger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Save validates and persists a credential, replacing any previous one.
func (m *CredentialsManager) Save(ctx context.Context, cred domain.Credential) error {
	if !cred.IsCacheable() {
		return &domain.CacheError{Kind: domain.ErrInvalidCredential}
	}
	if err := m.persist(ctx, domain.NewCachedRecord(cred, m.now())); err != nil {
		return err
	}
	logger.Debug("credentials saved (expires in %ds, refresh token: %t)", *cred.ExpiresIn, cred.HasRefreshToken())
	return nil
}

// Get returns a valid credential, refreshing it first if it has expired.
func (m *CredentialsManager) Get(ctx context.Context) (*domain.Credential, error) {
	record, err := m.load(ctx)
	if err != nil {
		return nil, err
	}

	now := m.now()
	if !record.IsExpired(now, m.leeway) {
		cred := record.Credential(now)
		return &cred, nil
	}
	if record.RefreshToken == "" {
		return nil, &domain.CacheError{Kind: domain.ErrExpiredNoRefreshToken}
	}

	ch := m.refreshGroup.DoChan(refreshFlightKey, func() (any, error) {
		// The exchange outlives any single caller so joiners are not
		// failed by the first caller's cancellation.
		return m.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logger.Debug("joined in-flight credential refresh")
		}
		cred := res.Val.(domain.Credential).Clone()
		return &cred, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// refresh runs inside the flight. The record is re-read so that a caller
// arriving just after a completed flight reuses its result.
func (m *CredentialsManager) refresh(ctx context.Context) (domain.Credential, error) {
	record, err := m.load(ctx)
	if err != nil {
		return domain.Credential{}, err
	}

	now := m.now()
	if !record.IsExpired(now, m.leeway) {
		return record.Credential(now), nil
	}
	if record.RefreshToken == "" {
		return domain.Credential{}, &domain.CacheError{Kind: domain.ErrExpiredNoRefreshToken}
	}

	logger.Debug("credentials expired at %s, refreshing", record.ExpiresAt.Format(time.RFC3339))
	fresh, err := m.exchanger.ExchangeRefreshToken(ctx, record.RefreshToken)
	if err != nil {
		logger.Warn("credential refresh failed: %v", err)
		return domain.Credential{}, &domain.CacheError{Kind: domain.ErrRefreshFailed, Err: err}
	}

	cred := fresh.Clone()
	if cred.RefreshToken == "" {
		cred.RefreshToken = record.RefreshToken
	}
	if !cred.IsCacheable() {
		return domain.Credential{}, &domain.CacheError{Kind: domain.ErrRefreshFailed, Err: domain.ErrInvalidCredential}
	}

	if err := m.persist(ctx, domain.NewCachedRecord(cred, m.now())); err != nil {
		return domain.Credential{}, &domain.CacheError{Kind: domain.ErrRefreshFailed, Err: err}
	}
	logger.Info("credentials refreshed (expires in %ds)", *cred.ExpiresIn)
	return cred, nil
}

// HasValid returns true if Get would succeed without user interaction.
func (m *CredentialsManager) HasValid(ctx context.Context) bool {
	record, err := m.load(ctx)
	if err != nil {
		return false
	}
	return !record.IsExpired(m.now(), m.leeway) || record.RefreshToken != ""
}

// Clear removes the cached credential.
func (m *CredentialsManager) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range credentialKeys {
		if err := m.storage.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.Debug("credentials cleared")
	return nil
}

// GetToken returns a valid access token, implementing driven.TokenProvider.
func (m *CredentialsManager) GetToken(ctx context.Context) (string, error) {
	cred, err := m.Get(ctx)
	if err != nil {
		return "", err
	}
	if cred.AccessToken == "" {
		return "", &domain.CacheError{
			Kind: domain.ErrCredentialsNotFound,
			Err:  errors.New("cached credential has no access token"),
		}
	}
	return cred.AccessToken, nil
}

// load reads the cached record. A record without a token or with a missing
// or unreadable expiry is reported as not found.
func (m *CredentialsManager) load(ctx context.Context) (domain.CachedRecord, error) {
	values := make(map[string]string, len(credentialKeys))
	for _, key := range credentialKeys {
		value, ok, err := m.storage.Retrieve(ctx, key)
		if err != nil {
			return domain.CachedRecord{}, fmt.Errorf("retrieve %s: %w", key, err)
		}
		if ok {
			values[key] = value
		}
	}

	record := domain.CachedRecord{
		AccessToken:  values[keyAccessToken],
		RefreshToken: values[keyRefreshToken],
		IDToken:      values[keyIDToken],
		TokenType:    values[keyTokenType],
	}
	if millis, err := strconv.ParseInt(values[keyExpiresAt], 10, 64); err == nil {
		record.ExpiresAt = time.UnixMilli(millis)
	}

	if !record.IsUsable() {
		return domain.CachedRecord{}, &domain.CacheError{Kind: domain.ErrCredentialsNotFound}
	}
	return record, nil
}

// persist writes every key of the record. Empty values are removed so a
// previous record's fields do not leak into the new one.
func (m *CredentialsManager) persist(ctx context.Context, record domain.CachedRecord) error {
	values := map[string]string{
		keyAccessToken:  record.AccessToken,
		keyRefreshToken: record.RefreshToken,
		keyIDToken:      record.IDToken,
		keyTokenType:    record.TokenType,
		keyExpiresAt:    strconv.FormatInt(record.ExpiresAt.UnixMilli(), 10),
	}
	for _, key := range credentialKeys {
		var err error
		if value := values[key]; value != "" {
			err = m.storage.Store(ctx, key, value)
		} else {
			err = m.storage.Remove(ctx, key)
		}
		if err != nil {
			return fmt.Errorf("store %s: %w", key, err)
		}
	}
	return nil
}
