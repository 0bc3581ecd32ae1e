// Package redis provides Redis-backed credential and session storage, for
// hosts that share one cached credential across several processes.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/authkit/internal/core/domain"
	"github.com/custodia-labs/authkit/internal/core/ports/driven"
)

// DefaultKeyPrefix namespaces every key written by the store.
const DefaultKeyPrefix = "authkit:"

const (
	credentialNamespace = "cred:"
	sessionNamespace    = "session:"
	scanBatchSize       = 100
)

// Store wraps a go-redis client and exposes the storage ports.
type Store struct {
	client *redis.Client
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix replaces DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New connects to the Redis server at addr and verifies the connection.
func New(ctx context.Context, addr string, opts ...Option) (*Store, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: redis address is required", domain.ErrInvalidInput)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewFromClient(client, opts...), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultKeyPrefix,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// CredentialStorage returns a CredentialStorage interface backed by this store.
func (s *Store) CredentialStorage() driven.CredentialStorage {
	return &credentialStorage{store: s}
}

// SessionStore returns a SessionStore interface backed by this store.
func (s *Store) SessionStore() driven.SessionStore {
	return &sessionStore{store: s}
}

func (s *Store) credentialKey(key string) string {
	return s.prefix + credentialNamespace + key
}

func (s *Store) sessionKey(id string) string {
	return s.prefix + sessionNamespace + id
}

// credentialStorage implements driven.CredentialStorage.
type credentialStorage struct {
	store *Store
}

var _ driven.CredentialStorage = (*credentialStorage)(nil)

// Store writes value under key.
func (c *credentialStorage) Store(ctx context.Context, key, value string) error {
	if err := c.store.client.Set(ctx, c.store.credentialKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Retrieve reads the value for key.
func (c *credentialStorage) Retrieve(ctx context.Context, key string) (string, bool, error) {
	value, err := c.store.client.Get(ctx, c.store.credentialKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Remove deletes key.
func (c *credentialStorage) Remove(ctx context.Context, key string) error {
	if err := c.store.client.Del(ctx, c.store.credentialKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// sessionStore implements driven.SessionStore. Sessions are stored as JSON.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// Save stores or updates a session.
func (s *sessionStore) Save(ctx context.Context, session domain.AuthorizationSession) error {
	if session.ID == "" {
		return domain.ErrInvalidInput
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshalling session: %w", err)
	}
	if err := s.store.client.Set(ctx, s.store.sessionKey(session.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (s *sessionStore) Get(ctx context.Context, id string) (*domain.AuthorizationSession, error) {
	data, err := s.store.client.Get(ctx, s.store.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var session domain.AuthorizationSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshalling session: %w", err)
	}
	return &session, nil
}

// List returns all sessions, oldest first.
func (s *sessionStore) List(ctx context.Context) ([]domain.AuthorizationSession, error) {
	var keys []string
	iter := s.store.client.Scan(ctx, 0, s.store.sessionKey("*"), scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning sessions: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := s.store.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}

	sessions := make([]domain.AuthorizationSession, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue // deleted between SCAN and MGET
		}
		var session domain.AuthorizationSession
		if err := json.Unmarshal([]byte(raw), &session); err != nil {
			return nil, fmt.Errorf("unmarshalling session %s: %w", keys[i], err)
		}
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// Delete removes a session.
func (s *sessionStore) Delete(ctx context.Context, id string) error {
	if err := s.store.client.Del(ctx, s.store.sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
