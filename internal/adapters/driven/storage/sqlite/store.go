package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/authkit/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/authkit/internal/core/domain"
	"github.com/custodia-labs/authkit/internal/core/ports/driven"
)

// databaseFile is the file name of the database inside the data directory.
const databaseFile = "authkit.db"

// Store is a SQLite-based storage that backs both the credential cache
// and the authorization session store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.authkit/data/authkit.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".authkit", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, databaseFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CredentialStorage returns a CredentialStorage interface backed by this store.
func (s *Store) CredentialStorage() driven.CredentialStorage {
	return &credentialStorage{store: s}
}

// SessionStore returns a SessionStore interface backed by this store.
func (s *Store) SessionStore() driven.SessionStore {
	return &sessionStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Credential Storage ====================

// credentialStorage implements driven.CredentialStorage.
type credentialStorage struct {
	store *Store
}

var _ driven.CredentialStorage = (*credentialStorage)(nil)

// Store writes value under key.
func (s *credentialStorage) Store(ctx context.Context, key, value string) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO credential_store (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storing credential entry: %w", err)
	}
	return nil
}

// Retrieve reads the value for key.
func (s *credentialStorage) Retrieve(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT value FROM credential_store WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("retrieving credential entry: %w", err)
	}
	return value, true, nil
}

// Remove deletes key.
func (s *credentialStorage) Remove(ctx context.Context, key string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM credential_store WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("removing credential entry: %w", err)
	}
	return nil
}

// ==================== Session Store ====================

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

const sessionColumns = `id, state, code_verifier, code_challenge, redirect_uri, scope, audience,
	connection, authorize_url, launched, status, created_at, updated_at`

// Save stores or updates a session.
func (s *sessionStore) Save(ctx context.Context, session domain.AuthorizationSession) error {
	if session.ID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = now
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO authorization_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			code_verifier = excluded.code_verifier,
			code_challenge = excluded.code_challenge,
			redirect_uri = excluded.redirect_uri,
			scope = excluded.scope,
			audience = excluded.audience,
			connection = excluded.connection,
			authorize_url = excluded.authorize_url,
			launched = excluded.launched,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, session.ID, session.State, nullString(session.CodeVerifier), nullString(session.CodeChallenge),
		session.RedirectURI, nullString(session.Scope), nullString(session.Audience),
		nullString(session.Connection), session.AuthorizeURL, session.Launched, string(session.Status),
		session.CreatedAt.UTC(), session.UpdatedAt.UTC())

	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (s *sessionStore) Get(ctx context.Context, id string) (*domain.AuthorizationSession, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM authorization_sessions WHERE id = ?", id)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return session, nil
}

// List returns all sessions, oldest first.
func (s *sessionStore) List(ctx context.Context) ([]domain.AuthorizationSession, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM authorization_sessions ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.AuthorizationSession //nolint:prealloc // size unknown from query
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	return sessions, nil
}

// Delete removes a session.
func (s *sessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM authorization_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.AuthorizationSession, error) {
	var session domain.AuthorizationSession
	var codeVerifier, codeChallenge, scope, audience, connection sql.NullString
	var status string
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(&session.ID, &session.State, &codeVerifier, &codeChallenge,
		&session.RedirectURI, &scope, &audience, &connection, &session.AuthorizeURL,
		&session.Launched, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	session.CodeVerifier = codeVerifier.String
	session.CodeChallenge = codeChallenge.String
	session.Scope = scope.String
	session.Audience = audience.String
	session.Connection = connection.String
	session.Status = domain.SessionStatus(status)
	if createdAt.Valid {
		session.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		session.UpdatedAt = updatedAt.Time
	}

	return &session, nil
}

// nullString converts an empty string to a NULL column value.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
