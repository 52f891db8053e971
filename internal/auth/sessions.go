package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"gorm.io/gorm"

	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/entities"
)

// sessionTokenBytes is the entropy of a session token; 32 bytes hex-encode
// to a 64 character cookie value.
const sessionTokenBytes = 32

// SessionStore persists the sessionID -> principal mapping. The signature
// matches the scs store contract so sqlite3store can back it directly.
type SessionStore interface {
	Find(token string) (b []byte, found bool, err error)
	Commit(token string, b []byte, expiry time.Time) error
	Delete(token string) error
}

// SessionManager creates, resolves and destroys opaque sessions. Only the
// username is stored against the token; the user record is re-fetched on
// every resolve so an externally deleted account invalidates its sessions
// immediately instead of lingering as a stale snapshot.
type SessionManager struct {
	store    SessionStore
	users    UserStore
	lifetime time.Duration
}

// NewSessionManager creates a session manager backed by the sessions table
// in the application database. The sqlDB parameter should be the underlying
// *sql.DB from GORM.
func NewSessionManager(sqlDB *sql.DB, users UserStore, cfg config.Auth) (*SessionManager, error) {
	// Create the sessions table if it doesn't exist
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	lifetime := cfg.SessionLifetime
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}

	return &SessionManager{
		store:    sqlite3store.New(sqlDB),
		users:    users,
		lifetime: lifetime,
	}, nil
}

// NewSessionManagerWithStore wires an explicit store implementation; used
// by tests and non-sqlite deployments.
func NewSessionManagerWithStore(store SessionStore, users UserStore, lifetime time.Duration) *SessionManager {
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return &SessionManager{store: store, users: users, lifetime: lifetime}
}

// Create generates an unguessable session token for the user and persists
// the token -> username mapping.
func (sm *SessionManager) Create(user *entities.User) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	expiry := time.Now().Add(sm.lifetime)
	if err := sm.store.Commit(token, []byte(user.Username), expiry); err != nil {
		return "", fmt.Errorf("failed to persist session: %w", err)
	}
	return token, nil
}

// Resolve maps a session token back to the current user record. An unknown
// or expired token, and a token whose user no longer exists, both return
// ErrNotAuthenticated.
func (sm *SessionManager) Resolve(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	data, found, err := sm.store.Find(token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if !found {
		return nil, ErrNotAuthenticated
	}

	user, err := sm.users.GetByUsername(string(data))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The principal was deleted out from under the session; the
			// mapping is dead weight now.
			_ = sm.store.Delete(token)
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to resolve session user: %w", err)
	}
	return user, nil
}

// Destroy removes the session. Destroying an absent session is not an
// error, so concurrent duplicate logouts are harmless.
func (sm *SessionManager) Destroy(token string) error {
	if token == "" {
		return nil
	}
	if err := sm.store.Delete(token); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

func generateSessionToken() (string, error) {
	bytes := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
