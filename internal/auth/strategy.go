package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/mrlokans/secrets/internal/entities"
	"github.com/mrlokans/secrets/internal/oauth2"
)

// Strategy names that ship with the application.
const (
	StrategyLocal = "local"
	StrategyOAuth = "oauth"
)

// Credentials carries what a caller presented for verification. Local
// logins fill Username/Password; OAuth callbacks fill Profile. Credentials
// are transient and never persisted.
type Credentials struct {
	Username string
	Password string
	Profile  *oauth2.Profile
}

// UserStore is the persistence boundary for user records. Implementations
// signal an absent row with gorm.ErrRecordNotFound and a violated username
// unique index with gorm.ErrDuplicatedKey.
type UserStore interface {
	GetByUsername(username string) (*entities.User, error)
	GetByExternalID(externalID string) (*entities.User, error)
	Create(user *entities.User) (*entities.User, error)
	LinkExternalID(username, externalID string) (*entities.User, error)
}

// Strategy verifies one kind of credentials and resolves the user behind
// them.
type Strategy interface {
	Verify(ctx context.Context, creds Credentials) (*entities.User, error)
}

// Registry maps strategy names to verification strategies. Dispatch is by
// explicit lookup, never by caller-supplied callbacks.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a named strategy, replacing any previous registration.
func (r *Registry) Register(name string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[name] = s
}

// Get retrieves a strategy by name.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return s, nil
}

// Authenticate dispatches the credentials to the named strategy.
func (r *Registry) Authenticate(ctx context.Context, name string, creds Credentials) (*entities.User, error) {
	s, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return s.Verify(ctx, creds)
}

// LocalStrategy verifies a username/password pair against the credential
// store.
type LocalStrategy struct {
	users  UserStore
	hasher *Hasher
}

// NewLocalStrategy creates the password strategy.
func NewLocalStrategy(users UserStore, hasher *Hasher) *LocalStrategy {
	return &LocalStrategy{users: users, hasher: hasher}
}

// Verify resolves the user and compares the password. Username matching is
// exact-string; no case folding.
func (s *LocalStrategy) Verify(ctx context.Context, creds Credentials) (*entities.User, error) {
	if creds.Username == "" {
		return nil, ErrUsernameRequired
	}
	if creds.Password == "" {
		return nil, ErrPasswordRequired
	}

	user, err := s.users.GetByUsername(creds.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// An OAuth-only account has no password to check against.
	if user.PasswordHash == "" {
		return nil, ErrInvalidPassword
	}

	if err := s.hasher.Compare(ctx, creds.Password, user.PasswordHash); err != nil {
		return nil, err
	}
	return user, nil
}

// OAuthStrategy resolves an already-exchanged provider profile to a user,
// creating the account on first login.
type OAuthStrategy struct {
	users UserStore
}

// NewOAuthStrategy creates the federated login strategy.
func NewOAuthStrategy(users UserStore) *OAuthStrategy {
	return &OAuthStrategy{users: users}
}

// Verify looks the profile up by its provider-qualified identifier and
// creates a user on first login. Store failures surface as provider
// failures; the caller cannot fix them by retyping anything.
func (s *OAuthStrategy) Verify(ctx context.Context, creds Credentials) (*entities.User, error) {
	profile := creds.Profile
	if profile == nil || profile.Subject == "" {
		return nil, fmt.Errorf("%w: empty profile", ErrProviderFailure)
	}

	externalID := profile.ExternalID()
	user, err := s.users.GetByExternalID(externalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: lookup failed: %v", ErrProviderFailure, err)
	}

	// First login for this provider identity.
	user, err = s.users.Create(&entities.User{
		Username:   profile.DerivedUsername(),
		ExternalID: &externalID,
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Either a concurrent first login won the insert, or the derived
		// username (usually the email) is taken by an unrelated account.
		if existing, lookupErr := s.users.GetByExternalID(externalID); lookupErr == nil {
			return existing, nil
		}
		// The qualified subject cannot collide as a username.
		user, err = s.users.Create(&entities.User{
			Username:   profile.Provider + "-" + profile.Subject,
			ExternalID: &externalID,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("%w: create failed: %v", ErrProviderFailure, err)
	}
	return user, nil
}
