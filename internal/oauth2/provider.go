package oauth2

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
)

// Profile is the identity a provider vouches for after a completed
// authorization code exchange. Subject is the provider's stable account
// identifier; Email and Name are best-effort profile fields.
type Profile struct {
	Provider string
	Subject  string
	Email    string
	Name     string
}

// ExternalID returns the provider-qualified identifier stored on the user
// record, e.g. "google:108613973219".
func (p *Profile) ExternalID() string {
	return p.Provider + ":" + p.Subject
}

// DerivedUsername picks a username for a first-time federated login. The
// email is preferred when the provider shares one; the qualified subject is
// always available as a collision-free fallback.
func (p *Profile) DerivedUsername() string {
	if p.Email != "" {
		return p.Email
	}
	return p.Provider + "-" + p.Subject
}

// Provider defines the client for a single OAuth2 identity provider. Token
// exchange and profile retrieval happen inside Exchange so callers only
// ever see a resolved Profile.
type Provider interface {
	// Name returns the provider identifier (e.g. "google")
	Name() string

	// BuildAuthURL constructs the authorization URL the browser is sent to.
	// The state parameter is round-tripped for CSRF verification.
	BuildAuthURL(redirectURL, state string) string

	// Exchange trades an authorization code for the authenticated profile.
	Exchange(ctx context.Context, code, redirectURL string) (*Profile, error)
}

// Registry manages registered OAuth2 providers
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return p, nil
}

// List returns all registered provider names
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// GenerateState creates a random state value for CSRF protection
func GenerateState() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
