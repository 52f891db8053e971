// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help readers understand
// extension points and how to implement new functionality.
//
// # Interface Categories
//
// The application uses several categories of interfaces:
//
// ## Data Access Interfaces
//
//   - UserStore: account persistence (internal/auth/strategy.go)
//   - FlashQueue: one-shot message storage (internal/auth/service.go)
//   - FlashPruner: stale flash cleanup (internal/scheduler/flash_cleanup.go)
//   - SecretStore: secret storage and listing (internal/http/secrets.go)
//
// ## Authentication Interfaces
//
//   - Strategy: credential verification (internal/auth/strategy.go)
//   - SessionStore: session token persistence (internal/auth/sessions.go)
//   - oauth2.Provider: identity provider client (internal/oauth2/provider.go)
//
// # Adding a New Authentication Strategy
//
// To add a new way to verify credentials (e.g., LDAP):
//
//  1. Implement Strategy in internal/auth/
//
//     type LDAPStrategy struct {
//     addr string
//     }
//
//     func (s *LDAPStrategy) Verify(ctx context.Context, creds auth.Credentials) (*entities.User, error)
//
//     var _ auth.Strategy = (*LDAPStrategy)(nil)
//
//  2. Register it in entrypoint.go
//
//     strategies.Register("ldap", NewLDAPStrategy(addr))
//
// # Adding a New OAuth2 Provider
//
// To add a new identity provider (e.g., GitHub):
//
//  1. Implement oauth2.Provider in internal/oauth2/providers/
//
//     type GitHubProvider struct {
//     clientID     string
//     clientSecret string
//     httpClient   *http.Client
//     }
//
//     func (p *GitHubProvider) Name() string
//     func (p *GitHubProvider) BuildAuthURL(redirectURL, state string) string
//     func (p *GitHubProvider) Exchange(ctx context.Context, code, redirectURL string) (*oauth2.Profile, error)
//
//     var _ oauth2.Provider = (*GitHubProvider)(nil)
//
//  2. Register it in entrypoint.go; the /auth/:provider routes pick it up
//     by name with no further wiring.
//
// # Adding a New Database Domain
//
// To add a new data domain:
//
//  1. Create sub-package: internal/database/<domain>/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Implement interface methods
//
//  4. Add compile-time check:
//
//     var _ SomeStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
