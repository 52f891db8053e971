package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/mrlokans/secrets/internal/entities"
	"github.com/mrlokans/secrets/internal/oauth2"
)

// Flash texts shown to users. Failures stay non-technical; infrastructure
// detail never leaks here.
const (
	FlashIncorrectUsername = "Incorrect username."
	FlashIncorrectPassword = "Incorrect password."
	FlashUsernameTaken     = "Username already in use"
	FlashSignInFailed      = "Sign-in failed. Please try again."
	FlashNotAuthenticated  = "User is not authenticated"
	FlashMissingFields     = "Username and password are required"
)

// FlashQueue is the one-shot message store the orchestrator pushes
// user-visible failures into.
type FlashQueue interface {
	Push(sessionID string, category entities.FlashCategory, text string) error
	DrainAll(sessionID string) ([]entities.FlashMessage, error)
}

// Service is the auth orchestrator: the only entry point the web layer
// calls for login, registration, logout and session guarding.
type Service struct {
	strategies *Registry
	sessions   *SessionManager
	users      UserStore
	flash      FlashQueue
	hasher     *Hasher
}

// NewService composes the authentication components into the orchestrator.
func NewService(strategies *Registry, sessions *SessionManager, users UserStore, flash FlashQueue, hasher *Hasher) *Service {
	return &Service{
		strategies: strategies,
		sessions:   sessions,
		users:      users,
		flash:      flash,
		hasher:     hasher,
	}
}

// Login verifies a username/password pair with the local strategy and, on
// success, creates a session. On an authentication failure exactly one
// error flash is queued for flashID and the sentinel error is returned; no
// session is created.
func (s *Service) Login(ctx context.Context, flashID, username, password string) (string, error) {
	user, err := s.strategies.Authenticate(ctx, StrategyLocal, Credentials{
		Username: username,
		Password: password,
	})
	if err != nil {
		if text, ok := flashText(err); ok {
			s.pushFlash(flashID, entities.FlashCategoryError, text)
			return "", err
		}
		return "", fmt.Errorf("login failed: %w", err)
	}

	token, err := s.sessions.Create(user)
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	return token, nil
}

// Register creates a local account and logs it straight in. A duplicate
// username queues one flash and returns ErrUserExists.
func (s *Service) Register(ctx context.Context, flashID, username, password string) (string, error) {
	if username == "" || password == "" {
		s.pushFlash(flashID, entities.FlashCategoryError, FlashMissingFields)
		if username == "" {
			return "", ErrUsernameRequired
		}
		return "", ErrPasswordRequired
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		if text, ok := flashText(err); ok {
			s.pushFlash(flashID, entities.FlashCategoryError, text)
			return "", err
		}
		return "", fmt.Errorf("registration failed: %w", err)
	}

	user, err := s.users.Create(&entities.User{
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.pushFlash(flashID, entities.FlashCategoryError, FlashUsernameTaken)
			return "", ErrUserExists
		}
		return "", fmt.Errorf("registration failed: %w", err)
	}

	// Auto-login, same as a successful Login call.
	token, err := s.sessions.Create(user)
	if err != nil {
		return "", fmt.Errorf("registration failed: %w", err)
	}
	return token, nil
}

// OAuthCallback resolves an exchanged provider profile to a user and
// creates a session. Provider failures (including timeouts classified by
// the provider client) queue one flash and return the sentinel.
func (s *Service) OAuthCallback(ctx context.Context, flashID string, profile *oauth2.Profile) (string, error) {
	user, err := s.strategies.Authenticate(ctx, StrategyOAuth, Credentials{Profile: profile})
	if err != nil {
		if errors.Is(err, ErrProviderFailure) || errors.Is(err, oauth2.ErrProviderTimeout) {
			s.pushFlash(flashID, entities.FlashCategoryError, FlashSignInFailed)
			return "", err
		}
		return "", fmt.Errorf("oauth callback failed: %w", err)
	}

	token, err := s.sessions.Create(user)
	if err != nil {
		return "", fmt.Errorf("oauth callback failed: %w", err)
	}
	return token, nil
}

// Logout destroys the session. Unknown sessions are not an error.
func (s *Service) Logout(sessionID string) error {
	return s.sessions.Destroy(sessionID)
}

// RequireAuthenticated resolves the session to its current user. An
// unauthenticated session queues the standard flash for flashID and
// returns ErrNotAuthenticated.
func (s *Service) RequireAuthenticated(sessionID, flashID string) (*entities.User, error) {
	user, err := s.sessions.Resolve(sessionID)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			s.pushFlash(flashID, entities.FlashCategoryError, FlashNotAuthenticated)
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("session resolution failed: %w", err)
	}
	return user, nil
}

// CurrentUser resolves a session without flashing on failure; used where
// authentication is optional (e.g. the home page).
func (s *Service) CurrentUser(sessionID string) (*entities.User, error) {
	return s.sessions.Resolve(sessionID)
}

// Flashes drains the pending messages for a flash session.
func (s *Service) Flashes(flashID string) ([]entities.FlashMessage, error) {
	if flashID == "" {
		return nil, nil
	}
	return s.flash.DrainAll(flashID)
}

// pushFlash queues a message, logging instead of failing: the caller is in
// the middle of reporting a domain failure and must not trade it for a
// flash-storage error.
func (s *Service) pushFlash(flashID string, category entities.FlashCategory, text string) {
	if flashID == "" {
		return
	}
	if err := s.flash.Push(flashID, category, text); err != nil {
		log.Printf("failed to queue flash message for session: %v", err)
	}
}

// flashText maps authentication-domain failures to their user-facing flash
// message. Infrastructure failures return false and propagate untranslated.
func flashText(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return FlashIncorrectUsername, true
	case errors.Is(err, ErrInvalidPassword):
		return FlashIncorrectPassword, true
	case errors.Is(err, ErrUserExists):
		return FlashUsernameTaken, true
	case errors.Is(err, ErrUsernameRequired), errors.Is(err, ErrPasswordRequired):
		return FlashMissingFields, true
	case errors.Is(err, ErrPasswordTooLong):
		return "Password is too long", true
	default:
		return "", false
	}
}
