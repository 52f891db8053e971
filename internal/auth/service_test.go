package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/database/flash"
	"github.com/mrlokans/secrets/internal/database/users"
	"github.com/mrlokans/secrets/internal/entities"
	"github.com/mrlokans/secrets/internal/oauth2"
)

func setupService(t *testing.T) (*Service, *users.Repository) {
	t.Helper()

	db := setupTestDB(t)
	userRepo := users.NewRepository(db)
	flashRepo := flash.NewRepository(db)
	hasher := testHasher()

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sessions, err := NewSessionManager(sqlDB, userRepo, config.Auth{SessionLifetime: time.Hour})
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	strategies := NewRegistry()
	strategies.Register(StrategyLocal, NewLocalStrategy(userRepo, hasher))
	strategies.Register(StrategyOAuth, NewOAuthStrategy(userRepo))

	return NewService(strategies, sessions, userRepo, flashRepo, hasher), userRepo
}

func drainTexts(t *testing.T, svc *Service, flashID string) []string {
	t.Helper()

	flashes, err := svc.Flashes(flashID)
	if err != nil {
		t.Fatalf("Flashes() failed: %v", err)
	}
	texts := make([]string, 0, len(flashes))
	for _, f := range flashes {
		texts = append(texts, f.Text)
	}
	return texts
}

func TestService_Login(t *testing.T) {
	svc, repo := setupService(t)
	mustCreateUser(t, repo, "alice", "pw123")

	tests := []struct {
		name      string
		username  string
		password  string
		wantErr   error
		wantFlash string
	}{
		{
			name:     "valid credentials",
			username: "alice",
			password: "pw123",
		},
		{
			name:      "unknown username",
			username:  "bob",
			password:  "pw123",
			wantErr:   ErrUserNotFound,
			wantFlash: FlashIncorrectUsername,
		},
		{
			name:      "wrong password",
			username:  "alice",
			password:  "nope",
			wantErr:   ErrInvalidPassword,
			wantFlash: FlashIncorrectPassword,
		},
		{
			name:      "missing username",
			username:  "",
			password:  "pw123",
			wantErr:   ErrUsernameRequired,
			wantFlash: FlashMissingFields,
		},
		{
			name:      "missing password",
			username:  "alice",
			password:  "",
			wantErr:   ErrPasswordRequired,
			wantFlash: FlashMissingFields,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flashID := "flash-" + tt.name

			token, err := svc.Login(context.Background(), flashID, tt.username, tt.password)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Login() error = %v, wantErr %v", err, tt.wantErr)
				}
				if token != "" {
					t.Error("Login() issued a session despite failing")
				}
				texts := drainTexts(t, svc, flashID)
				if len(texts) != 1 || texts[0] != tt.wantFlash {
					t.Errorf("flash queue = %v, want exactly [%q]", texts, tt.wantFlash)
				}
				return
			}

			if err != nil {
				t.Fatalf("Login() unexpected error: %v", err)
			}
			user, err := svc.CurrentUser(token)
			if err != nil {
				t.Fatalf("CurrentUser() on fresh session failed: %v", err)
			}
			if user.Username != tt.username {
				t.Errorf("session resolves to %q, want %q", user.Username, tt.username)
			}
			if texts := drainTexts(t, svc, flashID); len(texts) != 0 {
				t.Errorf("successful login queued flashes: %v", texts)
			}
		})
	}
}

func TestService_Register(t *testing.T) {
	svc, repo := setupService(t)

	token, err := svc.Register(context.Background(), "f1", "alice", "pw123")
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	// Registration logs the account straight in
	user, err := svc.CurrentUser(token)
	if err != nil {
		t.Fatalf("CurrentUser() after register failed: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("session resolves to %q, want alice", user.Username)
	}

	stored, err := repo.GetByUsername("alice")
	if err != nil {
		t.Fatalf("GetByUsername() failed: %v", err)
	}
	if stored.PasswordHash == "pw123" || stored.PasswordHash == "" {
		t.Error("password stored without hashing")
	}
}

func TestService_RegisterDuplicateUsername(t *testing.T) {
	svc, _ := setupService(t)

	if _, err := svc.Register(context.Background(), "f1", "alice", "pw123"); err != nil {
		t.Fatalf("first Register() failed: %v", err)
	}

	_, err := svc.Register(context.Background(), "f2", "alice", "other")
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate Register() error = %v, want ErrUserExists", err)
	}
	texts := drainTexts(t, svc, "f2")
	if len(texts) != 1 || texts[0] != FlashUsernameTaken {
		t.Errorf("flash queue = %v, want exactly [%q]", texts, FlashUsernameTaken)
	}

	// The original account still works
	if _, err := svc.Login(context.Background(), "f3", "alice", "pw123"); err != nil {
		t.Errorf("original account broken after duplicate register: %v", err)
	}
}

func TestService_RegisterMissingFields(t *testing.T) {
	svc, _ := setupService(t)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"missing username", "", "pw123", ErrUsernameRequired},
		{"missing password", "alice", "", ErrPasswordRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flashID := "flash-" + tt.name
			_, err := svc.Register(context.Background(), flashID, tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
			texts := drainTexts(t, svc, flashID)
			if len(texts) != 1 || texts[0] != FlashMissingFields {
				t.Errorf("flash queue = %v, want exactly [%q]", texts, FlashMissingFields)
			}
		})
	}
}

func TestService_OAuthCallback(t *testing.T) {
	svc, repo := setupService(t)

	profile := &oauth2.Profile{Provider: "google", Subject: "113", Email: "alice@example.com"}

	token, err := svc.OAuthCallback(context.Background(), "f1", profile)
	if err != nil {
		t.Fatalf("OAuthCallback() failed: %v", err)
	}

	user, err := svc.CurrentUser(token)
	if err != nil {
		t.Fatalf("CurrentUser() after oauth login failed: %v", err)
	}
	if user.Username != "alice@example.com" {
		t.Errorf("session resolves to %q, want alice@example.com", user.Username)
	}

	if _, err := repo.GetByExternalID("google:113"); err != nil {
		t.Errorf("provider identity not persisted: %v", err)
	}
}

func TestService_OAuthCallbackProviderFailure(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.OAuthCallback(context.Background(), "f1", nil)
	if !errors.Is(err, ErrProviderFailure) {
		t.Errorf("OAuthCallback(nil) error = %v, want ErrProviderFailure", err)
	}
	texts := drainTexts(t, svc, "f1")
	if len(texts) != 1 || texts[0] != FlashSignInFailed {
		t.Errorf("flash queue = %v, want exactly [%q]", texts, FlashSignInFailed)
	}
}

func TestService_Logout(t *testing.T) {
	svc, repo := setupService(t)
	mustCreateUser(t, repo, "alice", "pw123")

	token, err := svc.Login(context.Background(), "f1", "alice", "pw123")
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}

	if err := svc.Logout(token); err != nil {
		t.Fatalf("Logout() failed: %v", err)
	}
	if _, err := svc.CurrentUser(token); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("CurrentUser() after logout: error = %v, want ErrNotAuthenticated", err)
	}

	// Logging out twice, or with no session, is harmless
	if err := svc.Logout(token); err != nil {
		t.Errorf("second Logout() failed: %v", err)
	}
	if err := svc.Logout(""); err != nil {
		t.Errorf("Logout(\"\") failed: %v", err)
	}
}

func TestService_RequireAuthenticated(t *testing.T) {
	svc, repo := setupService(t)
	mustCreateUser(t, repo, "alice", "pw123")

	token, err := svc.Login(context.Background(), "f1", "alice", "pw123")
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}

	user, err := svc.RequireAuthenticated(token, "f1")
	if err != nil {
		t.Fatalf("RequireAuthenticated() failed: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("RequireAuthenticated() returned %q, want alice", user.Username)
	}

	_, err = svc.RequireAuthenticated("", "f2")
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("RequireAuthenticated() without session: error = %v, want ErrNotAuthenticated", err)
	}
	texts := drainTexts(t, svc, "f2")
	if len(texts) != 1 || texts[0] != FlashNotAuthenticated {
		t.Errorf("flash queue = %v, want exactly [%q]", texts, FlashNotAuthenticated)
	}
}

func TestService_FlashesAreOrderedAndDrainedOnce(t *testing.T) {
	svc, _ := setupService(t)

	// Two failures against the same flash session
	_, _ = svc.Login(context.Background(), "f1", "ghost", "pw123")
	_, _ = svc.Login(context.Background(), "f1", "ghost2", "pw123")

	flashes, err := svc.Flashes("f1")
	if err != nil {
		t.Fatalf("Flashes() failed: %v", err)
	}
	if len(flashes) != 2 {
		t.Fatalf("drained %d flashes, want 2", len(flashes))
	}
	for _, f := range flashes {
		if f.Text != FlashIncorrectUsername {
			t.Errorf("flash text = %q, want %q", f.Text, FlashIncorrectUsername)
		}
		if f.Category != entities.FlashCategoryError {
			t.Errorf("flash category = %q, want error", f.Category)
		}
	}
	if flashes[0].ID >= flashes[1].ID {
		t.Error("flashes not in insertion order")
	}

	// Second drain finds nothing: delivery is exactly-once
	again, err := svc.Flashes("f1")
	if err != nil {
		t.Fatalf("second Flashes() failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second drain returned %d flashes, want 0", len(again))
	}
}

func TestService_FlashesEmptySessionID(t *testing.T) {
	svc, _ := setupService(t)

	flashes, err := svc.Flashes("")
	if err != nil {
		t.Fatalf("Flashes(\"\") failed: %v", err)
	}
	if len(flashes) != 0 {
		t.Errorf("Flashes(\"\") = %v, want empty", flashes)
	}
}
