package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/oauth2"
)

// fakeProvider stands in for a real identity provider so the callback
// handlers can be exercised without network access.
type fakeProvider struct {
	profile *oauth2.Profile
	err     error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) BuildAuthURL(redirectURL, state string) string {
	return "https://provider.example/authorize?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(ctx context.Context, code, redirectURL string) (*oauth2.Profile, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.profile, nil
}

func setupTestRouter(t *testing.T, provider oauth2.Provider) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, _ := setupService(t)

	providers := oauth2.NewRegistry()
	if provider != nil {
		providers.Register(provider)
	}

	controller := NewController(svc, providers, "", config.Auth{SessionLifetime: time.Hour}, config.OAuth{
		RedirectBaseURL: "http://localhost:3000",
	})

	router := gin.New()
	controller.RegisterRoutes(router)

	protected := router.Group("/", controller.RequireAuth())
	protected.GET("/secrets", func(c *gin.Context) {
		c.String(http.StatusOK, "secrets for %s", GetUsername(c))
	})

	return router, svc
}

func postForm(router *gin.Engine, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func cookieByName(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name && c.Value != "" {
			return c
		}
	}
	return nil
}

func TestIntegration_RegisterLoginLogoutFlow(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	// Register creates the account and logs it straight in
	w := postForm(router, "/register", url.Values{
		"username": {"alice"},
		"password": {"pw123"},
	}, nil)

	if w.Code != http.StatusFound {
		t.Fatalf("register status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/secrets" {
		t.Errorf("register redirect = %q, want /secrets", loc)
	}
	session := cookieByName(w, SessionCookieName)
	if session == nil {
		t.Fatal("register did not set a session cookie")
	}
	if !session.HttpOnly {
		t.Error("session cookie is not HttpOnly")
	}

	// The session cookie unlocks the protected page
	w = get(router, "/secrets", []*http.Cookie{session})
	if w.Code != http.StatusOK {
		t.Fatalf("authenticated /secrets status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "alice") {
		t.Errorf("protected page body = %q, want username in it", w.Body.String())
	}

	// Logout clears the cookie and kills the session server-side
	w = postForm(router, "/logout", nil, []*http.Cookie{session})
	if w.Code != http.StatusFound {
		t.Fatalf("logout status = %d, want 302", w.Code)
	}

	w = get(router, "/secrets", []*http.Cookie{session})
	if strings.Contains(w.Body.String(), "secrets for") {
		t.Error("session survived logout")
	}
	if !strings.Contains(w.Body.String(), FlashNotAuthenticated) {
		t.Errorf("guard response = %q, want the not-authenticated flash", w.Body.String())
	}
}

func TestIntegration_LoginAfterRegister(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	postForm(router, "/register", url.Values{"username": {"alice"}, "password": {"pw123"}}, nil)

	w := postForm(router, "/login", url.Values{"username": {"alice"}, "password": {"pw123"}}, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("login status = %d, want 302", w.Code)
	}
	if cookieByName(w, SessionCookieName) == nil {
		t.Error("login did not set a session cookie")
	}
}

func TestIntegration_FailedLoginShowsFlash(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	w := postForm(router, "/login", url.Values{"username": {"ghost"}, "password": {"pw123"}}, nil)

	// The login view is re-rendered in place with the flash drained into it
	if w.Code != http.StatusOK {
		t.Fatalf("failed login status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), FlashIncorrectUsername) {
		t.Errorf("failed login body = %q, want %q in it", w.Body.String(), FlashIncorrectUsername)
	}
	if cookieByName(w, SessionCookieName) != nil {
		t.Error("failed login set a session cookie")
	}
}

func TestIntegration_FlashConsumedOnDisplay(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	w := postForm(router, "/login", url.Values{"username": {"ghost"}, "password": {"pw123"}}, nil)
	flashCookie := cookieByName(w, FlashCookieName)
	if flashCookie == nil {
		t.Fatal("failed login did not establish a flash session")
	}

	// The failure response already displayed the flash; revisiting the
	// login page must not repeat it
	w = get(router, "/login", []*http.Cookie{flashCookie})
	if strings.Contains(w.Body.String(), FlashIncorrectUsername) {
		t.Error("flash message shown twice")
	}
}

func TestIntegration_DuplicateRegister(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	postForm(router, "/register", url.Values{"username": {"alice"}, "password": {"pw123"}}, nil)

	w := postForm(router, "/register", url.Values{"username": {"alice"}, "password": {"other"}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("duplicate register status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), FlashUsernameTaken) {
		t.Errorf("duplicate register body = %q, want %q in it", w.Body.String(), FlashUsernameTaken)
	}
}

func TestIntegration_LoginPageRedirectsAuthenticated(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	w := postForm(router, "/register", url.Values{"username": {"alice"}, "password": {"pw123"}}, nil)
	session := cookieByName(w, SessionCookieName)

	w = get(router, "/login", []*http.Cookie{session})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/secrets" {
		t.Errorf("authenticated /login: status %d location %q, want 302 /secrets", w.Code, w.Header().Get("Location"))
	}
}

func TestIntegration_OAuthFlow(t *testing.T) {
	provider := &fakeProvider{profile: &oauth2.Profile{
		Provider: "fake",
		Subject:  "113",
		Email:    "alice@example.com",
	}}
	router, _ := setupTestRouter(t, provider)

	// Begin: redirect to the provider with the state cookie set
	w := get(router, "/auth/fake", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("oauth begin status = %d, want 302", w.Code)
	}
	state := cookieByName(w, OAuthStateCookieName)
	if state == nil {
		t.Fatal("oauth begin did not set a state cookie")
	}
	if !strings.Contains(w.Header().Get("Location"), "provider.example") {
		t.Errorf("oauth begin redirect = %q, want provider URL", w.Header().Get("Location"))
	}

	// Callback with the matching state completes the login
	callback := fmt.Sprintf("/auth/fake/callback?code=authcode&state=%s", url.QueryEscape(state.Value))
	w = get(router, callback, []*http.Cookie{state})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/secrets" {
		t.Fatalf("oauth callback: status %d location %q, want 302 /secrets", w.Code, w.Header().Get("Location"))
	}
	session := cookieByName(w, SessionCookieName)
	if session == nil {
		t.Fatal("oauth callback did not set a session cookie")
	}

	w = get(router, "/secrets", []*http.Cookie{session})
	if !strings.Contains(w.Body.String(), "alice@example.com") {
		t.Errorf("protected page body = %q, want oauth username in it", w.Body.String())
	}
}

func TestIntegration_OAuthStateMismatch(t *testing.T) {
	provider := &fakeProvider{profile: &oauth2.Profile{Provider: "fake", Subject: "113"}}
	router, _ := setupTestRouter(t, provider)

	w := get(router, "/auth/fake", nil)
	state := cookieByName(w, OAuthStateCookieName)

	w = get(router, "/auth/fake/callback?code=authcode&state=forged", []*http.Cookie{state})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("forged state: status %d location %q, want 302 /login", w.Code, w.Header().Get("Location"))
	}
	if cookieByName(w, SessionCookieName) != nil {
		t.Error("forged state produced a session")
	}
}

func TestIntegration_OAuthProviderError(t *testing.T) {
	provider := &fakeProvider{err: oauth2.ErrProviderTimeout}
	router, _ := setupTestRouter(t, provider)

	w := get(router, "/auth/fake", nil)
	state := cookieByName(w, OAuthStateCookieName)

	callback := fmt.Sprintf("/auth/fake/callback?code=authcode&state=%s", url.QueryEscape(state.Value))
	w = get(router, callback, []*http.Cookie{state})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("provider failure: status %d location %q, want 302 /login", w.Code, w.Header().Get("Location"))
	}
}

func TestIntegration_UnknownProvider(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	w := get(router, "/auth/myspace", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown provider status = %d, want 404", w.Code)
	}
}
