package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/entities"
	"github.com/mrlokans/secrets/internal/oauth2"
)

// Cookie names. The session cookie carries the opaque session token; the
// flash cookie identifies the queue for pre-login messages; the state
// cookie round-trips the OAuth CSRF state.
const (
	SessionCookieName    = "session"
	FlashCookieName      = "flash_session"
	OAuthStateCookieName = "oauth_state"
)

// contextKeyFlashID caches the flash session id for the current request.
const contextKeyFlashID = "auth_flash_id"

// Controller handles authentication-related HTTP endpoints.
type Controller struct {
	service   *Service
	providers *oauth2.Registry
	templates *template.Template
	authCfg   config.Auth
	oauthCfg  config.OAuth
}

// NewController creates a new authentication controller.
func NewController(service *Service, providers *oauth2.Registry, templatesPath string, authCfg config.Auth, oauthCfg config.OAuth) *Controller {
	// Parse auth templates
	pattern := filepath.Join(templatesPath, "*.html")
	tmpl, err := template.ParseGlob(pattern)
	if err != nil {
		// Templates might not exist yet, fall back to JSON responses
		tmpl = nil
	}

	return &Controller{
		service:   service,
		providers: providers,
		templates: tmpl,
		authCfg:   authCfg,
		oauthCfg:  oauthCfg,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *Controller) RegisterRoutes(router *gin.Engine) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.GET("/register", ac.RegisterPage)
	router.POST("/register", ac.Register)
	router.POST("/logout", ac.Logout)
	router.GET("/logout", ac.Logout) // Support GET for simple logout links
	router.GET("/auth/:provider", ac.OAuthBegin)
	router.GET("/auth/:provider/callback", ac.OAuthCallback)
}

// LoginPage renders the login form with any pending flash messages.
func (ac *Controller) LoginPage(c *gin.Context) {
	if _, err := ac.service.CurrentUser(ac.sessionToken(c)); err == nil {
		c.Redirect(http.StatusFound, "/secrets")
		return
	}
	ac.renderTemplate(c, "login.html", gin.H{
		"Title":   "Login",
		"Flashes": ac.DrainFlashes(c),
	})
}

// Login handles the login form submission.
func (ac *Controller) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	token, err := ac.service.Login(c.Request.Context(), ac.flashID(c), username, password)
	if err != nil {
		if isAuthFailure(err) {
			ac.renderTemplate(c, "login.html", gin.H{
				"Title":    "Login",
				"Username": username,
				"Flashes":  ac.DrainFlashes(c),
			})
			return
		}
		ac.serverError(c, err)
		return
	}

	ac.setSessionCookie(c, token)
	c.Redirect(http.StatusFound, "/secrets")
}

// RegisterPage renders the registration form.
func (ac *Controller) RegisterPage(c *gin.Context) {
	ac.renderTemplate(c, "register.html", gin.H{
		"Title":   "Register",
		"Flashes": ac.DrainFlashes(c),
	})
}

// Register handles the registration form submission; success logs the new
// account straight in.
func (ac *Controller) Register(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	token, err := ac.service.Register(c.Request.Context(), ac.flashID(c), username, password)
	if err != nil {
		if isAuthFailure(err) {
			ac.renderTemplate(c, "register.html", gin.H{
				"Title":    "Register",
				"Username": username,
				"Flashes":  ac.DrainFlashes(c),
			})
			return
		}
		ac.serverError(c, err)
		return
	}

	ac.setSessionCookie(c, token)
	c.Redirect(http.StatusFound, "/secrets")
}

// Logout destroys the session and redirects home.
func (ac *Controller) Logout(c *gin.Context) {
	if err := ac.service.Logout(ac.sessionToken(c)); err != nil {
		log.Printf("logout failed: %v", err)
	}
	ac.clearSessionCookie(c)
	c.Redirect(http.StatusFound, "/")
}

// OAuthBegin redirects the browser to the provider's authorization URL.
func (ac *Controller) OAuthBegin(c *gin.Context) {
	provider, err := ac.providers.Get(c.Param("provider"))
	if err != nil {
		c.String(http.StatusNotFound, "Unknown provider")
		return
	}

	state, err := oauth2.GenerateState()
	if err != nil {
		ac.serverError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(OAuthStateCookieName, state, int((10 * time.Minute).Seconds()), "/", "", ac.authCfg.SecureCookies, true)
	c.Redirect(http.StatusFound, provider.BuildAuthURL(ac.redirectURL(provider.Name()), state))
}

// OAuthCallback completes the provider flow: state check, code exchange,
// then session creation through the orchestrator.
func (ac *Controller) OAuthCallback(c *gin.Context) {
	provider, err := ac.providers.Get(c.Param("provider"))
	if err != nil {
		c.String(http.StatusNotFound, "Unknown provider")
		return
	}

	flashID := ac.flashID(c)

	expectedState, _ := c.Cookie(OAuthStateCookieName)
	c.SetCookie(OAuthStateCookieName, "", -1, "/", "", ac.authCfg.SecureCookies, true)
	if expectedState == "" || c.Query("state") != expectedState {
		ac.failLogin(c, flashID)
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		log.Printf("oauth callback error from %s: %s", provider.Name(), errParam)
		ac.failLogin(c, flashID)
		return
	}

	code := c.Query("code")
	if code == "" {
		ac.failLogin(c, flashID)
		return
	}

	profile, err := provider.Exchange(c.Request.Context(), code, ac.redirectURL(provider.Name()))
	if err != nil {
		log.Printf("oauth exchange with %s failed: %v", provider.Name(), err)
		ac.failLogin(c, flashID)
		return
	}

	token, err := ac.service.OAuthCallback(c.Request.Context(), flashID, profile)
	if err != nil {
		if isAuthFailure(err) {
			c.Redirect(http.StatusFound, "/login")
			return
		}
		ac.serverError(c, err)
		return
	}

	ac.setSessionCookie(c, token)
	c.Redirect(http.StatusFound, "/secrets")
}

// failLogin queues the generic sign-in flash and sends the browser back to
// the login page.
func (ac *Controller) failLogin(c *gin.Context, flashID string) {
	ac.service.pushFlash(flashID, entities.FlashCategoryError, FlashSignInFailed)
	c.Redirect(http.StatusFound, "/login")
}

// sessionToken returns the session cookie value, or "" when absent.
func (ac *Controller) sessionToken(c *gin.Context) string {
	token, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return token
}

func (ac *Controller) setSessionCookie(c *gin.Context, token string) {
	// Lax, not Strict: the OAuth provider redirect must carry the cookie.
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(ac.authCfg.SessionLifetime.Seconds()), "/", "", ac.authCfg.SecureCookies, true)
}

func (ac *Controller) clearSessionCookie(c *gin.Context) {
	c.SetCookie(SessionCookieName, "", -1, "/", "", ac.authCfg.SecureCookies, true)
}

// flashID returns the caller's flash session identifier, minting the cookie
// on first use so failures before login still have a queue to land in. The
// minted id is cached on the request context; the new cookie only exists in
// the response, so a second read would otherwise mint a different queue.
func (ac *Controller) flashID(c *gin.Context) string {
	if id, ok := c.Get(contextKeyFlashID); ok {
		return id.(string)
	}
	if id, err := c.Cookie(FlashCookieName); err == nil && id != "" {
		c.Set(contextKeyFlashID, id)
		return id
	}

	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		log.Printf("failed to generate flash session id: %v", err)
		return ""
	}
	id := hex.EncodeToString(bytes)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(FlashCookieName, id, int((24 * time.Hour).Seconds()), "/", "", ac.authCfg.SecureCookies, true)
	c.Set(contextKeyFlashID, id)
	return id
}

// DrainFlashes empties the caller's flash queue for rendering.
func (ac *Controller) DrainFlashes(c *gin.Context) []entities.FlashMessage {
	flashes, err := ac.service.Flashes(ac.flashID(c))
	if err != nil {
		log.Printf("failed to drain flash messages: %v", err)
		return nil
	}
	return flashes
}

func (ac *Controller) redirectURL(providerName string) string {
	return ac.oauthCfg.RedirectBaseURL + "/auth/" + providerName + "/callback"
}

// serverError hides infrastructure failures behind a generic response.
func (ac *Controller) serverError(c *gin.Context, err error) {
	log.Printf("internal error handling %s: %v", c.Request.URL.Path, err)
	c.String(http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

// renderTemplate renders an auth template or falls back to JSON.
func (ac *Controller) renderTemplate(c *gin.Context, name string, data gin.H) {
	if ac.templates == nil || ac.templates.Lookup(name) == nil {
		c.JSON(http.StatusOK, data)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := ac.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		c.String(http.StatusInternalServerError, "Template error: %v", err)
	}
}

// isAuthFailure reports whether the error is an authentication-domain
// failure already translated into a flash message.
func isAuthFailure(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrInvalidPassword) ||
		errors.Is(err, ErrUserExists) ||
		errors.Is(err, ErrUsernameRequired) ||
		errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, ErrPasswordTooLong) ||
		errors.Is(err, ErrProviderFailure) ||
		errors.Is(err, oauth2.ErrProviderTimeout) ||
		errors.Is(err, ErrNotAuthenticated)
}
