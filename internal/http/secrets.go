package http

import (
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/entities"
)

// SecretStore is what the secrets pages need from persistence.
type SecretStore interface {
	Create(userID uint, text string) (*entities.Secret, error)
	List() ([]entities.Secret, error)
}

// SecretsController serves the protected secrets pages.
type SecretsController struct {
	secrets   SecretStore
	templates *template.Template
}

// NewSecretsController creates the controller, parsing templates from the
// configured path. Missing templates degrade to JSON responses.
func NewSecretsController(secrets SecretStore, templatesPath string) *SecretsController {
	pattern := filepath.Join(templatesPath, "*.html")
	tmpl, err := template.ParseGlob(pattern)
	if err != nil {
		tmpl = nil
	}
	return &SecretsController{
		secrets:   secrets,
		templates: tmpl,
	}
}

// ListPage renders all secrets, newest first. Reached only through
// RequireAuth.
func (sc *SecretsController) ListPage(c *gin.Context) {
	secrets, err := sc.secrets.List()
	if err != nil {
		log.Printf("failed to list secrets: %v", err)
		c.String(http.StatusInternalServerError, "Something went wrong. Please try again later.")
		return
	}

	sc.renderTemplate(c, "secrets.html", gin.H{
		"Title":    "Secrets",
		"Username": auth.GetUsername(c),
		"Secrets":  secrets,
	})
}

// SubmitPage renders the submission form.
func (sc *SecretsController) SubmitPage(c *gin.Context) {
	sc.renderTemplate(c, "submit.html", gin.H{
		"Title":    "Submit a Secret",
		"Username": auth.GetUsername(c),
	})
}

// Submit stores the posted secret against the authenticated user and sends
// the browser back to the list.
func (sc *SecretsController) Submit(c *gin.Context) {
	text := strings.TrimSpace(c.PostForm("secret"))
	if text == "" {
		c.Redirect(http.StatusFound, "/submit")
		return
	}

	user := auth.GetUser(c)
	if user == nil {
		// RequireAuth guarantees a user; reaching here is a wiring bug.
		c.String(http.StatusInternalServerError, "Something went wrong. Please try again later.")
		return
	}

	if _, err := sc.secrets.Create(user.ID, text); err != nil {
		log.Printf("failed to store secret: %v", err)
		c.String(http.StatusInternalServerError, "Something went wrong. Please try again later.")
		return
	}

	c.Redirect(http.StatusFound, "/secrets")
}

func (sc *SecretsController) renderTemplate(c *gin.Context, name string, data gin.H) {
	if sc.templates == nil || sc.templates.Lookup(name) == nil {
		c.JSON(http.StatusOK, data)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := sc.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		c.String(http.StatusInternalServerError, "Template error: %v", err)
	}
}
