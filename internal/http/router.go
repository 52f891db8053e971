package http

import (
	"html/template"
	"log"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/database"
)

// RouterConfig receives all router dependencies, improving testability and
// reducing parameter count.
type RouterConfig struct {
	AuthController *auth.Controller
	Secrets        SecretStore
	DB             *database.Database
	TemplatesPath  string
	StaticPath     string
	Version        string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Public pages
	home := newHomeController(cfg.AuthController, cfg.TemplatesPath)
	router.GET("/", home.HomePage)

	cfg.AuthController.RegisterRoutes(router)

	health := NewHealthController(cfg.DB, cfg.Version)
	router.GET("/health", health.Status)

	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	// Protected pages
	secrets := NewSecretsController(cfg.Secrets, cfg.TemplatesPath)
	protected := router.Group("/", cfg.AuthController.RequireAuth())
	protected.GET("/secrets", secrets.ListPage)
	protected.GET("/submit", secrets.SubmitPage)
	protected.POST("/submit", secrets.Submit)

	return router
}

// homeController renders the landing page with any pending flash messages,
// mirroring how the login page consumes its queue.
type homeController struct {
	authController *auth.Controller
	templates      *template.Template
}

func newHomeController(ac *auth.Controller, templatesPath string) *homeController {
	pattern := filepath.Join(templatesPath, "*.html")
	tmpl, err := template.ParseGlob(pattern)
	if err != nil {
		tmpl = nil
	}
	return &homeController{authController: ac, templates: tmpl}
}

func (h *homeController) HomePage(c *gin.Context) {
	data := gin.H{
		"Title":   "Home",
		"Flashes": h.authController.DrainFlashes(c),
	}

	if h.templates == nil || h.templates.Lookup("home.html") == nil {
		c.JSON(http.StatusOK, data)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(c.Writer, "home.html", data); err != nil {
		log.Printf("failed to render home page: %v", err)
	}
}
