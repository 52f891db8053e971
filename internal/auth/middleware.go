package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUser     = "auth_user"
	ContextKeyUsername = "auth_username"
)

// RequireAuth guards protected routes. Unauthenticated requests get the
// standard flash queued and are shown the login view in place, matching the
// behavior of hitting /secrets without a session.
func (ac *Controller) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := ac.service.RequireAuthenticated(ac.sessionToken(c), ac.flashID(c))
		if err != nil {
			if errors.Is(err, ErrNotAuthenticated) {
				ac.renderTemplate(c, "login.html", gin.H{
					"Title":   "Login",
					"Flashes": ac.DrainFlashes(c),
				})
				c.Abort()
				return
			}
			c.String(http.StatusInternalServerError, "Something went wrong. Please try again later.")
			c.Abort()
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyUsername, user.Username)
		c.Next()
	}
}

// GetUser retrieves the authenticated user from the Gin context. Only valid
// downstream of RequireAuth.
func GetUser(c *gin.Context) *entities.User {
	if v, exists := c.Get(ContextKeyUser); exists {
		if user, ok := v.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// GetUsername retrieves the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}
