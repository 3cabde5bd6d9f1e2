package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"platewatch/internal/config"
	"platewatch/internal/security"
)

// BasicAuth guards every route behind the shared credential from config.
// When no credential is configured the middleware is a pass-through, so local
// development needs no auth setup.
func BasicAuth(cfg config.AuthConfig) gin.HandlerFunc {
	if !cfg.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok ||
			!security.VerifyUsername(cfg.Username, username) ||
			!security.VerifyPassword(cfg.Password, password) {
			c.Header("WWW-Authenticate", `Basic realm="platewatch"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
