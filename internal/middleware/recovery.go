package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Recovery logs the panic and renders the generic failure page. JSON routes
// under /api get a JSON body instead.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("error", r).
					Str("path", c.Request.URL.Path).
					Str("request_id", c.Writer.Header().Get(requestIDHeader)).
					Msg("panic recovered")

				if len(c.Request.URL.Path) >= 4 && c.Request.URL.Path[:4] == "/api" {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
					return
				}
				c.Abort()
				c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Status": http.StatusInternalServerError})
			}
		}()
		c.Next()
	}
}
