package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SecretHeader is the header carrying the processor trigger credential.
const SecretHeader = "X-Outbox-Secret"

// SharedSecret guards a route group with a static shared-secret header.
// Requests are rejected outright rather than silently processing nothing. An
// empty configured secret disables the routes entirely: nothing can match.
func SharedSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(SecretHeader)

		if secret == "" || provided == "" ||
			subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "unauthorized",
				"code":    "UNAUTHORIZED",
			})
			return
		}

		c.Next()
	}
}
