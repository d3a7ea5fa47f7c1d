package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alvishnu/school-desk/internal/sandbox/handler"
	"github.com/alvishnu/school-desk/pkg/response"
)

type sessionVerifier interface {
	Verify(token string) error
}

// RequireSession rejects requests without a valid session cookie. Login and
// logout are expected to be mounted outside this middleware.
func RequireSession(auth sessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(handler.SessionCookie)
		if err != nil || token == "" {
			response.Reject(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		if err := auth.Verify(token); err != nil {
			response.Reject(c, http.StatusUnauthorized, "invalid or expired session")
			c.Abort()
			return
		}
		c.Next()
	}
}
