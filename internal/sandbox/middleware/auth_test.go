package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvishnu/school-desk/internal/sandbox/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct {
	err error
}

func (s *stubVerifier) Verify(token string) error { return s.err }

func protectedRouter(verifier *stubVerifier) *gin.Engine {
	r := gin.New()
	r.Use(RequireSession(verifier))
	r.GET("/students", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return r
}

func TestRequireSessionMissingCookie(t *testing.T) {
	r := protectedRouter(&stubVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/students", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication required")
}

func TestRequireSessionInvalidToken(t *testing.T) {
	r := protectedRouter(&stubVerifier{err: errors.New("bad signature")})

	req := httptest.NewRequest(http.MethodGet, "/students", nil)
	req.AddCookie(&http.Cookie{Name: handler.SessionCookie, Value: "tampered"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid or expired session")
}

func TestRequireSessionValidToken(t *testing.T) {
	r := protectedRouter(&stubVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/students", nil)
	req.AddCookie(&http.Cookie{Name: handler.SessionCookie, Value: "good"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}
