package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/alvishnu/school-desk/pkg/errors"
	"github.com/alvishnu/school-desk/pkg/response"
)

// SessionCookie is the cookie carrying the sandbox session token.
const SessionCookie = "session_token"

type authService interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// AuthHandler exposes sandbox login and logout.
type AuthHandler struct {
	auth      authService
	cookieTTL int
}

// NewAuthHandler constructs AuthHandler. cookieTTL is in seconds.
func NewAuthHandler(auth authService, cookieTTL int) *AuthHandler {
	if cookieTTL <= 0 {
		cookieTTL = 3600
	}
	return &AuthHandler{auth: auth, cookieTTL: cookieTTL}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login godoc
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credentials"
// @Success 200 {object} models.StatusEnvelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, h.cookieTTL, "/", "", false, true)
	response.Message(c, http.StatusOK, "Logged in")
}

// Logout godoc
// @Summary Log out
// @Tags Auth
// @Produce json
// @Success 200 {object} models.StatusEnvelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	response.Message(c, http.StatusOK, "Logged out")
}
