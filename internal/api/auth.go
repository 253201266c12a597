package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/profiles/backend/internal/models"
	"github.com/pageza/profiles/backend/internal/service"
	"github.com/pageza/profiles/backend/internal/types"
)

// AuthHandler serves registration and sessions. Tokens are stateless, so
// logout only acknowledges; the client discards its token.
type AuthHandler struct {
	authService  service.IAuthService
	loginLimiter gin.HandlerFunc
}

// NewAuthHandler creates an AuthHandler. loginLimiter may be nil.
func NewAuthHandler(authService service.IAuthService, loginLimiter gin.HandlerFunc) *AuthHandler {
	return &AuthHandler{authService: authService, loginLimiter: loginLimiter}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	router.POST("/users", h.Register)

	login := []gin.HandlerFunc{h.Login}
	if h.loginLimiter != nil {
		login = append([]gin.HandlerFunc{h.loginLimiter}, login...)
	}
	router.POST("/sessions", login...)
	router.DELETE("/sessions", auth, h.Logout)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.issueToken(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.issueToken(c, http.StatusOK, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) issueToken(c *gin.Context, status int, user *models.User) {
	token, expiresAt, err := h.authService.GenerateToken(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, types.SessionResponse{Token: token, ExpiresAt: expiresAt, UserID: user.ID})
}
