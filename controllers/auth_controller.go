package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ndhu-booking/room-booking-server/middleware"
	"github.com/ndhu-booking/room-booking-server/services"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// POST /api/auth/login: gửi magic link qua email.
func (h *AuthController) Login(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	if err := h.auth.RequestLogin(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "login link sent, please check your inbox"})
}

// POST /api/auth/verify: đổi magic link + CAPTCHA lấy session token.
func (h *AuthController) Verify(c *gin.Context) {
	var req struct {
		Token          string `json:"token" binding:"required"`
		TurnstileToken string `json:"turnstileToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	sess, err := h.auth.VerifyLogin(c.Request.Context(), req.Token, req.TurnstileToken, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   sess.Token,
		"admin":   sess.Admin,
	})
}

func (h *AuthController) Profile(c *gin.Context) {
	admin, claims := middleware.CurrentAdmin(c)
	token := gin.H{"jti": claims.ID}
	if claims.IssuedAt != nil {
		token["issuedAt"] = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		token["expiresAt"] = claims.ExpiresAt.Time
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "admin": admin, "token": token})
}

func (h *AuthController) Logout(c *gin.Context) {
	_, claims := middleware.CurrentAdmin(c)
	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out"})
}
