package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ndhu-booking/room-booking-server/apperror"
	"github.com/ndhu-booking/room-booking-server/models"
	"github.com/ndhu-booking/room-booking-server/utils"
)

const (
	CtxAdmin  = "admin"
	CtxClaims = "claims"
)

// Authenticator xác thực session token của admin (services.AuthService).
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Admin, *utils.AdminClaims, error)
}

// AuthAdmin kiểm tra Authorization: Bearer <token>, xác thực session và inject admin vào context.
func AuthAdmin(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing or invalid Authorization header"})
			return
		}
		rawToken := strings.TrimSpace(authHeader[7:])
		if rawToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing or invalid Authorization header"})
			return
		}

		admin, claims, err := auth.Authenticate(c.Request.Context(), rawToken)
		if err != nil {
			var ae *apperror.Error
			if errors.As(err, &ae) {
				c.AbortWithStatusJSON(ae.Status, gin.H{"success": false, "error": ae.Message})
				return
			}
			slog.ErrorContext(c.Request.Context(), "authenticate admin failed", slog.Any("error", err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
			return
		}

		c.Set(CtxAdmin, admin)
		c.Set(CtxClaims, claims)
		c.Next()
	}
}

// CurrentAdmin lấy admin đã được AuthAdmin gắn vào context.
func CurrentAdmin(c *gin.Context) (*models.Admin, *utils.AdminClaims) {
	admin, _ := c.MustGet(CtxAdmin).(*models.Admin)
	claims, _ := c.MustGet(CtxClaims).(*utils.AdminClaims)
	return admin, claims
}
