package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ndhu-booking/room-booking-server/apperror"
	"github.com/ndhu-booking/room-booking-server/models"
	"github.com/ndhu-booking/room-booking-server/utils"
)

type stubAuth struct{}

func (stubAuth) Authenticate(ctx context.Context, token string) (*models.Admin, *utils.AdminClaims, error) {
	switch token {
	case "good":
		return &models.Admin{Email: "boss@gms.ndhu.edu.tw", Name: "Boss", IsActive: true}, &utils.AdminClaims{Email: "boss@gms.ndhu.edu.tw"}, nil
	case "student":
		return nil, nil, apperror.Forbidden("not an active admin")
	case "boom":
		return nil, nil, errors.New("db down")
	}
	return nil, nil, apperror.Unauthorized("invalid or expired token")
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secret", AuthAdmin(stubAuth{}), func(c *gin.Context) {
		admin, _ := CurrentAdmin(c)
		c.JSON(http.StatusOK, gin.H{"email": admin.Email})
	})
	return r
}

func TestAuthAdmin(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"not admin", "Bearer student", http.StatusForbidden},
		{"store error", "Bearer boom", http.StatusInternalServerError},
		{"ok", "bearer good", http.StatusOK},
	}
	r := newAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/secret", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRateLimitByIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewIPRateLimiter(1, 2, time.Minute)
	defer rl.Stop()

	r := gin.New()
	r.POST("/x", RateLimitByIP(rl), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}

	// IP khác có limiter riêng.
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("other ip status = %d", w.Code)
	}
}
