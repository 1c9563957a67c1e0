package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ndhu-booking/room-booking-server/apperror"
)

// respondError trả lỗi nghiệp vụ đúng status; lỗi còn lại là 500 và chỉ ghi chi tiết vào log.
func respondError(c *gin.Context, err error) {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		c.JSON(ae.Status, gin.H{"success": false, "error": ae.Message})
		return
	}
	slog.ErrorContext(c.Request.Context(), "request failed",
		slog.String("method", c.Request.Method),
		slog.String("path", c.FullPath()),
		slog.Any("error", err),
	)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
}

func badBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body", "detail": err.Error()})
}
