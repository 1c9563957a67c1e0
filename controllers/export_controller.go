package controllers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/ndhu-booking/room-booking-server/middleware"
	"github.com/ndhu-booking/room-booking-server/models"
	"github.com/ndhu-booking/room-booking-server/services"
)

type ExportController struct {
	svc *services.ExportService
}

func NewExportController(svc *services.ExportService) *ExportController {
	return &ExportController{svc: svc}
}

// POST /api/admin/exports: tạo job, chạy nền.
func (h *ExportController) Create(c *gin.Context) {
	var req struct {
		Format string `json:"format"`
		From   string `json:"from"`
		To     string `json:"to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	admin, _ := middleware.CurrentAdmin(c)

	job, err := h.svc.Start(c.Request.Context(), req.Format, req.From, req.To, admin.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"jobId":   job.JobID,
		"status":  job.Status,
	})
}

// GET /api/admin/exports/:jobId: trả file khi job xong, nếu chưa thì trả trạng thái.
func (h *ExportController) Get(c *gin.Context) {
	job, err := h.svc.Get(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		respondError(c, err)
		return
	}

	if job.Status == models.ExportDone && job.FilePath != nil && c.Query("download") != "url" {
		c.FileAttachment(*job.FilePath, filepath.Base(*job.FilePath))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"jobId":   job.JobID,
		"status":  job.Status,
		"url":     job.FileURL,
		"error":   job.ErrorMsg,
	})
}
