package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ndhu-booking/room-booking-server/middleware"
	"github.com/ndhu-booking/room-booking-server/models"
	"github.com/ndhu-booking/room-booking-server/services"
)

type ApplicationController struct {
	booking *services.BookingService
	review  *services.ReviewService
}

func NewApplicationController(booking *services.BookingService, review *services.ReviewService) *ApplicationController {
	return &ApplicationController{booking: booking, review: review}
}

// POST /api/applications
func (h *ApplicationController) Submit(c *gin.Context) {
	var req struct {
		Name          string                   `json:"name"`
		Email         string                   `json:"email"`
		Organization  string                   `json:"organization"`
		Phone         string                   `json:"phone"`
		Purpose       string                   `json:"purpose"`
		MultipleSlots []services.SlotSelection `json:"multipleSlots"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	res, err := h.booking.Submit(c.Request.Context(), services.SubmitInput{
		Name:         req.Name,
		Email:        req.Email,
		Organization: req.Organization,
		Phone:        req.Phone,
		Purpose:      req.Purpose,
		Slots:        req.MultipleSlots,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"message":       "application submitted",
		"applicationId": res.ApplicationID,
		"verifyToken":   res.VerifyToken,
	})
}

// POST /api/applications/verify
func (h *ApplicationController) Verify(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	app, err := h.booking.Verify(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "email verified",
		"applicationId": app.ID,
		"verifiedAt":    app.VerifiedAt,
	})
}

// GET /api/applications?status=
func (h *ApplicationController) List(c *gin.Context) {
	apps, err := h.review.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "applications": withSlotLists(apps)})
}

// GET /api/applications/:id
func (h *ApplicationController) Get(c *gin.Context) {
	app, err := h.review.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if app.Slots == nil {
		app.Slots = []models.Slot{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "application": app})
}

// POST /api/admin/review
func (h *ApplicationController) Review(c *gin.Context) {
	var req struct {
		ApplicationID string                `json:"applicationId"`
		Slots         []models.SlotDecision `json:"slots"`
		Note          string                `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	admin, _ := middleware.CurrentAdmin(c)

	app, err := h.review.Review(c.Request.Context(), services.ReviewInput{
		ApplicationID: req.ApplicationID,
		Slots:         req.Slots,
		Note:          req.Note,
		Reviewer:      admin.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "review saved",
		"status":  app.Status,
	})
}

func withSlotLists(apps []models.Application) []models.Application {
	for i := range apps {
		if apps[i].Slots == nil {
			apps[i].Slots = []models.Slot{}
		}
	}
	return apps
}
