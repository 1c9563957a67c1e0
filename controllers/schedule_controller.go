package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ndhu-booking/room-booking-server/services"
)

type ScheduleController struct {
	svc *services.ScheduleService
}

func NewScheduleController(svc *services.ScheduleService) *ScheduleController {
	return &ScheduleController{svc: svc}
}

// GET /api/schedule?date=YYYY-MM-DD&room=ID
func (h *ScheduleController) Week(c *gin.Context) {
	week, err := h.svc.Week(c.Request.Context(), c.Query("room"), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, week)
}
