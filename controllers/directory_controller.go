package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ndhu-booking/room-booking-server/models"
	"github.com/ndhu-booking/room-booking-server/services"
)

type DirectoryController struct {
	svc *services.DirectoryService
}

func NewDirectoryController(svc *services.DirectoryService) *DirectoryController {
	return &DirectoryController{svc: svc}
}

type roomOption struct {
	RoomID      string `json:"roomId"`
	RoomName    string `json:"roomName"`
	DisplayName string `json:"displayName"`
	Location    string `json:"location"`
	Capacity    int    `json:"capacity"`
}

// GET /api/rooms: phòng đang hoạt động cho dropdown đặt phòng.
func (h *DirectoryController) PublicRooms(c *gin.Context) {
	rooms, err := h.svc.ActiveRooms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]roomOption, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, roomOption{
			RoomID:      r.RoomID,
			RoomName:    r.RoomName,
			DisplayName: r.DisplayName(),
			Location:    r.Location,
			Capacity:    r.Capacity,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *DirectoryController) AdminRooms(c *gin.Context) {
	rooms, err := h.svc.AllRooms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rooms": nonNilRooms(rooms)})
}

func (h *DirectoryController) ReplaceRooms(c *gin.Context) {
	var req struct {
		Rooms []services.RoomInput `json:"rooms"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	rooms, err := h.svc.ReplaceRooms(c.Request.Context(), req.Rooms)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "rooms updated", "rooms": nonNilRooms(rooms)})
}

func (h *DirectoryController) Admins(c *gin.Context) {
	admins, err := h.svc.Admins(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "admins": nonNilAdmins(admins)})
}

func (h *DirectoryController) ReplaceAdmins(c *gin.Context) {
	var req struct {
		Admins []services.AdminInput `json:"admins"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	admins, err := h.svc.ReplaceAdmins(c.Request.Context(), req.Admins)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "admins updated", "admins": nonNilAdmins(admins)})
}

func nonNilRooms(r []models.Room) []models.Room {
	if r == nil {
		return []models.Room{}
	}
	return r
}

func nonNilAdmins(a []models.Admin) []models.Admin {
	if a == nil {
		return []models.Admin{}
	}
	return a
}
