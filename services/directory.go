package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ndhu-booking/room-booking-server/apperror"
	"github.com/ndhu-booking/room-booking-server/models"
	"github.com/ndhu-booking/room-booking-server/utils"
)

type DirectoryStore interface {
	ListRooms(ctx context.Context, activeOnly bool) ([]models.Room, error)
	RoomsInUse(ctx context.Context, ids []string) ([]string, error)
	ReplaceRooms(ctx context.Context, rooms []models.Room, remove []string) error
	ListAdmins(ctx context.Context) ([]models.Admin, error)
	ReplaceAdmins(ctx context.Context, admins []models.Admin, remove []string) error
}

type RoomInput struct {
	RoomID   string `json:"roomId"`
	RoomName string `json:"roomName"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
	Order    int    `json:"order"`
	IsActive *bool  `json:"isActive"`
}

type AdminInput struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	IsActive     *bool  `json:"isActive"`
	NotifyReview bool   `json:"notifyReview"`
}

// DirectoryService quản lý danh mục phòng và admin theo kiểu "gửi cả danh sách, thay thế toàn bộ".
type DirectoryService struct {
	store       DirectoryStore
	emailDomain string
	logger      *slog.Logger
}

func NewDirectoryService(store DirectoryStore, emailDomain string, logger *slog.Logger) *DirectoryService {
	return &DirectoryService{store: store, emailDomain: emailDomain, logger: logger}
}

func (s *DirectoryService) ActiveRooms(ctx context.Context) ([]models.Room, error) {
	return s.store.ListRooms(ctx, true)
}

func (s *DirectoryService) AllRooms(ctx context.Context) ([]models.Room, error) {
	return s.store.ListRooms(ctx, false)
}

// ReplaceRooms upsert danh sách gửi lên và xoá phòng không còn trong danh sách.
// Phòng đang được slot tham chiếu thì không xoá; khi đó cả lô bị từ chối.
func (s *DirectoryService) ReplaceRooms(ctx context.Context, in []RoomInput) ([]models.Room, error) {
	rooms := make([]models.Room, 0, len(in))
	submitted := map[string]bool{}
	for _, r := range in {
		room := models.Room{
			RoomID:   strings.TrimSpace(r.RoomID),
			RoomName: strings.TrimSpace(r.RoomName),
			Location: strings.TrimSpace(r.Location),
			Capacity: r.Capacity,
			Order:    r.Order,
			IsActive: r.IsActive == nil || *r.IsActive,
		}
		if room.RoomID == "" || room.RoomName == "" || room.Capacity < 0 {
			return nil, ErrInvalidRoom
		}
		if submitted[room.RoomID] {
			return nil, apperror.Wrap(ErrDuplicateRoomID, fmt.Errorf("room %q", room.RoomID))
		}
		submitted[room.RoomID] = true
		rooms = append(rooms, room)
	}

	stored, err := s.store.ListRooms(ctx, false)
	if err != nil {
		return nil, err
	}
	var remove []string
	for _, r := range stored {
		if !submitted[r.RoomID] {
			remove = append(remove, r.RoomID)
		}
	}

	inUse, err := s.store.RoomsInUse(ctx, remove)
	if err != nil {
		return nil, err
	}
	if len(inUse) > 0 {
		return nil, roomInUse(inUse)
	}

	if err := s.store.ReplaceRooms(ctx, rooms, remove); err != nil {
		if errors.Is(err, models.ErrInUse) {
			return nil, apperror.Wrap(ErrRoomInUse, err)
		}
		return nil, fmt.Errorf("replace rooms: %w", err)
	}
	s.logger.InfoContext(ctx, "room directory replaced", slog.Int("rooms", len(rooms)), slog.Int("removed", len(remove)))
	return s.store.ListRooms(ctx, false)
}

func roomInUse(ids []string) error {
	return &apperror.Error{
		Status:  ErrRoomInUse.Status,
		Message: ErrRoomInUse.Message + ": " + strings.Join(ids, ", "),
		Err:     ErrRoomInUse,
	}
}

func (s *DirectoryService) Admins(ctx context.Context) ([]models.Admin, error) {
	return s.store.ListAdmins(ctx)
}

// ReplaceAdmins thay toàn bộ danh sách admin, khoá theo email.
func (s *DirectoryService) ReplaceAdmins(ctx context.Context, in []AdminInput) ([]models.Admin, error) {
	admins := make([]models.Admin, 0, len(in))
	submitted := map[string]bool{}
	active := 0
	for _, a := range in {
		email := utils.NormalizeEmail(a.Email)
		name := strings.TrimSpace(a.Name)
		if !utils.IsInstitutionalEmail(email, s.emailDomain) || name == "" {
			return nil, apperror.Wrap(ErrInvalidAdmin, fmt.Errorf("admin %q", a.Email))
		}
		if submitted[email] {
			return nil, apperror.Wrap(ErrDuplicateEmail, fmt.Errorf("email %q", email))
		}
		submitted[email] = true

		admin := models.Admin{
			Email:        email,
			Name:         name,
			IsActive:     a.IsActive == nil || *a.IsActive,
			NotifyReview: a.NotifyReview,
		}
		if admin.IsActive {
			active++
		}
		admins = append(admins, admin)
	}
	if active == 0 {
		return nil, ErrNoActiveAdmin
	}

	stored, err := s.store.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	var remove []string
	for _, a := range stored {
		if !submitted[a.Email] {
			remove = append(remove, a.Email)
		}
	}

	if err := s.store.ReplaceAdmins(ctx, admins, remove); err != nil {
		return nil, fmt.Errorf("replace admins: %w", err)
	}
	s.logger.InfoContext(ctx, "admin directory replaced", slog.Int("admins", len(admins)), slog.Int("removed", len(remove)))
	return s.store.ListAdmins(ctx)
}

// SeedAdmins tạo admin ban đầu khi chưa có admin nào; đã có thì bỏ qua.
func (s *DirectoryService) SeedAdmins(ctx context.Context, in []AdminInput) (bool, error) {
	if len(in) == 0 {
		return false, nil
	}
	existing, err := s.store.ListAdmins(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	if _, err := s.ReplaceAdmins(ctx, in); err != nil {
		return false, fmt.Errorf("seed admins: %w", err)
	}
	return true, nil
}
