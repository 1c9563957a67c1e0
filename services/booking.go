package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ndhu-booking/room-booking-server/apperror"
	"github.com/ndhu-booking/room-booking-server/models"
	"github.com/ndhu-booking/room-booking-server/notify"
	"github.com/ndhu-booking/room-booking-server/utils"
)

type BookingStore interface {
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
	FindConfirmedSlots(ctx context.Context, keys []models.SlotKey) ([]models.Slot, error)
	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	MarkApplicationVerified(ctx context.Context, id string, at time.Time) (bool, error)
	ListReviewers(ctx context.Context) ([]models.Admin, error)
}

type BookingConfig struct {
	EmailDomain string
	VerifyTTL   time.Duration
	// AdminURL là trang duyệt đơn, gắn vào email gửi người duyệt.
	AdminURL string
}

type SlotSelection struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	RoomID string `json:"roomId"`
}

type SubmitInput struct {
	Name         string
	Email        string
	Organization string
	Phone        string
	Purpose      string
	Slots        []SlotSelection
}

type SubmitResult struct {
	ApplicationID string
	VerifyToken   string
	Application   *models.Application
}

// BookingService nhận đơn đặt phòng và xác minh email người đặt.
type BookingService struct {
	store    BookingStore
	tokens   *utils.TokenManager
	notifier notify.Notifier
	cfg      BookingConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewBookingService(store BookingStore, tokens *utils.TokenManager, notifier notify.Notifier, cfg BookingConfig, logger *slog.Logger) *BookingService {
	return &BookingService{
		store:    store,
		tokens:   tokens,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit kiểm tra và lưu một đơn cùng các slot (trạng thái pending), trả về verify token 24h.
func (s *BookingService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	email := utils.NormalizeEmail(in.Email)
	if !utils.IsInstitutionalEmail(email, s.cfg.EmailDomain) {
		return nil, ErrInstitutionalEmail
	}
	if len(in.Slots) == 0 {
		return nil, ErrNoSlots
	}
	name := strings.TrimSpace(in.Name)
	purpose := strings.TrimSpace(in.Purpose)
	if name == "" || purpose == "" {
		return nil, ErrMissingFields
	}

	appID := uuid.NewString()
	slots, err := s.buildSlots(ctx, appID, in.Slots)
	if err != nil {
		return nil, err
	}

	keys := make([]models.SlotKey, 0, len(slots))
	for _, slot := range slots {
		keys = append(keys, slot.Key())
	}
	taken, err := s.store.FindConfirmedSlots(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("check confirmed slots: %w", err)
	}
	if len(taken) > 0 {
		t := taken[0]
		return nil, apperror.Wrap(ErrSlotTaken, fmt.Errorf("%s %s %s", t.RoomID, t.Date, t.StartTime))
	}

	app := &models.Application{
		ID:           appID,
		Name:         name,
		Email:        email,
		Organization: strings.TrimSpace(in.Organization),
		Phone:        strings.TrimSpace(in.Phone),
		Purpose:      purpose,
		RoomID:       slots[0].RoomID,
		SubmittedAt:  s.now().UTC(),
		Status:       models.StatusPending,
		Slots:        slots,
	}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		switch {
		case errors.Is(err, models.ErrDuplicate):
			return nil, apperror.Wrap(ErrSlotTaken, err)
		case errors.Is(err, models.ErrInUse):
			// phòng bị xoá giữa lúc kiểm tra và lúc ghi
			return nil, apperror.Wrap(ErrRoomNotFound, err)
		}
		return nil, fmt.Errorf("create application: %w", err)
	}

	token, err := s.tokens.IssueVerifyToken(app.ID, app.Email, s.cfg.VerifyTTL)
	if err != nil {
		return nil, fmt.Errorf("issue verify token: %w", err)
	}

	s.logger.InfoContext(ctx, "application submitted",
		slog.String("application_id", app.ID),
		slog.String("room_id", app.RoomID),
		slog.Int("slots", len(slots)),
	)
	return &SubmitResult{ApplicationID: app.ID, VerifyToken: token, Application: app}, nil
}

// buildSlots chuẩn hoá lựa chọn, bỏ trùng và kiểm tra phòng còn hoạt động.
func (s *BookingService) buildSlots(ctx context.Context, appID string, selections []SlotSelection) ([]models.Slot, error) {
	rooms := map[string]bool{}
	seen := map[models.SlotKey]bool{}
	slots := make([]models.Slot, 0, len(selections))

	for _, sel := range selections {
		d, err := parseDate(strings.TrimSpace(sel.Date))
		if err != nil {
			return nil, ErrInvalidDate
		}
		start, end, err := hourWindow(strings.TrimSpace(sel.Time))
		if err != nil {
			return nil, ErrInvalidTime
		}

		roomID := strings.TrimSpace(sel.RoomID)
		if _, checked := rooms[roomID]; !checked {
			room, err := s.store.GetRoom(ctx, roomID)
			switch {
			case errors.Is(err, models.ErrNotFound):
				return nil, apperror.Wrap(ErrRoomNotFound, fmt.Errorf("room %q", roomID))
			case err != nil:
				return nil, fmt.Errorf("get room %s: %w", roomID, err)
			case !room.IsActive:
				return nil, apperror.Wrap(ErrRoomNotFound, fmt.Errorf("room %q inactive", roomID))
			}
			rooms[roomID] = true
		}

		slot := models.Slot{
			ID:            uuid.NewString(),
			ApplicationID: appID,
			RoomID:        roomID,
			Date:          d.Format(dateLayout),
			StartTime:     start,
			EndTime:       end,
			Status:        models.StatusPending,
		}
		if seen[slot.Key()] {
			continue
		}
		seen[slot.Key()] = true
		slots = append(slots, slot)
	}
	return slots, nil
}

// Verify xác nhận email người đặt bằng verify token. Lần đầu sẽ gửi email cho người đặt và người duyệt.
func (s *BookingService) Verify(ctx context.Context, token string) (*models.Application, error) {
	claims, err := s.tokens.ParseVerifyToken(token)
	if err != nil {
		return nil, apperror.Wrap(ErrInvalidToken, err)
	}

	first, err := s.store.MarkApplicationVerified(ctx, claims.ApplicationID, s.now().UTC())
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mark application verified: %w", err)
	}

	app, err := s.store.GetApplication(ctx, claims.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}
	if first {
		s.announce(ctx, app)
	}
	return app, nil
}

func (s *BookingService) announce(ctx context.Context, app *models.Application) {
	data := map[string]any{
		"ApplicationID": app.ID,
		"Name":          app.Name,
		"Email":         app.Email,
		"Organization":  app.Organization,
		"Purpose":       app.Purpose,
		"Slots":         slotLines(app.Slots),
		"Link":          s.cfg.AdminURL,
	}

	if err := s.notifier.Notify(ctx, notify.KindApplicationReceived, app.Email, data); err != nil {
		s.logger.ErrorContext(ctx, "notify requester failed", slog.String("application_id", app.ID), slog.Any("error", err))
	}

	reviewers, err := s.store.ListReviewers(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list reviewers failed", slog.Any("error", err))
		return
	}
	for _, admin := range reviewers {
		if err := s.notifier.Notify(ctx, notify.KindReviewRequested, admin.Email, data); err != nil {
			s.logger.ErrorContext(ctx, "notify reviewer failed",
				slog.String("application_id", app.ID),
				slog.String("reviewer", admin.Email),
				slog.Any("error", err),
			)
		}
	}
}
