package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ndhu-booking/room-booking-server/apperror"
	"github.com/ndhu-booking/room-booking-server/models"
	"github.com/ndhu-booking/room-booking-server/notify"
)

type ReviewStore interface {
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	ListApplications(ctx context.Context, status string) ([]models.Application, error)
	ApplyReview(ctx context.Context, applicationID string, decisions []models.SlotDecision, status, note string, at time.Time) error
}

type ReviewInput struct {
	ApplicationID string
	Slots         []models.SlotDecision
	Note          string
	Reviewer      string
}

// ReviewService cho admin xem và duyệt đơn.
type ReviewService struct {
	store    ReviewStore
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewReviewService(store ReviewStore, notifier notify.Notifier, logger *slog.Logger) *ReviewService {
	return &ReviewService{store: store, notifier: notifier, logger: logger, now: time.Now}
}

func (s *ReviewService) List(ctx context.Context, status string) ([]models.Application, error) {
	switch status {
	case "", models.StatusPending, models.StatusConfirmed, models.StatusRejected:
	default:
		return nil, ErrInvalidStatusFilter
	}
	apps, err := s.store.ListApplications(ctx, status)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []models.Application{}
	}
	return apps, nil
}

func (s *ReviewService) Get(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.store.GetApplication(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	return app, err
}

// AggregateStatus: đơn là confirmed nếu có ít nhất một slot trong lượt duyệt được confirmed, ngược lại rejected.
func AggregateStatus(decisions []models.SlotDecision) string {
	for _, d := range decisions {
		if d.Status == models.StatusConfirmed {
			return models.StatusConfirmed
		}
	}
	return models.StatusRejected
}

// Review ghi đè trạng thái các slot được liệt kê và tính lại trạng thái tổng của đơn.
// Không kiểm tra chuyển trạng thái: slot ở trạng thái nào cũng có thể bị ghi đè.
func (s *ReviewService) Review(ctx context.Context, in ReviewInput) (*models.Application, error) {
	appID := strings.TrimSpace(in.ApplicationID)
	if appID == "" {
		return nil, ErrMissingApplicationID
	}
	if len(in.Slots) == 0 {
		return nil, ErrNoReviewSlots
	}

	decisions := make([]models.SlotDecision, 0, len(in.Slots))
	listed := map[string]bool{}
	for _, d := range in.Slots {
		status := strings.ToLower(strings.TrimSpace(d.Status))
		if status != models.StatusConfirmed && status != models.StatusRejected {
			return nil, ErrInvalidReviewStatus
		}
		if listed[d.SlotID] {
			return nil, ErrDuplicateReviewSlot
		}
		listed[d.SlotID] = true
		decisions = append(decisions, models.SlotDecision{SlotID: d.SlotID, Status: status})
	}

	app, err := s.Get(ctx, appID)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]bool, len(app.Slots))
	for _, slot := range app.Slots {
		owned[slot.ID] = true
	}
	for _, d := range decisions {
		if !owned[d.SlotID] {
			return nil, apperror.Wrap(ErrSlotNotInApplication, fmt.Errorf("slot %q", d.SlotID))
		}
	}

	status := AggregateStatus(decisions)
	note := strings.TrimSpace(in.Note)
	err = s.store.ApplyReview(ctx, appID, decisions, status, note, s.now().UTC())
	switch {
	case errors.Is(err, models.ErrDuplicate):
		return nil, apperror.Wrap(ErrSlotTaken, err)
	case errors.Is(err, models.ErrNotFound):
		return nil, apperror.Wrap(ErrSlotNotInApplication, err)
	case err != nil:
		return nil, fmt.Errorf("apply review: %w", err)
	}

	s.logger.InfoContext(ctx, "application reviewed",
		slog.String("application_id", appID),
		slog.String("status", status),
		slog.String("reviewer", in.Reviewer),
		slog.Int("slots", len(decisions)),
	)

	reviewed, err := s.Get(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("reload application: %w", err)
	}
	s.notifyRequester(ctx, reviewed, listed)
	return reviewed, nil
}

func (s *ReviewService) notifyRequester(ctx context.Context, app *models.Application, listed map[string]bool) {
	var slots []models.Slot
	for _, slot := range app.Slots {
		if listed[slot.ID] {
			slots = append(slots, slot)
		}
	}
	err := s.notifier.Notify(ctx, notify.KindApplicationReviewed, app.Email, map[string]any{
		"ApplicationID": app.ID,
		"Name":          app.Name,
		"Status":        app.Status,
		"Note":          app.ReviewNote,
		"Slots":         slotLines(slots),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "notify review result failed", slog.String("application_id", app.ID), slog.Any("error", err))
	}
}
