package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ndhu-booking/room-booking-server/models"
	"github.com/ndhu-booking/room-booking-server/notify"
)

func slotIDsByStart(app *models.Application) map[string]string {
	out := map[string]string{}
	for _, s := range app.Slots {
		out[s.Date+" "+s.StartTime] = s.ID
	}
	return out
}

// Đơn 3 slot ở A205: duyệt 2, từ chối 1, rồi một đơn khác xin lại slot đã duyệt.
func TestReview_A205Scenario(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t)
	res := f.submit(t, "a@gms.ndhu.edu.tw",
		SlotSelection{Date: "2025-03-10", Time: "10:00", RoomID: "A205"},
		SlotSelection{Date: "2025-03-10", Time: "11:00", RoomID: "A205"},
		SlotSelection{Date: "2025-03-12", Time: "14:00", RoomID: "A205"},
	)
	app, _ := f.store.GetApplication(ctx, res.ApplicationID)
	ids := slotIDsByStart(app)

	reviewed, err := f.review.Review(ctx, ReviewInput{
		ApplicationID: app.ID,
		Slots: []models.SlotDecision{
			{SlotID: ids["2025-03-10 10:00"], Status: "confirmed"},
			{SlotID: ids["2025-03-10 11:00"], Status: "confirmed"},
			{SlotID: ids["2025-03-12 14:00"], Status: "rejected"},
		},
		Note:     "ok",
		Reviewer: "boss@gms.ndhu.edu.tw",
	})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if reviewed.Status != models.StatusConfirmed || reviewed.ReviewNote != "ok" || reviewed.ReviewedAt == nil {
		t.Fatalf("reviewed = %+v", reviewed)
	}

	week, err := f.schedule.Week(ctx, "A205", "2025-03-12")
	if err != nil {
		t.Fatalf("Week: %v", err)
	}
	if got := week.BookedSlots["2025-03-10"]; len(got) != 2 {
		t.Errorf("booked 2025-03-10 = %v, want 2 entries", got)
	}
	if got := week.BookedSlots["2025-03-12"]; len(got) != 0 {
		t.Errorf("rejected slot shown as booked: %v", got)
	}
	if got := week.PendingSlots["2025-03-12"]; len(got) != 0 {
		t.Errorf("rejected slot shown as pending: %v", got)
	}

	_, err = f.booking.Submit(ctx, SubmitInput{
		Name: "B", Email: "b@gms.ndhu.edu.tw", Purpose: "p",
		Slots: []SlotSelection{{Date: "2025-03-10", Time: "10:00", RoomID: "A205"}},
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("second booking err = %v, want %v", err, ErrSlotTaken)
	}

	// Slot bị từ chối vẫn đặt lại được.
	f.submit(t, "b@gms.ndhu.edu.tw", SlotSelection{Date: "2025-03-12", Time: "14:00", RoomID: "A205"})

	if got := f.notifier.byKind(notify.KindApplicationReviewed); len(got) != 1 || got[0].Data["Status"] != models.StatusConfirmed {
		t.Errorf("application_reviewed = %+v", got)
	}
}

func TestReview_AllRejected(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t)
	res := f.submit(t, "a@gms.ndhu.edu.tw", SlotSelection{Date: "2025-03-10", Time: "10:00", RoomID: "A205"})
	app, _ := f.store.GetApplication(ctx, res.ApplicationID)

	reviewed, err := f.review.Review(ctx, ReviewInput{
		ApplicationID: app.ID,
		Slots:         []models.SlotDecision{{SlotID: app.Slots[0].ID, Status: "rejected"}},
	})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if reviewed.Status != models.StatusRejected {
		t.Fatalf("status = %q, want rejected", reviewed.Status)
	}
}

func TestReview_ConfirmingTakenSlotConflicts(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t)
	sel := SlotSelection{Date: "2025-03-10", Time: "10:00", RoomID: "A205"}
	first := f.submit(t, "a@gms.ndhu.edu.tw", sel)
	second := f.submit(t, "b@gms.ndhu.edu.tw", sel)

	app1, _ := f.store.GetApplication(ctx, first.ApplicationID)
	app2, _ := f.store.GetApplication(ctx, second.ApplicationID)

	if _, err := f.review.Review(ctx, ReviewInput{
		ApplicationID: app1.ID,
		Slots:         []models.SlotDecision{{SlotID: app1.Slots[0].ID, Status: "confirmed"}},
	}); err != nil {
		t.Fatalf("first review: %v", err)
	}
	_, err := f.review.Review(ctx, ReviewInput{
		ApplicationID: app2.ID,
		Slots:         []models.SlotDecision{{SlotID: app2.Slots[0].ID, Status: "confirmed"}},
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("err = %v, want %v", err, ErrSlotTaken)
	}

	again, _ := f.store.GetApplication(ctx, app2.ID)
	if again.Status != models.StatusPending || again.Slots[0].Status != models.StatusPending {
		t.Fatalf("failed review must not write, got %+v", again)
	}
}

func TestReview_Validation(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t)
	res := f.submit(t, "a@gms.ndhu.edu.tw", SlotSelection{Date: "2025-03-10", Time: "10:00", RoomID: "A205"})
	other := f.submit(t, "b@gms.ndhu.edu.tw", SlotSelection{Date: "2025-03-11", Time: "10:00", RoomID: "A205"})
	app, _ := f.store.GetApplication(ctx, res.ApplicationID)
	otherApp, _ := f.store.GetApplication(ctx, other.ApplicationID)
	slotID := app.Slots[0].ID

	tests := []struct {
		name string
		in   ReviewInput
		want error
	}{
		{"missing id", ReviewInput{Slots: []models.SlotDecision{{SlotID: slotID, Status: "confirmed"}}}, ErrMissingApplicationID},
		{"no slots", ReviewInput{ApplicationID: app.ID}, ErrNoReviewSlots},
		{"bad status", ReviewInput{ApplicationID: app.ID, Slots: []models.SlotDecision{{SlotID: slotID, Status: "pending"}}}, ErrInvalidReviewStatus},
		{"duplicate slot", ReviewInput{ApplicationID: app.ID, Slots: []models.SlotDecision{{SlotID: slotID, Status: "confirmed"}, {SlotID: slotID, Status: "rejected"}}}, ErrDuplicateReviewSlot},
		{"unknown application", ReviewInput{ApplicationID: "nope", Slots: []models.SlotDecision{{SlotID: slotID, Status: "confirmed"}}}, ErrApplicationNotFound},
		{"foreign slot", ReviewInput{ApplicationID: app.ID, Slots: []models.SlotDecision{{SlotID: otherApp.Slots[0].ID, Status: "confirmed"}}}, ErrSlotNotInApplication},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.review.Review(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReview_ListFilter(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t)

	apps, err := f.review.List(ctx, "")
	if err != nil || apps == nil || len(apps) != 0 {
		t.Fatalf("empty list = %v, %v", apps, err)
	}

	f.submit(t, "a@gms.ndhu.edu.tw", SlotSelection{Date: "2025-03-10", Time: "10:00", RoomID: "A205"})
	pending, err := f.review.List(ctx, models.StatusPending)
	if err != nil || len(pending) != 1 || len(pending[0].Slots) != 1 {
		t.Fatalf("pending = %+v, %v", pending, err)
	}
	if _, err := f.review.List(ctx, "cancelled"); !errors.Is(err, ErrInvalidStatusFilter) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidStatusFilter)
	}
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{"confirmed"}, models.StatusConfirmed},
		{[]string{"rejected", "confirmed"}, models.StatusConfirmed},
		{[]string{"rejected", "rejected"}, models.StatusRejected},
	}
	for _, tt := range tests {
		var decisions []models.SlotDecision
		for _, s := range tt.in {
			decisions = append(decisions, models.SlotDecision{Status: s})
		}
		if got := AggregateStatus(decisions); got != tt.want {
			t.Errorf("AggregateStatus(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
