package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ndhu-booking/room-booking-server/models"
	"github.com/ndhu-booking/room-booking-server/notify"
	"github.com/ndhu-booking/room-booking-server/repository"
	"github.com/ndhu-booking/room-booking-server/utils"
)

const testDomain = "gms.ndhu.edu.tw"

type sentNotice struct {
	Kind      notify.Kind
	Recipient string
	Data      map[string]any
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotice
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, kind notify.Kind, recipient string, data map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotice{Kind: kind, Recipient: recipient, Data: data})
	return f.err
}

func (f *fakeNotifier) byKind(kind notify.Kind) []sentNotice {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentNotice
	for _, n := range f.sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedRooms(t *testing.T, store *repository.MemoryStore, rooms ...models.Room) {
	t.Helper()
	if err := store.ReplaceRooms(context.Background(), rooms, nil); err != nil {
		t.Fatalf("seed rooms: %v", err)
	}
}

func seedAdmins(t *testing.T, store *repository.MemoryStore, admins ...models.Admin) {
	t.Helper()
	if err := store.ReplaceAdmins(context.Background(), admins, nil); err != nil {
		t.Fatalf("seed admins: %v", err)
	}
}

func room(id string) models.Room {
	return models.Room{RoomID: id, RoomName: "Room " + id, Location: "Building A", Capacity: 30, IsActive: true}
}

type bookingFixture struct {
	store    *repository.MemoryStore
	notifier *fakeNotifier
	tokens   *utils.TokenManager
	booking  *BookingService
	review   *ReviewService
	schedule *ScheduleService
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	seedRooms(t, store, room("A205"), room("B101"))
	notifier := &fakeNotifier{}
	tokens := utils.NewTokenManager("test-secret")
	cfg := BookingConfig{EmailDomain: testDomain, VerifyTTL: 24 * time.Hour, AdminURL: "http://localhost:3000/admin"}
	return &bookingFixture{
		store:    store,
		notifier: notifier,
		tokens:   tokens,
		booking:  NewBookingService(store, tokens, notifier, cfg, discardLogger()),
		review:   NewReviewService(store, notifier, discardLogger()),
		schedule: NewScheduleService(store, store),
	}
}

func (f *bookingFixture) submit(t *testing.T, email string, slots ...SlotSelection) *SubmitResult {
	t.Helper()
	res, err := f.booking.Submit(context.Background(), SubmitInput{
		Name:    "Chen",
		Email:   email,
		Purpose: "club meeting",
		Slots:   slots,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return res
}
