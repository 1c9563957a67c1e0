package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ndhu-booking/room-booking-server/captcha"
	"github.com/ndhu-booking/room-booking-server/middleware"
	"github.com/ndhu-booking/room-booking-server/models"
	"github.com/ndhu-booking/room-booking-server/notify"
	"github.com/ndhu-booking/room-booking-server/repository"
	"github.com/ndhu-booking/room-booking-server/services"
	"github.com/ndhu-booking/room-booking-server/utils"
)

type linkCatcher struct {
	mu    sync.Mutex
	links map[string]string
}

func (l *linkCatcher) Notify(ctx context.Context, kind notify.Kind, recipient string, data map[string]any) error {
	if kind != notify.KindLoginLink {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.links[recipient] = data["Link"].(string)
	return nil
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *repository.MemoryStore
	links  *linkCatcher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newLimitedTestServer(t, 600, 100)
}

// newLimitedTestServer dựng server với giới hạn intake tuỳ chỉnh.
func newLimitedTestServer(t *testing.T, intakePerMin, intakeBurst int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := repository.NewMemoryStore()
	if err := store.ReplaceRooms(context.Background(), []models.Room{
		{RoomID: "A205", RoomName: "Seminar Room", Location: "Science II", Capacity: 40, IsActive: true},
	}, nil); err != nil {
		t.Fatal(err)
	}
	if err := store.ReplaceAdmins(context.Background(), []models.Admin{
		{Email: "boss@gms.ndhu.edu.tw", Name: "Boss", IsActive: true, NotifyReview: true},
	}, nil); err != nil {
		t.Fatal(err)
	}

	links := &linkCatcher{links: map[string]string{}}
	tokens := utils.NewTokenManager("route-secret")
	const domain = "gms.ndhu.edu.tw"

	booking := services.NewBookingService(store, tokens, links, services.BookingConfig{EmailDomain: domain, VerifyTTL: 24 * time.Hour}, logger)
	review := services.NewReviewService(store, links, logger)
	schedule := services.NewScheduleService(store, store)
	directory := services.NewDirectoryService(store, domain, logger)
	auth := services.NewAuthService(store, tokens, links, captcha.Noop{}, services.AuthConfig{
		EmailDomain: domain,
		FrontendURL: "http://frontend",
		LoginTTL:    10 * time.Minute,
		SessionTTL:  24 * time.Hour,
	}, logger)
	exports := services.NewExportService(store, nil, t.TempDir(), logger)

	intake := middleware.NewIPRateLimiter(intakePerMin, intakeBurst, time.Minute)
	login := middleware.NewIPRateLimiter(600, 100, time.Minute)
	t.Cleanup(func() {
		exports.Wait()
		intake.Stop()
		login.Stop()
	})

	r := gin.New()
	SetupRoutes(r, NewDeps(store, directory, schedule, booking, review, auth, exports, intake, login))
	return &testServer{t: t, router: r, store: store, links: links}
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (s *testServer) login(email string) string {
	s.t.Helper()
	w, _ := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email})
	if w.Code != http.StatusOK {
		s.t.Fatalf("login status = %d body = %s", w.Code, w.Body.String())
	}
	link, err := url.Parse(s.links.links[email])
	if err != nil {
		s.t.Fatal(err)
	}
	w, body := s.do(http.MethodPost, "/api/auth/verify", "", gin.H{"token": link.Query().Get("token"), "turnstileToken": "x"})
	if w.Code != http.StatusOK {
		s.t.Fatalf("verify status = %d body = %s", w.Code, w.Body.String())
	}
	return body["token"].(string)
}

func TestRoutes_BookingReviewSchedule(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(http.MethodPost, "/api/applications", "", gin.H{
		"name":          "Chen",
		"email":         "a@gms.ndhu.edu.tw",
		"purpose":       "club meeting",
		"multipleSlots": []gin.H{{"date": "2025-06-02", "time": "10:00", "roomId": "A205"}},
	})
	if w.Code != http.StatusCreated || body["success"] != true {
		t.Fatalf("submit status = %d body = %s", w.Code, w.Body.String())
	}
	appID := body["applicationId"].(string)

	token := s.login("boss@gms.ndhu.edu.tw")

	w, body = s.do(http.MethodGet, "/api/applications/"+appID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d body = %s", w.Code, w.Body.String())
	}
	app := body["application"].(map[string]any)
	slots := app["requested_slots"].([]any)
	slot := slots[0].(map[string]any)
	if slot["startTime"] != "10:00" || slot["endTime"] != "11:00" || slot["status"] != "pending" {
		t.Fatalf("slot = %v", slot)
	}

	w, _ = s.do(http.MethodPost, "/api/admin/review", token, gin.H{
		"applicationId": appID,
		"slots":         []gin.H{{"slotId": slot["id"], "status": "confirmed"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("review status = %d body = %s", w.Code, w.Body.String())
	}

	w, body = s.do(http.MethodGet, "/api/schedule?date=2025-06-02&room=A205", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("schedule status = %d body = %s", w.Code, w.Body.String())
	}
	booked := body["bookedSlots"].(map[string]any)["2025-06-02"].([]any)
	if len(booked) != 1 || booked[0] != "10:00" {
		t.Fatalf("booked = %v", booked)
	}

	w, body = s.do(http.MethodPost, "/api/applications", "", gin.H{
		"name":          "Lin",
		"email":         "b@gms.ndhu.edu.tw",
		"purpose":       "study group",
		"multipleSlots": []gin.H{{"date": "2025-06-02", "time": "10:30", "roomId": "A205"}},
	})
	if w.Code != http.StatusConflict || body["error"] != "time slot already booked" {
		t.Fatalf("conflict status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestRoutes_PublicValidation(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(http.MethodPost, "/api/applications", "", gin.H{
		"name": "X", "email": "x@gmail.com", "purpose": "p",
		"multipleSlots": []gin.H{{"date": "2025-06-02", "time": "10:00", "roomId": "A205"}},
	})
	if w.Code != http.StatusBadRequest || body["success"] != false || body["error"] != "must use institutional email" {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	w, _ = s.do(http.MethodGet, "/api/schedule?room=A205", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("schedule without date status = %d", w.Code)
	}

	w, _ = s.do(http.MethodGet, "/api/rooms", "", nil)
	var rooms []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &rooms); err != nil || len(rooms) != 1 {
		t.Fatalf("rooms = %s", w.Body.String())
	}
	if rooms[0]["displayName"] != "Seminar Room (Science II)" {
		t.Fatalf("displayName = %v", rooms[0]["displayName"])
	}
}

func TestRoutes_ApplicationVerifyIsRateLimited(t *testing.T) {
	s := newLimitedTestServer(t, 1, 2)

	for i := 0; i < 2; i++ {
		w, _ := s.do(http.MethodPost, "/api/applications/verify", "", gin.H{"token": "not-a-token"})
		if w.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d limited too early", i)
		}
	}
	w, _ := s.do(http.MethodPost, "/api/applications/verify", "", gin.H{"token": "not-a-token"})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 once the intake budget is spent", w.Code)
	}
}

func TestRoutes_AdminGuard(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/applications", "/api/admin/rooms", "/api/admin/admins", "/api/auth/profile"} {
		w, _ := s.do(http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token = %d, want 401", path, w.Code)
		}
	}

	w, _ := s.do(http.MethodGet, "/api/applications", "not-a-jwt", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token = %d, want 401", w.Code)
	}

	// Email đúng tên miền nhưng không phải admin thì không lấy được session.
	w, _ = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "student@gms.ndhu.edu.tw"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d", w.Code)
	}
	link, _ := url.Parse(s.links.links["student@gms.ndhu.edu.tw"])
	w, _ = s.do(http.MethodPost, "/api/auth/verify", "", gin.H{"token": link.Query().Get("token")})
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin verify = %d, want 403", w.Code)
	}

	token := s.login("boss@gms.ndhu.edu.tw")
	w, body := s.do(http.MethodGet, "/api/auth/profile", token, nil)
	if w.Code != http.StatusOK || body["admin"].(map[string]any)["email"] != "boss@gms.ndhu.edu.tw" {
		t.Fatalf("profile = %d %s", w.Code, w.Body.String())
	}

	w, _ = s.do(http.MethodPost, "/api/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout = %d", w.Code)
	}
	w, _ = s.do(http.MethodGet, "/api/auth/profile", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("after logout = %d, want 401", w.Code)
	}
}

func TestRoutes_RoomDirectoryAndExport(t *testing.T) {
	s := newTestServer(t)
	token := s.login("boss@gms.ndhu.edu.tw")

	w, body := s.do(http.MethodPost, "/api/admin/rooms", token, gin.H{"rooms": []gin.H{
		{"roomId": "A205", "roomName": "Seminar Room", "location": "Science II", "capacity": 40},
		{"roomId": "B101", "roomName": "Lab", "capacity": 20, "isActive": false},
	}})
	if w.Code != http.StatusOK {
		t.Fatalf("replace rooms = %d %s", w.Code, w.Body.String())
	}
	if len(body["rooms"].([]any)) != 2 {
		t.Fatalf("rooms = %v", body["rooms"])
	}

	w, _ = s.do(http.MethodGet, "/api/rooms", "", nil)
	var public []map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &public)
	if len(public) != 1 {
		t.Fatalf("inactive room must be hidden, got %s", w.Body.String())
	}

	w, body = s.do(http.MethodPost, "/api/admin/exports", token, gin.H{"format": "csv"})
	if w.Code != http.StatusAccepted || body["status"] != "queued" {
		t.Fatalf("export = %d %s", w.Code, w.Body.String())
	}
	jobID := body["jobId"].(string)

	w, _ = s.do(http.MethodGet, "/api/admin/exports/missing", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing job = %d", w.Code)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		job, err := s.store.GetExportJob(context.Background(), jobID)
		if err != nil {
			t.Fatal(err)
		}
		if job.Status == models.ExportDone {
			break
		}
		if job.Status == models.ExportFailed || time.Now().After(deadline) {
			t.Fatalf("job = %+v", job)
		}
		time.Sleep(10 * time.Millisecond)
	}
	w, _ = s.do(http.MethodGet, "/api/admin/exports/"+jobID, token, nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Disposition") == "" {
		t.Fatalf("download = %d headers = %v", w.Code, w.Header())
	}
}
