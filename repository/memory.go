package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ndhu-booking/room-booking-server/models"
)

// MemoryStore giữ toàn bộ dữ liệu trong RAM. Dùng cho DB_DRIVER=memory (chạy thử local) và test.
// Ràng buộc slot confirmed duy nhất theo (room, date, start) được kiểm tra giống partial unique index.
type MemoryStore struct {
	mu          sync.RWMutex
	rooms       map[string]models.Room
	admins      map[string]models.Admin // key: email
	nextAdminID uint
	apps        map[string]models.Application
	slots       map[string]models.Slot
	challenges  map[string]models.LoginChallenge
	revoked     map[string]models.RevokedToken
	exports     map[string]models.ExportJob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:      map[string]models.Room{},
		admins:     map[string]models.Admin{},
		apps:       map[string]models.Application{},
		slots:      map[string]models.Slot{},
		challenges: map[string]models.LoginChallenge{},
		revoked:    map[string]models.RevokedToken{},
		exports:    map[string]models.ExportJob{},
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

/* ========== Rooms ========== */

func (m *MemoryStore) ListRooms(ctx context.Context, activeOnly bool) ([]models.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].RoomID < out[j].RoomID
	})
	return out, nil
}

func (m *MemoryStore) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &r, nil
}

func (m *MemoryStore) RoomsInUse(ctx context.Context, ids []string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.roomsInUseLocked(ids), nil
}

func (m *MemoryStore) roomsInUseLocked(ids []string) []string {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	seen := map[string]bool{}
	var used []string
	for _, s := range m.slots {
		if want[s.RoomID] && !seen[s.RoomID] {
			seen[s.RoomID] = true
			used = append(used, s.RoomID)
		}
	}
	sort.Strings(used)
	return used
}

func (m *MemoryStore) ReplaceRooms(ctx context.Context, rooms []models.Room, remove []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.roomsInUseLocked(remove)) > 0 {
		return models.ErrInUse
	}
	for _, id := range remove {
		delete(m.rooms, id)
	}
	now := time.Now()
	for _, r := range rooms {
		if old, ok := m.rooms[r.RoomID]; ok {
			r.CreatedAt = old.CreatedAt
		} else {
			r.CreatedAt = now
		}
		r.UpdatedAt = now
		m.rooms[r.RoomID] = r
	}
	return nil
}

/* ========== Admins ========== */

func (m *MemoryStore) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Admin, 0, len(m.admins))
	for _, a := range m.admins {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetActiveAdmin(ctx context.Context, email string) (*models.Admin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.admins[email]
	if !ok || !a.IsActive {
		return nil, models.ErrNotFound
	}
	return &a, nil
}

func (m *MemoryStore) ListReviewers(ctx context.Context) ([]models.Admin, error) {
	all, _ := m.ListAdmins(ctx)
	var out []models.Admin
	for _, a := range all {
		if a.IsActive && a.NotifyReview {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryStore) ReplaceAdmins(ctx context.Context, admins []models.Admin, remove []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, email := range remove {
		delete(m.admins, email)
	}
	for _, a := range admins {
		if old, ok := m.admins[a.Email]; ok {
			a.ID = old.ID
			a.CreatedAt = old.CreatedAt
		} else {
			m.nextAdminID++
			a.ID = m.nextAdminID
			a.CreatedAt = time.Now()
		}
		a.UpdatedAt = time.Now()
		m.admins[a.Email] = a
	}
	return nil
}

/* ========== Applications & slots ========== */

func (m *MemoryStore) CreateApplication(ctx context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[app.ID]; ok {
		return models.ErrDuplicate
	}
	for _, s := range app.Slots {
		if _, ok := m.rooms[s.RoomID]; !ok {
			// giống lỗi khoá ngoại slots.room_id của Postgres
			return fmt.Errorf("%w: room %q does not exist", models.ErrInUse, s.RoomID)
		}
		if _, ok := m.slots[s.ID]; ok {
			return models.ErrDuplicate
		}
		if s.Status == models.StatusConfirmed && m.confirmedTakenLocked(s.Key(), s.ID) {
			return models.ErrDuplicate
		}
	}
	stored := *app
	stored.Slots = nil
	m.apps[app.ID] = stored
	for _, s := range app.Slots {
		m.slots[s.ID] = s
	}
	return nil
}

func (m *MemoryStore) confirmedTakenLocked(key models.SlotKey, exceptID string) bool {
	for _, s := range m.slots {
		if s.ID != exceptID && s.Status == models.StatusConfirmed && s.Key() == key {
			return true
		}
	}
	return false
}

func (m *MemoryStore) FindConfirmedSlots(ctx context.Context, keys []models.SlotKey) ([]models.Slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := map[models.SlotKey]bool{}
	for _, k := range keys {
		want[k] = true
	}
	var out []models.Slot
	for _, s := range m.slots {
		if s.Status == models.StatusConfirmed && want[s.Key()] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryStore) withSlotsLocked(app models.Application) models.Application {
	var slots []models.Slot
	for _, s := range m.slots {
		if s.ApplicationID == app.ID {
			slots = append(slots, s)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].StartTime < slots[j].StartTime
	})
	app.Slots = slots
	return app
}

func (m *MemoryStore) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := m.withSlotsLocked(app)
	return &out, nil
}

func (m *MemoryStore) ListApplications(ctx context.Context, status string) ([]models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Application
	for _, app := range m.apps {
		if status != "" && app.Status != status {
			continue
		}
		out = append(out, m.withSlotsLocked(app))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (m *MemoryStore) ListApplicationsSubmitted(ctx context.Context, from, to time.Time) ([]models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Application
	for _, app := range m.apps {
		if app.SubmittedAt.Before(from) || !app.SubmittedAt.Before(to) {
			continue
		}
		out = append(out, m.withSlotsLocked(app))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (m *MemoryStore) MarkApplicationVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return false, models.ErrNotFound
	}
	if app.VerifiedAt != nil {
		return false, nil
	}
	app.VerifiedAt = &at
	m.apps[id] = app
	return true, nil
}

func (m *MemoryStore) ApplyReview(ctx context.Context, applicationID string, decisions []models.SlotDecision, status, note string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[applicationID]
	if !ok {
		return models.ErrNotFound
	}
	// Kiểm tra hết trước khi ghi để giữ tính nguyên tử như transaction.
	updated := map[string]models.Slot{}
	for _, d := range decisions {
		s, ok := m.slots[d.SlotID]
		if !ok || s.ApplicationID != applicationID {
			return models.ErrNotFound
		}
		s.Status = d.Status
		updated[s.ID] = s
	}
	confirmed := map[models.SlotKey]int{}
	for id, s := range m.slots {
		if u, ok := updated[id]; ok {
			s = u
		}
		if s.Status == models.StatusConfirmed {
			confirmed[s.Key()]++
			if confirmed[s.Key()] > 1 {
				return models.ErrDuplicate
			}
		}
	}
	for id, s := range updated {
		m.slots[id] = s
	}
	app.Status = status
	app.ReviewNote = note
	app.ReviewedAt = &at
	m.apps[applicationID] = app
	return nil
}

// SlotMarks cùng ngữ nghĩa với ScheduleReader.SlotMarks.
func (m *MemoryStore) SlotMarks(ctx context.Context, roomID, from, to string) ([]models.SlotMark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.SlotMark
	for _, s := range m.slots {
		if s.RoomID != roomID || s.Date < from || s.Date > to || s.Status == models.StatusRejected {
			continue
		}
		out = append(out, models.SlotMark{Date: s.Date, StartTime: s.StartTime, Status: s.Status})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

/* ========== Auth ========== */

func (m *MemoryStore) CreateLoginChallenge(ctx context.Context, ch *models.LoginChallenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.challenges[ch.ID]; ok {
		return models.ErrDuplicate
	}
	m.challenges[ch.ID] = *ch
	return nil
}

func (m *MemoryStore) GetLoginChallenge(ctx context.Context, id string) (*models.LoginChallenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.challenges[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &ch, nil
}

func (m *MemoryStore) UseLoginChallenge(ctx context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.challenges[id]
	if !ok || ch.UsedAt != nil {
		return false, nil
	}
	ch.UsedAt = &at
	m.challenges[id] = ch
	return true, nil
}

func (m *MemoryStore) RevokeToken(ctx context.Context, rt *models.RevokedToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.revoked[rt.JTI]; !ok {
		m.revoked[rt.JTI] = *rt
	}
	return nil
}

func (m *MemoryStore) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

func (m *MemoryStore) PurgeExpiredAuth(ctx context.Context, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.challenges {
		if ch.ExpiresAt.Before(now) {
			delete(m.challenges, id)
		}
	}
	for id, rt := range m.revoked {
		if rt.ExpiresAt.Before(now) {
			delete(m.revoked, id)
		}
	}
	return nil
}

/* ========== Export jobs ========== */

func (m *MemoryStore) CreateExportJob(ctx context.Context, job *models.ExportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	job.CreatedAt, job.UpdatedAt = now, now
	m.exports[job.JobID] = *job
	return nil
}

func (m *MemoryStore) GetExportJob(ctx context.Context, id string) (*models.ExportJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.exports[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &job, nil
}

func (m *MemoryStore) SaveExportJob(ctx context.Context, job *models.ExportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.UpdatedAt = time.Now()
	m.exports[job.JobID] = *job
	return nil
}
