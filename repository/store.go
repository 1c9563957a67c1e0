package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ndhu-booking/room-booking-server/models"
)

// Store là tầng lưu trữ chính trên gorm/PostgreSQL.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// translate đổi lỗi gorm sang lỗi chung trong models.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", models.ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", models.ErrInUse, err)
	}
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

/* ========== Rooms ========== */

func (s *Store) ListRooms(ctx context.Context, activeOnly bool) ([]models.Room, error) {
	var rooms []models.Room
	q := s.db.WithContext(ctx).Model(&models.Room{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("display_order ASC, room_id ASC").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

func (s *Store) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	var room models.Room
	if err := s.db.WithContext(ctx).First(&room, "room_id = ?", roomID).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

// RoomsInUse trả về các room_id trong ids đang có slot tham chiếu.
func (s *Store) RoomsInUse(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var used []string
	err := s.db.WithContext(ctx).Model(&models.Slot{}).
		Where("room_id IN ?", ids).
		Distinct().
		Pluck("room_id", &used).Error
	if err != nil {
		return nil, fmt.Errorf("rooms in use: %w", err)
	}
	return used, nil
}

func (s *Store) ReplaceRooms(ctx context.Context, rooms []models.Room, remove []string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rooms) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "room_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"room_name", "location", "capacity", "display_order", "is_active", "updated_at"}),
			}).Create(&rooms).Error
			if err != nil {
				return err
			}
		}
		if len(remove) > 0 {
			if err := tx.Where("room_id IN ?", remove).Delete(&models.Room{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err)
}

/* ========== Admins ========== */

func (s *Store) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	var admins []models.Admin
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&admins).Error; err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

func (s *Store) GetActiveAdmin(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", email, true).
		First(&admin).Error
	if err != nil {
		return nil, translate(err)
	}
	return &admin, nil
}

func (s *Store) ListReviewers(ctx context.Context) ([]models.Admin, error) {
	var admins []models.Admin
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND notify_review = ?", true, true).
		Order("id ASC").
		Find(&admins).Error
	if err != nil {
		return nil, fmt.Errorf("list reviewers: %w", err)
	}
	return admins, nil
}

func (s *Store) ReplaceAdmins(ctx context.Context, admins []models.Admin, remove []string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(remove) > 0 {
			if err := tx.Where("email IN ?", remove).Delete(&models.Admin{}).Error; err != nil {
				return err
			}
		}
		if len(admins) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "email"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "is_active", "notify_review", "updated_at"}),
			}).Create(&admins).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err)
}

/* ========== Applications & slots ========== */

// CreateApplication ghi đơn và toàn bộ slot trong một transaction.
func (s *Store) CreateApplication(ctx context.Context, app *models.Application) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(app).Error; err != nil {
			return err
		}
		if len(app.Slots) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&app.Slots).Error
	})
	return translate(err)
}

func (s *Store) FindConfirmedSlots(ctx context.Context, keys []models.SlotKey) ([]models.Slot, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	wanted := make(map[models.SlotKey]struct{}, len(keys))
	roomSet := map[string]struct{}{}
	dateSet := map[string]struct{}{}
	for _, k := range keys {
		wanted[k] = struct{}{}
		roomSet[k.RoomID] = struct{}{}
		dateSet[k.Date] = struct{}{}
	}

	var candidates []models.Slot
	err := s.db.WithContext(ctx).
		Where("status = ? AND room_id IN ? AND date IN ?", models.StatusConfirmed, setKeys(roomSet), setKeys(dateSet)).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("find confirmed slots: %w", err)
	}

	var out []models.Slot
	for _, slot := range candidates {
		if _, ok := wanted[slot.Key()]; ok {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *Store) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	var app models.Application
	err := s.db.WithContext(ctx).
		Preload("Slots", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC, start_time ASC") }).
		First(&app, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (s *Store) ListApplications(ctx context.Context, status string) ([]models.Application, error) {
	var apps []models.Application
	q := s.db.WithContext(ctx).
		Preload("Slots", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC, start_time ASC") })
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("submitted_at DESC").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// ListApplicationsSubmitted lấy đơn nộp trong [from, to).
func (s *Store) ListApplicationsSubmitted(ctx context.Context, from, to time.Time) ([]models.Application, error) {
	var apps []models.Application
	err := s.db.WithContext(ctx).
		Preload("Slots", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC, start_time ASC") }).
		Where("submitted_at >= ? AND submitted_at < ?", from, to).
		Order("submitted_at ASC").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("list applications for export: %w", err)
	}
	return apps, nil
}

// MarkApplicationVerified trả về true nếu lần gọi này là lần xác minh đầu tiên.
func (s *Store) MarkApplicationVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ? AND verified_at IS NULL", id).
		Update("verified_at", at)
	if res.Error != nil {
		return false, fmt.Errorf("mark verified: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Application{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("mark verified: %w", err)
	}
	if count == 0 {
		return false, models.ErrNotFound
	}
	return false, nil
}

// ApplyReview ghi trạng thái từng slot rồi trạng thái tổng của đơn, tất cả trong một transaction.
func (s *Store) ApplyReview(ctx context.Context, applicationID string, decisions []models.SlotDecision, status, note string, at time.Time) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range decisions {
			res := tx.Model(&models.Slot{}).
				Where("id = ? AND application_id = ?", d.SlotID, applicationID).
				Update("status", d.Status)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return tx.Model(&models.Application{}).
			Where("id = ?", applicationID).
			Updates(map[string]interface{}{
				"status":      status,
				"review_note": note,
				"reviewed_at": at,
			}).Error
	})
	return translate(err)
}

/* ========== Auth ========== */

func (s *Store) CreateLoginChallenge(ctx context.Context, ch *models.LoginChallenge) error {
	return translate(s.db.WithContext(ctx).Create(ch).Error)
}

func (s *Store) GetLoginChallenge(ctx context.Context, id string) (*models.LoginChallenge, error) {
	var ch models.LoginChallenge
	if err := s.db.WithContext(ctx).First(&ch, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &ch, nil
}

// UseLoginChallenge đánh dấu đã dùng; chỉ một request thắng nhờ điều kiện used_at IS NULL.
func (s *Store) UseLoginChallenge(ctx context.Context, id string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.LoginChallenge{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at)
	if res.Error != nil {
		return false, fmt.Errorf("use login challenge: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) RevokeToken(ctx context.Context, rt *models.RevokedToken) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rt).Error
	return translate(err)
}

func (s *Store) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return count > 0, nil
}

// PurgeExpiredAuth dọn challenge và denylist đã quá hạn.
func (s *Store) PurgeExpiredAuth(ctx context.Context, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expires_at < ?", now).Delete(&models.LoginChallenge{}).Error; err != nil {
			return err
		}
		return tx.Where("expires_at < ?", now).Delete(&models.RevokedToken{}).Error
	})
}

/* ========== Export jobs ========== */

func (s *Store) CreateExportJob(ctx context.Context, job *models.ExportJob) error {
	return translate(s.db.WithContext(ctx).Create(job).Error)
}

func (s *Store) GetExportJob(ctx context.Context, id string) (*models.ExportJob, error) {
	var job models.ExportJob
	if err := s.db.WithContext(ctx).First(&job, "job_id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

func (s *Store) SaveExportJob(ctx context.Context, job *models.ExportJob) error {
	return translate(s.db.WithContext(ctx).Save(job).Error)
}

func setKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
