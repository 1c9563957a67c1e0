package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ndhu-booking/room-booking-server/models"
)

// ScheduleReader đọc lịch qua pool sqlx riêng (lib/pq), tách khỏi pool ghi của gorm.
type ScheduleReader struct {
	db *sqlx.DB
}

func NewScheduleReader(db *sqlx.DB) *ScheduleReader {
	return &ScheduleReader{db: db}
}

// SlotMarks trả về slot chưa bị từ chối của một phòng trong khoảng ngày [from, to].
func (r *ScheduleReader) SlotMarks(ctx context.Context, roomID, from, to string) ([]models.SlotMark, error) {
	query := `
		SELECT
			date,
			start_time,
			status
		FROM slots
		WHERE room_id = $1
		AND date >= $2
		AND date <= $3
		AND status <> $4
		ORDER BY date ASC, start_time ASC
	`

	var marks []models.SlotMark
	if err := r.db.SelectContext(ctx, &marks, query, roomID, from, to, models.StatusRejected); err != nil {
		return nil, fmt.Errorf("failed to query slots for room %s: %w", roomID, err)
	}
	return marks, nil
}
