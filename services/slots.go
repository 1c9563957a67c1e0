package services

import (
	"fmt"
	"time"

	"github.com/ndhu-booking/room-booking-server/models"
	"github.com/ndhu-booking/room-booking-server/notify"
)

const dateLayout = "2006-01-02"

// parseDate chuẩn hoá ngày về dạng YYYY-MM-DD.
func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// hourWindow trả về giờ bắt đầu/kết thúc của ô một tiếng chứa thời điểm đã chọn.
// Ô 23:00 kết thúc lúc 00:00.
func hourWindow(hhmm string) (start, end string, err error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", "", err
	}
	h := t.Hour()
	return fmt.Sprintf("%02d:00", h), fmt.Sprintf("%02d:00", (h+1)%24), nil
}

func slotLines(slots []models.Slot) []notify.SlotLine {
	lines := make([]notify.SlotLine, 0, len(slots))
	for _, s := range slots {
		lines = append(lines, notify.SlotLine{
			Date:   s.Date,
			Start:  s.StartTime,
			End:    s.EndTime,
			Room:   s.RoomID,
			Status: s.Status,
		})
	}
	return lines
}
