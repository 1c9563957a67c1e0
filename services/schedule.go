package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ndhu-booking/room-booking-server/models"
)

const (
	firstHour = 6
	lastHour  = 21
)

type RoomReader interface {
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
}

type SlotMarkReader interface {
	SlotMarks(ctx context.Context, roomID, from, to string) ([]models.SlotMark, error)
}

type Week struct {
	RoomID         string              `json:"roomId"`
	Days           []string            `json:"days"`
	TimeSlots      []string            `json:"timeSlots"`
	BookedSlots    map[string][]string `json:"bookedSlots"`
	PendingSlots   map[string][]string `json:"pendingSlots"`
	ReviewingSlots map[string][]string `json:"reviewingSlots"`
}

type ScheduleService struct {
	rooms RoomReader
	slots SlotMarkReader
}

func NewScheduleService(rooms RoomReader, slots SlotMarkReader) *ScheduleService {
	return &ScheduleService{rooms: rooms, slots: slots}
}

// TimeSlots trả về 16 nhãn từ 06:00 tới 21:00.
func TimeSlots() []string {
	out := make([]string, 0, lastHour-firstHour+1)
	for h := firstHour; h <= lastHour; h++ {
		out = append(out, fmt.Sprintf("%02d:00", h))
	}
	return out
}

// WeekDays trả về 7 ngày bắt đầu từ thứ Hai của tuần chứa anchor.
func WeekDays(anchor string) ([]string, error) {
	d, err := parseDate(anchor)
	if err != nil {
		return nil, ErrInvalidDate
	}
	offset := (int(d.Weekday()) + 6) % 7
	monday := d.AddDate(0, 0, -offset)

	days := make([]string, 7)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i).Format(dateLayout)
	}
	return days, nil
}

// Week dựng lưới lịch tuần của một phòng; tính lại từ DB mỗi lần gọi.
func (s *ScheduleService) Week(ctx context.Context, roomID, date string) (*Week, error) {
	roomID = strings.TrimSpace(roomID)
	date = strings.TrimSpace(date)
	if roomID == "" || date == "" {
		return nil, ErrMissingScheduleParams
	}
	days, err := WeekDays(date)
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.GetRoom(ctx, roomID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if !room.IsActive {
		return nil, ErrRoomNotFound
	}

	marks, err := s.slots.SlotMarks(ctx, roomID, days[0], days[6])
	if err != nil {
		return nil, err
	}

	week := &Week{
		RoomID:         roomID,
		Days:           days,
		TimeSlots:      TimeSlots(),
		BookedSlots:    emptyBuckets(days),
		PendingSlots:   emptyBuckets(days),
		ReviewingSlots: emptyBuckets(days),
	}
	for _, m := range marks {
		var bucket map[string][]string
		switch m.Status {
		case models.StatusConfirmed:
			bucket = week.BookedSlots
		case models.StatusPending:
			bucket = week.PendingSlots
		case models.StatusReviewing:
			bucket = week.ReviewingSlots
		default:
			continue
		}
		list, ok := bucket[m.Date]
		if !ok || contains(list, m.StartTime) {
			continue
		}
		bucket[m.Date] = append(list, m.StartTime)
	}
	return week, nil
}

func emptyBuckets(days []string) map[string][]string {
	b := make(map[string][]string, len(days))
	for _, d := range days {
		b[d] = []string{}
	}
	return b
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
