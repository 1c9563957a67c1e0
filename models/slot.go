package models

type Slot struct {
	ID            string `gorm:"column:id;primaryKey;size:36" json:"id"`
	ApplicationID string `gorm:"column:application_id;size:36;not null;index" json:"applicationId"`
	RoomID        string `gorm:"column:room_id;size:50;not null;index:idx_slots_room_date,priority:1" json:"roomId"`
	Date          string `gorm:"column:date;size:10;not null;index:idx_slots_room_date,priority:2" json:"date"`
	StartTime     string `gorm:"column:start_time;size:5;not null" json:"startTime"`
	EndTime       string `gorm:"column:end_time;size:5;not null" json:"endTime"`
	Status        string `gorm:"column:status;size:20;not null;default:'pending'" json:"status"`

	Room *Room `gorm:"foreignKey:RoomID;references:RoomID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
}

func (Slot) TableName() string {
	return "slots"
}

// SlotKey xác định một ô giờ của một phòng.
type SlotKey struct {
	RoomID    string
	Date      string
	StartTime string
}

func (s Slot) Key() SlotKey {
	return SlotKey{RoomID: s.RoomID, Date: s.Date, StartTime: s.StartTime}
}

// SlotMark là dòng đọc gọn cho lịch tuần.
type SlotMark struct {
	Date      string `db:"date"`
	StartTime string `db:"start_time"`
	Status    string `db:"status"`
}
