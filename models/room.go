package models

import "time"

type Room struct {
	RoomID    string    `gorm:"column:room_id;primaryKey;size:50" json:"roomId"`
	RoomName  string    `gorm:"column:room_name;size:100;not null" json:"roomName"`
	Location  string    `gorm:"column:location;size:255" json:"location"`
	Capacity  int       `gorm:"column:capacity;not null;default:0" json:"capacity"`
	Order     int       `gorm:"column:display_order;not null;default:0" json:"order"`
	IsActive  bool      `gorm:"column:is_active;not null" json:"isActive"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Room) TableName() string {
	return "rooms"
}

// DisplayName dùng cho dropdown phía frontend.
func (r Room) DisplayName() string {
	if r.Location == "" {
		return r.RoomName
	}
	return r.RoomName + " (" + r.Location + ")"
}
