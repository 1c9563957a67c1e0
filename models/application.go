package models

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
	// StatusReviewing chỉ còn ở dữ liệu cũ; luồng hiện tại không ghi trạng thái này.
	StatusReviewing = "reviewing"
)

type Application struct {
	ID           string     `gorm:"column:id;primaryKey;size:36" json:"id"`
	Name         string     `gorm:"column:name;size:100;not null" json:"name"`
	Email        string     `gorm:"column:email;size:255;not null;index" json:"email"`
	Organization string     `gorm:"column:organization;size:255" json:"organization"`
	Phone        string     `gorm:"column:phone;size:50" json:"phone"`
	Purpose      string     `gorm:"column:purpose;type:text;not null" json:"purpose"`
	RoomID       string     `gorm:"column:room_id;size:50;not null" json:"roomId"`
	SubmittedAt  time.Time  `gorm:"column:submitted_at;not null;index" json:"submittedAt"`
	Status       string     `gorm:"column:status;size:20;not null;default:'pending'" json:"status"`
	ReviewNote   string     `gorm:"column:review_note;type:text" json:"reviewNote"`
	ReviewedAt   *time.Time `gorm:"column:reviewed_at" json:"reviewedAt"`
	VerifiedAt   *time.Time `gorm:"column:verified_at" json:"verifiedAt"`

	Slots []Slot `gorm:"foreignKey:ApplicationID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"requested_slots"`
}

func (Application) TableName() string {
	return "applications"
}
