package models

import "time"

type Admin struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"column:email;size:255;unique;not null" json:"email"`
	Name         string    `gorm:"column:name;size:100;not null" json:"name"`
	IsActive     bool      `gorm:"column:is_active;not null" json:"isActive"`
	NotifyReview bool      `gorm:"column:notify_review;not null;default:false" json:"notifyReview"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Admin) TableName() string {
	return "admins"
}
