package models

import "time"

// LoginChallenge lưu magic link đã phát; NonceHash là bcrypt của nonce trong token.
type LoginChallenge struct {
	ID        string     `gorm:"column:id;primaryKey;size:36"`
	Email     string     `gorm:"column:email;size:255;not null;index"`
	NonceHash string     `gorm:"column:nonce_hash;type:text;not null"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	UsedAt    *time.Time `gorm:"column:used_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (LoginChallenge) TableName() string {
	return "login_challenges"
}

// RevokedToken là danh sách chặn session token đã logout.
type RevokedToken struct {
	JTI       string    `gorm:"column:jti;primaryKey;size:36"`
	Email     string    `gorm:"column:email;size:255;not null"`
	RevokedAt time.Time `gorm:"column:revoked_at;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
