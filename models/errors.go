package models

import "errors"

// Lỗi chung mà mọi store (gorm, memory) trả về để tầng service không phụ thuộc driver.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
	ErrInUse     = errors.New("record in use")
)

// SlotDecision là quyết định duyệt cho một slot.
type SlotDecision struct {
	SlotID string `json:"slotId"`
	Status string `json:"status"`
}
