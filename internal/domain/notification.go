package domain

import (
	"encoding/json"
	"time"
)

// Notification is one delivered domain event in a user's inbox. The inbox is
// the polling fallback; the websocket hub is the real-time channel. Delivery
// is at-least-once, so consumers must tolerate duplicates.
type Notification struct {
	ID        int64           `json:"id" gorm:"primaryKey"`
	UserID    int64           `json:"user_id" gorm:"not null;index:idx_notifications_user_unread"`
	Type      EventType       `json:"type" gorm:"type:varchar(40);not null"`
	Title     string          `json:"title"`
	Body      string          `json:"body,omitempty" gorm:"type:text"`
	Data      json.RawMessage `json:"data,omitempty" gorm:"type:text"`
	IsRead    bool            `json:"is_read" gorm:"not null;default:false;index:idx_notifications_user_unread"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
	CreatedAt time.Time       `json:"created_at" gorm:"index"`
}

func (Notification) TableName() string { return "notifications" }
