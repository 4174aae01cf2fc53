package models

import "time"

// Notification types
const (
	NotificationFollow        = "follow"
	NotificationFollowRequest = "follow_request"
	NotificationLike          = "like"
	NotificationComment       = "comment"
	NotificationMessage       = "message"
)

// Notification is delivered to a single recipient
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	ActorID     uint      `json:"actor_id" gorm:"index"`
	Type        string    `json:"type" gorm:"type:varchar(32)"`
	Message     string    `json:"message"`
	PostID      string    `json:"post_id,omitempty" gorm:"type:varchar(24)"`
	IsRead      bool      `json:"is_read" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
}
