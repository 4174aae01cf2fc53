package models

import "time"

// Like marks that a user liked a post
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"index;uniqueIndex:idx_post_user;type:varchar(24)"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_post_user"`
	CreatedAt time.Time `json:"created_at"`
}
