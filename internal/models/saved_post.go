package models

import "time"

// SavedPost marks a post bookmarked by a user
type SavedPost struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_saved_user_post"`
	PostID    string    `json:"post_id" gorm:"index;uniqueIndex:idx_saved_user_post;type:varchar(24)"`
	CreatedAt time.Time `json:"created_at"`
}
