package models

import "time"

// Comment belongs to a MongoDB post, referenced by its hex id
type Comment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	PostID     string    `json:"post_id" gorm:"index;type:varchar(24)"`
	UserID     uint      `json:"user_id" gorm:"index"`
	Content    string    `json:"content"`
	LikesCount int       `json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

// CommentLike marks that a user liked a comment
type CommentLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CommentID uint      `json:"comment_id" gorm:"index;uniqueIndex:idx_comment_user"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_comment_user"`
	CreatedAt time.Time `json:"created_at"`
}
