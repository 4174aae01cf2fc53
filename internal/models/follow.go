package models

import "time"

// FollowStatus is the state of a follow edge
type FollowStatus string

const (
	FollowPending  FollowStatus = "pending"
	FollowAccepted FollowStatus = "accepted"
)

// Follow is a directed follow edge. At most one edge exists per ordered
// (follower, following) pair, enforced by the unique index.
type Follow struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	FollowerID  uint         `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint         `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following"`
	Status      FollowStatus `json:"status" gorm:"type:varchar(20);default:'accepted';index"`
	CreatedAt   time.Time    `json:"created_at"`
}

// DesiredFollowStatus returns the status a new follow edge gets for the given
// target: private accounts require approval.
func DesiredFollowStatus(target *User) FollowStatus {
	if target.Visibility() == VisibilityPrivate {
		return FollowPending
	}
	return FollowAccepted
}

type CreateFollowRequest struct {
	FollowingID uint `json:"followingId" validate:"required"`
}

type UnfollowRequest struct {
	UserID uint `json:"userId"`
}
