package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Visibility is the normalized privacy of an account. Older records carry two
// raw fields (is_private and a legacy privacy column); handlers must never
// branch on those directly and go through User.Visibility instead.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// User is an account stored in PostgreSQL
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex"`
	Username     string    `json:"username" gorm:"uniqueIndex"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Bio          string    `json:"bio"`
	AvatarURL    string    `json:"avatar_url"`
	CoverURL     string    `json:"cover_url"`
	IsPrivate    bool      `json:"is_private"`
	Privacy      string    `json:"-" gorm:"type:varchar(20);default:''"` // legacy column, "public"/"private"
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

// Visibility normalizes the two overlapping privacy fields. An account is
// private when either field says so.
func (u *User) Visibility() Visibility {
	if u.IsPrivate || u.Privacy == string(VisibilityPrivate) {
		return VisibilityPrivate
	}
	return VisibilityPublic
}

// UserCompact is the embedded author representation used inside list items
type UserCompact struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	IsPrivate   bool   `json:"is_private"`
	IsVerified  bool   `json:"is_verified"`
}

// ToCompact converts a User to its compact representation
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		IsPrivate:   u.Visibility() == VisibilityPrivate,
		IsVerified:  u.IsVerified,
	}
}

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=64"`
}

type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=1,max=64"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	AvatarURL   *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	CoverURL    *string `json:"cover_url,omitempty" validate:"omitempty,url"`
	IsPrivate   *bool   `json:"is_private,omitempty"`
}

// AccessClaims are custom claims carried by short-lived access tokens
type AccessClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// RefreshClaims are claims carried by long-lived refresh tokens. TokenID is
// used as the revocation key on logout.
type RefreshClaims struct {
	UserID  uint   `json:"user_id"`
	TokenID string `json:"jti"`
	jwt.RegisteredClaims
}
