package model

import "time"

// User is an account owning chats.
type User struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:80;uniqueIndex" json:"username"`
	Email        string     `gorm:"size:120;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"size:255" json:"-"`
	CreatedAt    *time.Time `json:"created_at"`
}

// Session is an opaque bearer token for one logged-in user.
type Session struct {
	ID        int64      `gorm:"primaryKey" json:"id"`
	UserID    int64      `gorm:"index" json:"user_id"`
	Token     string     `gorm:"size:64;uniqueIndex" json:"-"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt *time.Time `json:"created_at"`
}

// Chat is one conversation. DiagnosedLabel and State are written exactly once
// when the first image is classified (or fails); they are never overwritten.
type Chat struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	UserID         int64      `gorm:"index" json:"user_id"`
	ImagePath      *string    `gorm:"size:255" json:"image_path"`
	DiagnosedLabel *string    `gorm:"size:255" json:"diagnosed_label"`
	State          string     `gorm:"size:32;default:no_image" json:"state"`
	CreatedAt      *time.Time `json:"created_at"`
}

// Message is one chat turn. Role is user, assistant or image.
type Message struct {
	ID        int64      `gorm:"primaryKey" json:"id"`
	ChatID    int64      `gorm:"index" json:"chat_id"`
	Role      string     `gorm:"size:16" json:"role"`
	Content   string     `gorm:"type:text" json:"content"`
	CreatedAt *time.Time `json:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleImage     = "image"
)
