package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:120;not null" json:"name"`
	Email        string    `gorm:"size:190;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	AvatarURL    string    `gorm:"size:500" json:"avatar_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Message is immutable once created; never updated, never deleted.
// Media content lives in external blob storage, MediaRef is an opaque
// reference to it.
type Message struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ClientMsgID string    `gorm:"size:64;index" json:"client_msg_id"`
	SenderID    uint      `gorm:"index;not null" json:"sender_id"`
	ReceiverID  uint      `gorm:"index;not null" json:"receiver_id"`
	Kind        string    `gorm:"size:10;not null" json:"kind"` // "text" | "image" | "video" | "audio"
	Text        string    `gorm:"type:text" json:"text"`
	MediaRef    string    `gorm:"size:2000" json:"media_ref"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
