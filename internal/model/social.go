package model

import "time"

// Friendship links an owner to one of their friends. Rows are directional;
// a mutual friendship is two rows.
type Friendship struct {
	OwnerID   string    `gorm:"primaryKey;size:64"`
	FriendID  string    `gorm:"primaryKey;size:64"`
	CreatedAt time.Time `gorm:"not null"`
}

// ParkLike marks a park as one of an owner's favorites.
type ParkLike struct {
	OwnerID   string    `gorm:"primaryKey;size:64"`
	ParkID    string    `gorm:"primaryKey;size:64"`
	CreatedAt time.Time `gorm:"not null"`
}

// ChatMessage is a message posted to a park's chat.
type ChatMessage struct {
	ID        string    `gorm:"primaryKey;size:36"`
	ParkID    string    `gorm:"size:64;not null;index"`
	SenderID  string    `gorm:"size:64;not null"`
	Body      string    `gorm:"size:2048;not null"`
	CreatedAt time.Time `gorm:"not null"`
}
