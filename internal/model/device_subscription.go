package model

import "time"

// DeviceSubscription holds the information for one push subscription.
// Rows are deleted when the push service reports the endpoint permanently
// gone, so future sends skip it instead of retrying forever.
type DeviceSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	OwnerID   string    `gorm:"size:64;not null;index"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
