package model

import "time"

// Owner is a registered dog owner.
//
// Claims is an opaque claims map attached to the identity (the `admin` key
// gates the admin endpoints). SessionsInvalidAfter implements session
// invalidation: tokens issued before it are rejected.
type Owner struct {
	ID                   string         `gorm:"primaryKey;size:64"`
	Email                string         `gorm:"uniqueIndex;size:256"`
	EmailVerified        bool           `gorm:"not null;default:false"`
	FirstName            string         `gorm:"size:128"`
	LastName             string         `gorm:"size:128"`
	DisplayName          string         `gorm:"size:128"`
	PhotoURL             string         `gorm:"size:512"`
	Timezone             string         `gorm:"size:64"` // IANA name, used for the recap delivery window
	Claims               map[string]any `gorm:"serializer:json"`
	SessionsInvalidAfter *time.Time
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`
}

// PublicProfile is the non-sensitive mirror of an Owner, maintained by the
// profile mirror and readable by anyone.
type PublicProfile struct {
	OwnerID     string    `gorm:"primaryKey;size:64"`
	DisplayName string    `gorm:"size:60;not null"`
	PhotoURL    string    `gorm:"size:512"`
	UpdatedAt   time.Time `gorm:"not null"`
}
