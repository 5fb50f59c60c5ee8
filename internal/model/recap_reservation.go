package model

import "time"

// Reservation statuses.
const (
	RecapStatusPending = "pending"
	RecapStatusSent    = "sent"
	RecapStatusFailed  = "failed"
)

// RecapReservation is the create-if-absent marker that guarantees at most one
// daily-recap send per owner per UTC day. The composite primary key is the
// concurrency primitive: the scheduler run that wins the insert owns the
// send; every other run observes the conflict and skips the owner.
type RecapReservation struct {
	OwnerID   string    `gorm:"primaryKey;size:64"`
	Day       string    `gorm:"primaryKey;size:10"` // UTC YYYY-MM-DD
	Status    string    `gorm:"size:16;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
