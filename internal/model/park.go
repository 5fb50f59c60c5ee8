package model

import "time"

// Park represents a dog park that owners can check into.
//
// UserCount is owned by the reconciliation engine: it is only ever moved by
// atomic ±1 updates driven by presence creation/deletion, never set from a
// client-supplied value.
type Park struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"size:256;not null"`
	UserCount int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
