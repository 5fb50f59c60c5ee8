package model

import "time"

// Visit is one append-only ledger entry recording a check-in/check-out span.
// A nil CheckOutAt means the visit is still open; for a given (park, owner)
// pair the engine keeps at most one open visit at a time.
type Visit struct {
	ID              string    `gorm:"primaryKey;size:36"`
	ParkID          string    `gorm:"size:64;not null;index:idx_visits_pair"`
	OwnerID         string    `gorm:"size:64;not null;index:idx_visits_pair"`
	CheckInAt       time.Time `gorm:"not null;index"`
	CheckOutAt      *time.Time
	DurationMinutes *int
	Day             string    `gorm:"size:10;not null;index"` // UTC calendar day of CheckInAt, YYYY-MM-DD
	OpenedBy        string    `gorm:"size:32"`
	ClosedBy        string    `gorm:"size:32"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// DayKey formats a timestamp as the UTC calendar-day grouping key.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
