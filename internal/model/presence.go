package model

import "time"

// Presence is the live "this owner is currently at this park" record.
// The composite primary key guarantees at most one row per (park, owner)
// pair at any instant. Rows are created on check-in and deleted on checkout
// or by the stale-presence sweeper.
type Presence struct {
	ParkID      string     `gorm:"primaryKey;size:64"`
	OwnerID     string     `gorm:"primaryKey;size:64"`
	CheckedInAt *time.Time // authoritative check-in time; nil on legacy rows
	CreatedAt   time.Time  `gorm:"not null"`
}

// EffectiveTimestamp returns the best available timestamp for staleness
// decisions: CheckedInAt when present, otherwise the row's write time.
// The second return is false when neither is usable.
func (p Presence) EffectiveTimestamp() (time.Time, bool) {
	if p.CheckedInAt != nil && !p.CheckedInAt.IsZero() {
		return *p.CheckedInAt, true
	}
	if !p.CreatedAt.IsZero() {
		return p.CreatedAt, true
	}
	return time.Time{}, false
}
