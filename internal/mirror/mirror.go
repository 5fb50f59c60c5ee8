// Package mirror maintains public_profiles as a non-sensitive projection of
// the owners table.
package mirror

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"barkpark-backend/internal/event"
	"barkpark-backend/internal/model"
	"barkpark-backend/internal/store"
)

const maxDisplayNameLen = 60

// BuildDisplayName assembles the public display name: first+last only when
// both are set, otherwise the owner's free-form display name, capped at 60
// runes.
func BuildDisplayName(o *model.Owner) string {
	first := strings.TrimSpace(o.FirstName)
	last := strings.TrimSpace(o.LastName)

	name := strings.TrimSpace(o.DisplayName)
	if first != "" && last != "" {
		name = first + " " + last
	}

	if utf8.RuneCountInString(name) > maxDisplayNameLen {
		name = string([]rune(name)[:maxDisplayNameLen])
	}
	return name
}

// profileFor builds the mirror row for an owner. Both write paths (event
// handler and backfill) go through here so they agree on defaulting and
// trimming.
func profileFor(ownerID string, o *model.Owner) model.PublicProfile {
	name := BuildDisplayName(o)
	if name == "" {
		name = "User"
	}
	return model.PublicProfile{
		OwnerID:     ownerID,
		DisplayName: name,
		PhotoURL:    strings.TrimSpace(o.PhotoURL),
		UpdatedAt:   time.Now().UTC(),
	}
}

// Mirror reacts to owner writes.
type Mirror struct {
	store store.Store
}

// NewMirror creates the profile mirror handler.
func NewMirror(s store.Store) *Mirror {
	return &Mirror{store: s}
}

func (m *Mirror) Name() string { return "profile-mirror" }

// Handle mirrors an owner write into public_profiles. A deleted owner takes
// the public profile with it; a missing profile on delete is ignored.
func (m *Mirror) Handle(ctx context.Context, ev event.Event) error {
	e, ok := ev.(event.OwnerWritten)
	if !ok {
		return nil
	}

	if e.After == nil {
		return m.store.DeletePublicProfile(ctx, e.OwnerID)
	}

	return m.store.UpsertPublicProfile(ctx, profileFor(e.OwnerID, e.After))
}
