// Package presence is the single entry point for presence mutations. Every
// check-in and every checkout — manual, re-check-in overwrite, or sweep —
// goes through here, so the reconciliation handlers see one uniform event
// stream regardless of what caused the mutation.
package presence

import (
	"context"
	"time"

	"barkpark-backend/internal/event"
	"barkpark-backend/internal/model"
	"barkpark-backend/internal/store"
)

// Service wraps the store's presence operations and publishes the
// corresponding events.
type Service struct {
	store store.Store
	bus   event.Publisher
}

// NewService creates a presence service publishing to the given bus.
func NewService(s store.Store, bus event.Publisher) *Service {
	return &Service{store: s, bus: bus}
}

// CheckIn records the owner at the park and publishes PresenceCreated.
// A re-check-in while a presence row still exists overwrites the row and is
// still delivered as a creation; no deletion event fires for the overwritten
// row, so the occupancy counter picks up an extra increment. That matches
// the reference behavior (see TestRecheckInWithoutCheckout).
func (s *Service) CheckIn(ctx context.Context, parkID, ownerID string, at time.Time) error {
	replaced, err := s.store.CheckIn(ctx, parkID, ownerID, at)
	if err != nil {
		return err
	}
	s.bus.Publish(event.PresenceCreated{
		ParkID:   parkID,
		OwnerID:  ownerID,
		After:    model.Presence{ParkID: parkID, OwnerID: ownerID, CheckedInAt: &at},
		Replaced: replaced,
	})
	return nil
}

// CheckOut deletes the presence row and publishes PresenceDeleted with the
// given cause. A missing row is an idempotent no-op: found is false and no
// event is published.
func (s *Service) CheckOut(ctx context.Context, parkID, ownerID, cause string) (bool, error) {
	prior, found, err := s.store.CheckOut(ctx, parkID, ownerID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	s.bus.Publish(event.PresenceDeleted{
		ParkID:  parkID,
		OwnerID: ownerID,
		Before:  prior,
		Cause:   cause,
	})
	return true, nil
}
