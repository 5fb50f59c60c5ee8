// Package ledger reconciles presence events into the visit ledger and the
// per-park occupancy counter.
package ledger

import (
	"context"
	"log"
	"time"

	"barkpark-backend/internal/event"
	"barkpark-backend/internal/store"
)

// Provenance tags written to visit records.
const (
	openedByCheckIn   = "checkin"
	closedByRecheckIn = "recheckin"
)

// Reconciler drives the visit lifecycle from presence events.
//
// The counter update and the ledger update are independent sub-operations of
// the same event: a failed ledger write does not undo the counter, and
// neither is retried here. Redelivered events converge because the counter
// update is commutative and closing an already-closed visit is a no-op.
type Reconciler struct {
	store store.Store
	now   func() time.Time
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(s store.Store) *Reconciler {
	return &Reconciler{store: s, now: time.Now}
}

func (r *Reconciler) Name() string { return "visit-ledger" }

// Handle reacts to presence creations and deletions; other events pass
// through untouched.
func (r *Reconciler) Handle(ctx context.Context, ev event.Event) error {
	switch e := ev.(type) {
	case event.PresenceCreated:
		return r.onCheckIn(ctx, e)
	case event.PresenceDeleted:
		return r.onCheckOut(ctx, e)
	}
	return nil
}

func (r *Reconciler) onCheckIn(ctx context.Context, e event.PresenceCreated) error {
	if err := r.store.AdjustUserCount(ctx, e.ParkID, +1); err != nil {
		// Counter and ledger are siblings; the ledger still proceeds.
		log.Printf("increment user count failed for park %s: %v", e.ParkID, err)
	}

	at := r.now().UTC()
	if e.After.CheckedInAt != nil {
		at = e.After.CheckedInAt.UTC()
	}

	// A visit left open by a missed checkout is closed before the new one
	// opens, so the pair never accumulates open entries.
	if _, err := r.store.CloseLatestOpenVisit(ctx, e.ParkID, e.OwnerID, closedByRecheckIn, at); err != nil {
		return err
	}
	if _, err := r.store.OpenVisit(ctx, e.ParkID, e.OwnerID, at, openedByCheckIn); err != nil {
		return err
	}
	return nil
}

func (r *Reconciler) onCheckOut(ctx context.Context, e event.PresenceDeleted) error {
	if err := r.store.AdjustUserCount(ctx, e.ParkID, -1); err != nil {
		log.Printf("decrement user count failed for park %s: %v", e.ParkID, err)
	}

	closedBy := e.Cause
	if closedBy == "" {
		closedBy = event.CauseCheckout
	}
	_, err := r.store.CloseLatestOpenVisit(ctx, e.ParkID, e.OwnerID, closedBy, r.now().UTC())
	return err
}
