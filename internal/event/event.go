package event

import "barkpark-backend/internal/model"

// Causes recorded on presence deletions. Every close-out funnels through the
// same deletion event; the cause is only provenance for the visit ledger.
const (
	CauseCheckout = "checkout"
	CauseSweep    = "sweep"
)

// Event is one document mutation delivered to subscribed handlers.
// Concrete types are tagged variants: exactly one of them describes any
// given mutation, and handlers type-switch on them.
type Event interface {
	isEvent()
}

// PresenceCreated fires when an owner checks into a park. When the owner was
// already checked in (re-check-in without a checkout), Replaced is true and
// no PresenceDeleted is delivered for the overwritten row.
type PresenceCreated struct {
	ParkID   string
	OwnerID  string
	After    model.Presence
	Replaced bool
}

// PresenceDeleted fires when a presence row is removed, whether by a manual
// checkout or by the stale-presence sweeper.
type PresenceDeleted struct {
	ParkID  string
	OwnerID string
	Before  model.Presence
	Cause   string
}

// OwnerWritten fires on any owner create/update/delete. Before is nil on
// create; After is nil on delete.
type OwnerWritten struct {
	OwnerID string
	Before  *model.Owner
	After   *model.Owner
}

// ChatMessageCreated fires when a message is posted to a park chat.
type ChatMessageCreated struct {
	ParkID    string
	MessageID string
	SenderID  string
}

func (PresenceCreated) isEvent()    {}
func (PresenceDeleted) isEvent()    {}
func (OwnerWritten) isEvent()       {}
func (ChatMessageCreated) isEvent() {}
