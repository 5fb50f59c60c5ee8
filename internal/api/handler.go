package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"barkpark-backend/internal/event"
	"barkpark-backend/internal/identity"
	"barkpark-backend/internal/presence"
	"barkpark-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	presence *presence.Service
	identity *identity.Service
	bus      event.Publisher
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, p *presence.Service, id *identity.Service, bus event.Publisher, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    s,
		presence: p,
		identity: id,
		bus:      bus,
		webpush:  webpushOptions,
	}
}
