// Package sweeper deletes presence records left behind by abandoned
// sessions. It never touches the visit ledger itself: deletions go through
// the presence service, so a swept record takes the exact same close-out
// path as a manual checkout.
package sweeper

import (
	"context"
	"log"
	"time"

	"barkpark-backend/config"
	"barkpark-backend/internal/event"
	"barkpark-backend/internal/model"
	"barkpark-backend/internal/presence"
	"barkpark-backend/internal/store"
)

// Service runs the periodic stale-presence sweep.
type Service struct {
	cfg      *config.SweeperConfig
	store    store.Store
	presence *presence.Service
	now      func() time.Time
}

// NewService creates a sweeper.
func NewService(cfg *config.SweeperConfig, s store.Store, p *presence.Service) *Service {
	return &Service{cfg: cfg, store: s, presence: p, now: time.Now}
}

// Run starts the sweep loop and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("Sweeper is disabled. Not starting.")
		return
	}
	log.Println("Starting stale-presence sweeper...")

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sweeper shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// SweepOnce scans every park's presence records and checks out the abandoned
// ones. Each deletion is independent: a failure is logged and the sweep
// moves on to the next candidate.
func (s *Service) SweepOnce(ctx context.Context) {
	now := s.now().UTC()

	parks, err := s.store.ListParks(ctx)
	if err != nil {
		log.Printf("sweep aborted, cannot list parks: %v", err)
		return
	}

	var scanned, swept int
	for _, park := range parks {
		rows, err := s.store.ListPresence(ctx, park.ID)
		if err != nil {
			log.Printf("sweep skipping park %s: %v", park.ID, err)
			continue
		}
		for _, row := range rows {
			scanned++
			if !IsAbandoned(row, now, s.cfg.StaleAfter, s.cfg.FutureWindow) {
				continue
			}
			if _, err := s.presence.CheckOut(ctx, row.ParkID, row.OwnerID, event.CauseSweep); err != nil {
				log.Printf("sweep failed to check out %s at %s: %v", row.OwnerID, row.ParkID, err)
				continue
			}
			swept++
		}
	}

	if swept > 0 {
		log.Printf("sweep finished: scanned=%d swept=%d", scanned, swept)
	}
}

// IsAbandoned reports whether a presence record should be swept.
// A record is abandoned when its timestamp is older than staleAfter, or
// sits implausibly far in the future (clock-skew defect), or when the record
// carries no usable timestamp at all — an unreconstructible row fails toward
// cleanup rather than toward a phantom occupant that never leaves.
func IsAbandoned(p model.Presence, now time.Time, staleAfter, futureWindow time.Duration) bool {
	ts, ok := p.EffectiveTimestamp()
	if !ok {
		return true
	}
	if ts.After(now.Add(futureWindow)) {
		return true
	}
	return now.Sub(ts) > staleAfter
}
