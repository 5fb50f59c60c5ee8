// Package recap sends each owner at most one "daily recap" push per local
// calendar day, inside a short evening delivery window.
package recap

import (
	"context"
	"fmt"
	"log"
	"time"

	"barkpark-backend/config"
	"barkpark-backend/internal/model"
	"barkpark-backend/internal/notification"
	"barkpark-backend/internal/store"
)

// Service is the recap scheduler. It runs far more often than it delivers:
// many runs observe the same owner inside the window, and the reservation
// insert decides which single run owns the send.
type Service struct {
	cfg   *config.RecapConfig
	store store.Store
	pool  *notification.WorkerPool
	now   func() time.Time
}

// NewService creates the recap scheduler.
func NewService(cfg *config.RecapConfig, s store.Store, pool *notification.WorkerPool) *Service {
	return &Service{cfg: cfg, store: s, pool: pool, now: time.Now}
}

// Run starts the scheduler loop and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("Recap scheduler is disabled. Not starting.")
		return
	}
	log.Println("Starting daily recap scheduler...")

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Recap scheduler shutting down.")
			return
		case <-timer.C:
			s.RunOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// RunOnce evaluates every owner with a timezone against the delivery window
// and sends recaps for the ones this run manages to reserve.
func (s *Service) RunOnce(ctx context.Context) {
	now := s.now().UTC()

	owners, err := s.store.OwnersWithTimezone(ctx)
	if err != nil {
		log.Printf("recap run aborted, cannot list owners: %v", err)
		return
	}

	for i := range owners {
		owner := &owners[i]

		loc, err := time.LoadLocation(owner.Timezone)
		if err != nil {
			log.Printf("recap: owner %s has bad timezone %q: %v", owner.ID, owner.Timezone, err)
			continue
		}
		local := now.In(loc)
		if !s.inWindow(local) {
			continue
		}

		// The reservation key stays on the UTC day so concurrent runs
		// agree on it regardless of timezone.
		day := model.DayKey(now)
		claimed, err := s.store.ReserveRecap(ctx, owner.ID, day)
		if err != nil {
			log.Printf("recap: reservation failed for %s: %v", owner.ID, err)
			continue
		}
		if !claimed {
			// Another run already owns this (owner, day).
			continue
		}

		s.deliver(ctx, owner.ID, day, local)
	}
}

// inWindow reports whether the owner's local time sits inside the daily
// delivery span.
func (s *Service) inWindow(local time.Time) bool {
	return local.Hour() == s.cfg.WindowStartHour && local.Minute() < s.cfg.WindowMinutes
}

// deliver recaps the owner's local calendar day: everything checked in
// since local midnight. Delivery happens at 21:00 local, which for owners
// west of UTC is already the next UTC day, so the span cannot come from the
// reservation's UTC day key.
func (s *Service) deliver(ctx context.Context, ownerID, day string, local time.Time) {
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	visits, err := s.store.ClosedVisitsForOwnerBetween(ctx, ownerID, dayStart.UTC(), local.UTC())
	if err != nil {
		log.Printf("recap: cannot load visits for %s: %v", ownerID, err)
		s.setStatus(ctx, ownerID, day, model.RecapStatusFailed)
		return
	}
	if len(visits) == 0 {
		// The reservation still stands so later runs skip the owner.
		s.setStatus(ctx, ownerID, day, model.RecapStatusSent)
		return
	}

	msg := buildMessage(visits, local.Format("2006-01-02"))
	if err := s.pool.SendToOwner(ctx, ownerID, msg); err != nil {
		log.Printf("recap: send failed for %s: %v", ownerID, err)
		s.setStatus(ctx, ownerID, day, model.RecapStatusFailed)
		return
	}
	s.setStatus(ctx, ownerID, day, model.RecapStatusSent)
}

func (s *Service) setStatus(ctx context.Context, ownerID, day, status string) {
	if err := s.store.SetRecapStatus(ctx, ownerID, day, status); err != nil {
		log.Printf("recap: cannot set status for %s on %s: %v", ownerID, day, err)
	}
}

func buildMessage(visits []model.Visit, day string) notification.Message {
	parks := make(map[string]struct{})
	totalMinutes := 0
	for _, v := range visits {
		parks[v.ParkID] = struct{}{}
		if v.DurationMinutes != nil {
			totalMinutes += *v.DurationMinutes
		}
	}

	body := fmt.Sprintf("You visited %d park(s) for %d minute(s) today.", len(parks), totalMinutes)
	return notification.Message{
		Title: "Your day at the park",
		Body:  body,
		Data: map[string]string{
			"day": day,
		},
	}
}
