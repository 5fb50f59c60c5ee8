package sweeper

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"barkpark-backend/config"
	"barkpark-backend/internal/db"
	"barkpark-backend/internal/event"
	"barkpark-backend/internal/ledger"
	"barkpark-backend/internal/model"
	"barkpark-backend/internal/presence"
	"barkpark-backend/internal/store"
)

func newTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gormDB.AutoMigrate(db.Models()...))
	return gormDB
}

// syncBus delivers events inline so tests observe handler effects
// deterministically.
type syncBus struct {
	handlers []event.Handler
}

func (b *syncBus) Publish(ev event.Event) {
	for _, h := range b.handlers {
		_ = h.Handle(context.Background(), ev)
	}
}

func TestIsAbandoned(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	staleAfter := 3 * time.Hour
	futureWindow := 12 * time.Hour

	ts := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	testCases := []struct {
		name     string
		presence model.Presence
		expected bool
	}{
		{"4 hours old is stale", model.Presence{CheckedInAt: ts(-4 * time.Hour)}, true},
		{"2 hours old is kept", model.Presence{CheckedInAt: ts(-2 * time.Hour)}, false},
		{"exactly at threshold is kept", model.Presence{CheckedInAt: ts(-3 * time.Hour)}, false},
		{"13 hours in the future is implausible", model.Presence{CheckedInAt: ts(13 * time.Hour)}, true},
		{"11 hours in the future is tolerated", model.Presence{CheckedInAt: ts(11 * time.Hour)}, false},
		{"no check-in time falls back to created_at", model.Presence{CreatedAt: now.Add(-4 * time.Hour)}, true},
		{"fresh created_at fallback is kept", model.Presence{CreatedAt: now.Add(-time.Hour)}, false},
		{"no usable timestamp at all is swept", model.Presence{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsAbandoned(tc.presence, now, staleAfter, futureWindow))
		})
	}
}

func TestSweepOnce(t *testing.T) {
	gormDB := newTestDB(t)
	s := store.NewGormStore(gormDB)
	ctx := context.Background()

	bus := &syncBus{handlers: []event.Handler{ledger.NewReconciler(s)}}
	presenceSvc := presence.NewService(s, bus)

	cfg := &config.SweeperConfig{
		Enabled:      true,
		StaleAfter:   3 * time.Hour,
		FutureWindow: 12 * time.Hour,
	}
	svc := NewService(cfg, s, presenceSvc)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	require.NoError(t, gormDB.Create(&model.Park{ID: "p1", Name: "Park p1"}).Error)

	// Seed through the presence service so each occupant has an open visit
	// and a counter increment, exactly like a real check-in.
	seed := func(owner string, at time.Time) {
		require.NoError(t, presenceSvc.CheckIn(ctx, "p1", owner, at))
	}
	seed("stale", now.Add(-4*time.Hour))
	seed("fresh", now.Add(-30*time.Minute))
	seed("future", now.Add(13*time.Hour))

	var park model.Park
	require.NoError(t, gormDB.First(&park, "id = ?", "p1").Error)
	require.Equal(t, 3, park.UserCount)

	svc.SweepOnce(ctx)

	var remaining []model.Presence
	require.NoError(t, gormDB.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].OwnerID)

	// Swept occupants went through the normal close-out path.
	require.NoError(t, gormDB.First(&park, "id = ?", "p1").Error)
	assert.Equal(t, 1, park.UserCount)

	var closed []model.Visit
	require.NoError(t, gormDB.Where("check_out_at IS NOT NULL").Find(&closed).Error)
	require.Len(t, closed, 2)
	for _, v := range closed {
		assert.Equal(t, event.CauseSweep, v.ClosedBy)
	}

	var open []model.Visit
	require.NoError(t, gormDB.Where("owner_id = ? AND check_out_at IS NULL", "fresh").Find(&open).Error)
	assert.Len(t, open, 1)
}

// Rows written behind the engine's back (no visit, no counter history) are
// still swept.
func TestSweepRowsWithoutLedgerState(t *testing.T) {
	gormDB := newTestDB(t)
	s := store.NewGormStore(gormDB)
	ctx := context.Background()

	bus := &syncBus{}
	presenceSvc := presence.NewService(s, bus)

	cfg := &config.SweeperConfig{
		Enabled:      true,
		StaleAfter:   3 * time.Hour,
		FutureWindow: 12 * time.Hour,
	}
	svc := NewService(cfg, s, presenceSvc)

	now := time.Now().UTC()
	svc.now = func() time.Time { return now }

	require.NoError(t, gormDB.Create(&model.Park{ID: "p1", Name: "Park p1"}).Error)
	old := now.Add(-5 * time.Hour)
	for _, owner := range []string{"a", "b", "c"} {
		require.NoError(t, gormDB.Create(&model.Presence{
			ParkID: "p1", OwnerID: owner, CheckedInAt: &old,
		}).Error)
	}

	svc.SweepOnce(ctx)

	var remaining int64
	require.NoError(t, gormDB.Model(&model.Presence{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
}
