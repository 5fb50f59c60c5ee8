package mirror

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"barkpark-backend/internal/db"
	"barkpark-backend/internal/event"
	"barkpark-backend/internal/model"
	"barkpark-backend/internal/store"
)

func newTestStore(t *testing.T) (store.Store, *gorm.DB) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gormDB.AutoMigrate(db.Models()...))
	return store.NewGormStore(gormDB), gormDB
}

func TestBuildDisplayName(t *testing.T) {
	cases := []struct {
		name  string
		owner model.Owner
		want  string
	}{
		{"first and last", model.Owner{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{"first alone is not enough", model.Owner{FirstName: "Ada"}, ""},
		{"last alone is not enough", model.Owner{LastName: "Lovelace"}, ""},
		{"whitespace trimmed", model.Owner{FirstName: "  Ada ", LastName: " Lovelace  "}, "Ada Lovelace"},
		{"falls back to display name", model.Owner{DisplayName: "dogfan42"}, "dogfan42"},
		{"half a name falls back to display name", model.Owner{FirstName: "Ada", DisplayName: "dogfan42"}, "dogfan42"},
		{"full name wins over display name", model.Owner{FirstName: "Ada", LastName: "Lovelace", DisplayName: "dogfan42"}, "Ada Lovelace"},
		{"empty owner", model.Owner{}, ""},
		{"long name capped at 60", model.Owner{DisplayName: strings.Repeat("x", 80)}, strings.Repeat("x", 60)},
		{"cap counts runes, not bytes", model.Owner{DisplayName: "a" + strings.Repeat("犬", 80)}, "a" + strings.Repeat("犬", 59)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildDisplayName(&tc.owner)
			assert.Equal(t, tc.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestMirrorWritesPublicProfile(t *testing.T) {
	s, gormDB := newTestStore(t)
	m := NewMirror(s)
	ctx := context.Background()

	after := &model.Owner{ID: "u1", FirstName: "Ada", LastName: "Lovelace", PhotoURL: " https://img.example/a.png "}
	require.NoError(t, m.Handle(ctx, event.OwnerWritten{OwnerID: "u1", After: after}))

	var p model.PublicProfile
	require.NoError(t, gormDB.First(&p, "owner_id = ?", "u1").Error)
	assert.Equal(t, "Ada Lovelace", p.DisplayName)
	assert.Equal(t, "https://img.example/a.png", p.PhotoURL)

	// A second write updates the same row.
	after.LastName = "L."
	require.NoError(t, m.Handle(ctx, event.OwnerWritten{OwnerID: "u1", After: after}))

	require.NoError(t, gormDB.First(&p, "owner_id = ?", "u1").Error)
	assert.Equal(t, "Ada L.", p.DisplayName)
}

func TestMirrorKeepsPhotoWhenClearedUpstream(t *testing.T) {
	s, gormDB := newTestStore(t)
	m := NewMirror(s)
	ctx := context.Background()

	after := &model.Owner{ID: "u1", FirstName: "Ada", LastName: "Lovelace", PhotoURL: "https://img.example/a.png"}
	require.NoError(t, m.Handle(ctx, event.OwnerWritten{OwnerID: "u1", After: after}))

	// A later write without a photo must not erase the mirrored one.
	after.PhotoURL = ""
	after.LastName = "L."
	require.NoError(t, m.Handle(ctx, event.OwnerWritten{OwnerID: "u1", After: after}))

	var p model.PublicProfile
	require.NoError(t, gormDB.First(&p, "owner_id = ?", "u1").Error)
	assert.Equal(t, "Ada L.", p.DisplayName, "the name update still lands")
	assert.Equal(t, "https://img.example/a.png", p.PhotoURL)
}

func TestMirrorDefaultsNamelessOwners(t *testing.T) {
	s, gormDB := newTestStore(t)
	m := NewMirror(s)
	ctx := context.Background()

	require.NoError(t, m.Handle(ctx, event.OwnerWritten{OwnerID: "u1", After: &model.Owner{ID: "u1"}}))

	var p model.PublicProfile
	require.NoError(t, gormDB.First(&p, "owner_id = ?", "u1").Error)
	assert.Equal(t, "User", p.DisplayName)
}

func TestMirrorDeletesProfileWithOwner(t *testing.T) {
	s, gormDB := newTestStore(t)
	m := NewMirror(s)
	ctx := context.Background()

	require.NoError(t, m.Handle(ctx, event.OwnerWritten{OwnerID: "u1", After: &model.Owner{ID: "u1", FirstName: "Ada"}}))
	require.NoError(t, m.Handle(ctx, event.OwnerWritten{OwnerID: "u1", Before: &model.Owner{ID: "u1"}, After: nil}))

	var count int64
	require.NoError(t, gormDB.Model(&model.PublicProfile{}).Count(&count).Error)
	assert.Zero(t, count)

	// Deleting an owner that never had a profile is not an error.
	require.NoError(t, m.Handle(ctx, event.OwnerWritten{OwnerID: "ghost", After: nil}))
}

func TestMirrorIgnoresOtherEvents(t *testing.T) {
	s, gormDB := newTestStore(t)
	m := NewMirror(s)

	require.NoError(t, m.Handle(context.Background(), event.PresenceCreated{ParkID: "p1", OwnerID: "u1"}))

	var count int64
	require.NoError(t, gormDB.Model(&model.PublicProfile{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestBackfill(t *testing.T) {
	s, gormDB := newTestStore(t)
	ctx := context.Background()

	owners := []model.Owner{
		{ID: "u1", Email: "u1@example.com", FirstName: "Ada", LastName: "Lovelace", PhotoURL: " https://img.example/a.png "},
		{ID: "u2", Email: "u2@example.com", DisplayName: "dogfan42"},
		{ID: "u3", Email: "u3@example.com"},
	}
	for i := range owners {
		require.NoError(t, gormDB.Create(&owners[i]).Error)
	}

	res, err := Backfill(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 3, res.Wrote)
	assert.Zero(t, res.Skipped)

	var profiles []model.PublicProfile
	require.NoError(t, gormDB.Order("owner_id").Find(&profiles).Error)
	require.Len(t, profiles, 3)
	assert.Equal(t, "Ada Lovelace", profiles[0].DisplayName)
	assert.Equal(t, "https://img.example/a.png", profiles[0].PhotoURL, "backfill trims like the live mirror")
	assert.Equal(t, "dogfan42", profiles[1].DisplayName)
	assert.Equal(t, "User", profiles[2].DisplayName)

	// Re-running is a pure overwrite, not a duplicate insert.
	res, err = Backfill(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)

	var count int64
	require.NoError(t, gormDB.Model(&model.PublicProfile{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}
