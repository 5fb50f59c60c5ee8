package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"barkpark-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Parks and the occupancy counter.
	ListParks(ctx context.Context) ([]model.Park, error)
	GetPark(ctx context.Context, id string) (model.Park, bool, error)
	AdjustUserCount(ctx context.Context, parkID string, delta int) error

	// Presence records.
	CheckIn(ctx context.Context, parkID, ownerID string, at time.Time) (replaced bool, err error)
	CheckOut(ctx context.Context, parkID, ownerID string) (model.Presence, bool, error)
	ListPresence(ctx context.Context, parkID string) ([]model.Presence, error)

	// Visit ledger.
	CloseLatestOpenVisit(ctx context.Context, parkID, ownerID, closedBy string, closeTime time.Time) (bool, error)
	OpenVisit(ctx context.Context, parkID, ownerID string, checkInAt time.Time, openedBy string) (model.Visit, error)
	ListVisits(ctx context.Context, parkID, day string) ([]model.Visit, error)
	ClosedVisitsForOwnerBetween(ctx context.Context, ownerID string, from, to time.Time) ([]model.Visit, error)

	// Daily recap reservations.
	ReserveRecap(ctx context.Context, ownerID, day string) (claimed bool, err error)
	SetRecapStatus(ctx context.Context, ownerID, day, status string) error

	// Owners and identity.
	UpsertOwner(ctx context.Context, o *model.Owner) error
	DeleteOwner(ctx context.Context, id string) (model.Owner, bool, error)
	GetOwner(ctx context.Context, id string) (model.Owner, bool, error)
	GetOwnerByEmail(ctx context.Context, email string) (model.Owner, bool, error)
	SaveOwnerClaims(ctx context.Context, id string, claims map[string]any, invalidAfter time.Time) error
	MarkEmailVerified(ctx context.Context, id string) error
	OwnersWithTimezone(ctx context.Context) ([]model.Owner, error)
	OwnerBatch(ctx context.Context, afterID string, limit int) ([]model.Owner, error)

	// Public profile mirror.
	UpsertPublicProfile(ctx context.Context, p model.PublicProfile) error
	DeletePublicProfile(ctx context.Context, ownerID string) error

	// Social graph and chat.
	FriendIDs(ctx context.Context, ownerID string) ([]string, error)
	LikesPark(ctx context.Context, ownerID, parkID string) (bool, error)
	CreateChatMessage(ctx context.Context, m *model.ChatMessage) error

	// Push subscriptions.
	SubscriptionsForOwner(ctx context.Context, ownerID string) ([]model.DeviceSubscription, error)
	UpsertSubscription(ctx context.Context, sub model.DeviceSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (model.DeviceSubscription, bool, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) ListParks(ctx context.Context) ([]model.Park, error) {
	var parks []model.Park
	if err := s.db.WithContext(ctx).Order("name").Find(&parks).Error; err != nil {
		return nil, fmt.Errorf("failed to list parks: %w", err)
	}
	return parks, nil
}

func (s *gormStore) GetPark(ctx context.Context, id string) (model.Park, bool, error) {
	var park model.Park
	err := s.db.WithContext(ctx).First(&park, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Park{}, false, nil
	}
	if err != nil {
		return model.Park{}, false, fmt.Errorf("failed to get park %s: %w", id, err)
	}
	return park, true, nil
}

// AdjustUserCount moves the park's occupancy counter by delta using a single
// commutative SQL update. Concurrent adjustments compose instead of losing
// updates the way a read-modify-write would.
func (s *gormStore) AdjustUserCount(ctx context.Context, parkID string, delta int) error {
	res := s.db.WithContext(ctx).Model(&model.Park{}).
		Where("id = ?", parkID).
		Update("user_count", gorm.Expr("user_count + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("failed to adjust user count for park %s: %w", parkID, res.Error)
	}
	return nil
}

// CheckIn writes the presence row for the pair, overwriting any existing row.
// The returned flag reports whether a row for the pair already existed.
func (s *gormStore) CheckIn(ctx context.Context, parkID, ownerID string, at time.Time) (bool, error) {
	var replaced bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Presence
		err := tx.First(&existing, "park_id = ? AND owner_id = ?", parkID, ownerID).Error
		switch {
		case err == nil:
			replaced = true
		case errors.Is(err, gorm.ErrRecordNotFound):
			replaced = false
		default:
			return err
		}

		row := model.Presence{
			ParkID:      parkID,
			OwnerID:     ownerID,
			CheckedInAt: &at,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "park_id"}, {Name: "owner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"checked_in_at"}),
		}).Create(&row).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to check in %s at %s: %w", ownerID, parkID, err)
	}
	return replaced, nil
}

// CheckOut removes the presence row for the pair. Absence is not an error:
// the second of two racing checkouts simply observes found == false.
func (s *gormStore) CheckOut(ctx context.Context, parkID, ownerID string) (model.Presence, bool, error) {
	var prior model.Presence
	err := s.db.WithContext(ctx).First(&prior, "park_id = ? AND owner_id = ?", parkID, ownerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Presence{}, false, nil
	}
	if err != nil {
		return model.Presence{}, false, fmt.Errorf("failed to load presence for %s at %s: %w", ownerID, parkID, err)
	}

	res := s.db.WithContext(ctx).
		Where("park_id = ? AND owner_id = ?", parkID, ownerID).
		Delete(&model.Presence{})
	if res.Error != nil {
		return model.Presence{}, false, fmt.Errorf("failed to check out %s at %s: %w", ownerID, parkID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the race to another checkout; treat as absent.
		return model.Presence{}, false, nil
	}
	return prior, true, nil
}

func (s *gormStore) ListPresence(ctx context.Context, parkID string) ([]model.Presence, error) {
	var rows []model.Presence
	if err := s.db.WithContext(ctx).Where("park_id = ?", parkID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list presence for park %s: %w", parkID, err)
	}
	return rows, nil
}
