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

// UpsertOwner creates or replaces the profile fields of an owner row.
// Claims and the session watershed are managed by SaveOwnerClaims and are
// never touched here.
func (s *gormStore) UpsertOwner(ctx context.Context, o *model.Owner) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "first_name", "last_name", "display_name", "photo_url", "timezone", "updated_at",
		}),
	}).Create(o).Error
	if err != nil {
		return fmt.Errorf("failed to upsert owner %s: %w", o.ID, err)
	}
	return nil
}

// DeleteOwner removes the owner row and returns the prior state so callers
// can publish a deletion event carrying the before snapshot.
func (s *gormStore) DeleteOwner(ctx context.Context, id string) (model.Owner, bool, error) {
	prior, found, err := s.GetOwner(ctx, id)
	if err != nil || !found {
		return model.Owner{}, false, err
	}
	if err := s.db.WithContext(ctx).Delete(&model.Owner{ID: id}).Error; err != nil {
		return model.Owner{}, false, fmt.Errorf("failed to delete owner %s: %w", id, err)
	}
	return prior, true, nil
}

func (s *gormStore) GetOwner(ctx context.Context, id string) (model.Owner, bool, error) {
	var owner model.Owner
	err := s.db.WithContext(ctx).First(&owner, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Owner{}, false, nil
	}
	if err != nil {
		return model.Owner{}, false, fmt.Errorf("failed to get owner %s: %w", id, err)
	}
	return owner, true, nil
}

func (s *gormStore) GetOwnerByEmail(ctx context.Context, email string) (model.Owner, bool, error) {
	var owner model.Owner
	err := s.db.WithContext(ctx).First(&owner, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Owner{}, false, nil
	}
	if err != nil {
		return model.Owner{}, false, fmt.Errorf("failed to get owner by email: %w", err)
	}
	return owner, true, nil
}

// SaveOwnerClaims replaces the claims map and bumps the session watershed so
// tokens issued before invalidAfter stop validating.
func (s *gormStore) SaveOwnerClaims(ctx context.Context, id string, claims map[string]any, invalidAfter time.Time) error {
	res := s.db.WithContext(ctx).Model(&model.Owner{ID: id}).
		Select("claims", "sessions_invalid_after").
		Updates(model.Owner{Claims: claims, SessionsInvalidAfter: &invalidAfter})
	if res.Error != nil {
		return fmt.Errorf("failed to save claims for owner %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("owner %s not found", id)
	}
	return nil
}

func (s *gormStore) MarkEmailVerified(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&model.Owner{}).
		Where("id = ?", id).
		Update("email_verified", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark owner %s verified: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("owner %s not found", id)
	}
	return nil
}

func (s *gormStore) OwnersWithTimezone(ctx context.Context) ([]model.Owner, error) {
	var owners []model.Owner
	err := s.db.WithContext(ctx).
		Where("timezone <> ''").
		Find(&owners).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list owners with timezone: %w", err)
	}
	return owners, nil
}

// OwnerBatch returns up to limit owners with ids greater than afterID,
// ordered by id. Keyset pagination for the backfill stream.
func (s *gormStore) OwnerBatch(ctx context.Context, afterID string, limit int) ([]model.Owner, error) {
	var owners []model.Owner
	err := s.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id").
		Limit(limit).
		Find(&owners).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load owner batch after %q: %w", afterID, err)
	}
	return owners, nil
}

// UpsertPublicProfile merge-writes the mirror row. An empty photo URL is
// left out of the update so it never erases a previously mirrored photo.
func (s *gormStore) UpsertPublicProfile(ctx context.Context, p model.PublicProfile) error {
	cols := []string{"display_name", "updated_at"}
	if p.PhotoURL != "" {
		cols = append(cols, "photo_url")
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("failed to upsert public profile for %s: %w", p.OwnerID, err)
	}
	return nil
}

func (s *gormStore) DeletePublicProfile(ctx context.Context, ownerID string) error {
	// Deleting a missing profile is fine; the mirror may race its source.
	err := s.db.WithContext(ctx).Delete(&model.PublicProfile{OwnerID: ownerID}).Error
	if err != nil {
		return fmt.Errorf("failed to delete public profile for %s: %w", ownerID, err)
	}
	return nil
}

func (s *gormStore) FriendIDs(ctx context.Context, ownerID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("owner_id = ?", ownerID).
		Pluck("friend_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list friends of %s: %w", ownerID, err)
	}
	return ids, nil
}

func (s *gormStore) LikesPark(ctx context.Context, ownerID, parkID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ParkLike{}).
		Where("owner_id = ? AND park_id = ?", ownerID, parkID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check park like: %w", err)
	}
	return count > 0, nil
}

func (s *gormStore) CreateChatMessage(ctx context.Context, m *model.ChatMessage) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

func (s *gormStore) SubscriptionsForOwner(ctx context.Context, ownerID string) ([]model.DeviceSubscription, error) {
	var subs []model.DeviceSubscription
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions for %s: %w", ownerID, err)
	}
	return subs, nil
}

func (s *gormStore) UpsertSubscription(ctx context.Context, sub model.DeviceSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner_id", "p256dh", "auth"}),
	}).Create(&sub).Error
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (model.DeviceSubscription, bool, error) {
	var sub model.DeviceSubscription
	err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DeviceSubscription{}, false, nil
	}
	if err != nil {
		return model.DeviceSubscription{}, false, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, true, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	err := s.db.WithContext(ctx).Delete(&model.DeviceSubscription{Endpoint: endpoint}).Error
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}
