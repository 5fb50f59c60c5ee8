package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"barkpark-backend/internal/model"
)

// CloseLatestOpenVisit finds the open visit for the pair and closes it.
// No open visit is a no-op, not an error, which makes the close path safe to
// call any number of times: the second call finds nothing to close.
func (s *gormStore) CloseLatestOpenVisit(ctx context.Context, parkID, ownerID, closedBy string, closeTime time.Time) (bool, error) {
	var open model.Visit
	err := s.db.WithContext(ctx).
		Where("park_id = ? AND owner_id = ? AND check_out_at IS NULL", parkID, ownerID).
		Order("check_in_at DESC").
		First(&open).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to find open visit for %s at %s: %w", ownerID, parkID, err)
	}

	minutes := int(math.Round(closeTime.Sub(open.CheckInAt).Minutes()))
	if minutes < 0 {
		minutes = 0
	}

	// Column-scoped update so unrelated fields are never clobbered.
	res := s.db.WithContext(ctx).Model(&model.Visit{}).
		Where("id = ? AND check_out_at IS NULL", open.ID).
		Updates(map[string]any{
			"check_out_at":     closeTime,
			"duration_minutes": minutes,
			"closed_by":        closedBy,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to close visit %s: %w", open.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Another invocation closed it between our read and write.
		return false, nil
	}
	return true, nil
}

// OpenVisit appends a new open ledger entry for the pair. Callers attempt
// CloseLatestOpenVisit first so a missed prior checkout cannot leave more
// than one open entry behind.
func (s *gormStore) OpenVisit(ctx context.Context, parkID, ownerID string, checkInAt time.Time, openedBy string) (model.Visit, error) {
	visit := model.Visit{
		ID:        uuid.NewString(),
		ParkID:    parkID,
		OwnerID:   ownerID,
		CheckInAt: checkInAt,
		Day:       model.DayKey(checkInAt),
		OpenedBy:  openedBy,
	}
	if err := s.db.WithContext(ctx).Create(&visit).Error; err != nil {
		return model.Visit{}, fmt.Errorf("failed to open visit for %s at %s: %w", ownerID, parkID, err)
	}
	return visit, nil
}

func (s *gormStore) ListVisits(ctx context.Context, parkID, day string) ([]model.Visit, error) {
	q := s.db.WithContext(ctx).Where("park_id = ?", parkID)
	if day != "" {
		q = q.Where("day = ?", day)
	}
	var visits []model.Visit
	if err := q.Order("check_in_at DESC").Find(&visits).Error; err != nil {
		return nil, fmt.Errorf("failed to list visits for park %s: %w", parkID, err)
	}
	return visits, nil
}

// ClosedVisitsForOwnerBetween returns the owner's closed visits whose
// check-in falls in [from, to). The caller picks the span, so a day can be
// the owner's local calendar day rather than a UTC bucket.
func (s *gormStore) ClosedVisitsForOwnerBetween(ctx context.Context, ownerID string, from, to time.Time) ([]model.Visit, error) {
	var visits []model.Visit
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND check_in_at >= ? AND check_in_at < ? AND check_out_at IS NOT NULL", ownerID, from, to).
		Order("check_in_at").
		Find(&visits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list closed visits for %s: %w", ownerID, err)
	}
	return visits, nil
}

// ReserveRecap atomically claims the (owner, day) recap slot. The insert
// either lands (claimed) or conflicts with an existing reservation (another
// run got there first). There is no check-then-write window.
func (s *gormStore) ReserveRecap(ctx context.Context, ownerID, day string) (bool, error) {
	r := model.RecapReservation{
		OwnerID: ownerID,
		Day:     day,
		Status:  model.RecapStatusPending,
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&r)
	if res.Error != nil {
		return false, fmt.Errorf("failed to reserve recap for %s on %s: %w", ownerID, day, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) SetRecapStatus(ctx context.Context, ownerID, day, status string) error {
	err := s.db.WithContext(ctx).Model(&model.RecapReservation{}).
		Where("owner_id = ? AND day = ?", ownerID, day).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to set recap status for %s on %s: %w", ownerID, day, err)
	}
	return nil
}
