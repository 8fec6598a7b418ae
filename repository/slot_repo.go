package repository

import (
	"context"
	"fmt"

	"parkingapp/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type slotRepository struct {
	db *gorm.DB
}

func (r *slotRepository) CreateBatch(ctx context.Context, slots []models.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&slots, 200).Error; err != nil {
		return fmt.Errorf("create %d slots: %w", len(slots), translateError(err))
	}
	return nil
}

func (r *slotRepository) FindByID(ctx context.Context, id uint) (*models.Slot, error) {
	var slot models.Slot
	if err := r.db.WithContext(ctx).First(&slot, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &slot, nil
}

func (r *slotRepository) ListByFacility(ctx context.Context, facilityID uint) ([]models.Slot, error) {
	var slots []models.Slot
	if err := r.db.WithContext(ctx).
		Where("facility_id = ?", facilityID).
		Order("slot_id").
		Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("list slots of facility %d: %w", facilityID, err)
	}
	return slots, nil
}

// FindFirstAvailable takes a row lock on the chosen slot. Rows locked by a
// concurrent reservation are skipped instead of waited on.
func (r *slotRepository) FindFirstAvailable(ctx context.Context, facilityID uint) (*models.Slot, error) {
	var slot models.Slot
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate, Options: clause.LockingOptionsSkipLocked}).
		Where("facility_id = ? AND slot_state = ?", facilityID, models.SlotAvailable).
		Order("slot_id").
		Take(&slot).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &slot, nil
}

func (r *slotRepository) ListAvailable(ctx context.Context, facilityID uint, limit int) ([]models.Slot, error) {
	var slots []models.Slot
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("facility_id = ? AND slot_state = ?", facilityID, models.SlotAvailable).
		Order("slot_id").
		Limit(limit).
		Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("list available slots of facility %d: %w", facilityID, err)
	}
	return slots, nil
}

func (r *slotRepository) Occupy(ctx context.Context, slotID, accountID uint, regNumber string) error {
	res := r.db.WithContext(ctx).Model(&models.Slot{}).
		Where("slot_id = ? AND slot_state = ?", slotID, models.SlotAvailable).
		Updates(map[string]any{
			"slot_state":          models.SlotOccupied,
			"assigned_account_id": accountID,
			"reg_number":          regNumber,
		})
	if res.Error != nil {
		return fmt.Errorf("occupy slot %d: %w", slotID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

func (r *slotRepository) Free(ctx context.Context, slotID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Slot{}).
		Where("slot_id = ? AND slot_state = ?", slotID, models.SlotOccupied).
		Updates(map[string]any{
			"slot_state":          models.SlotAvailable,
			"assigned_account_id": gorm.Expr("NULL"),
			"reg_number":          "",
		})
	if res.Error != nil {
		return fmt.Errorf("free slot %d: %w", slotID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

func (r *slotRepository) Delete(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Where("slot_id IN ? AND slot_state = ?", ids, models.SlotAvailable).
		Delete(&models.Slot{})
	if res.Error != nil {
		return fmt.Errorf("delete slots %v: %w", ids, res.Error)
	}
	if res.RowsAffected != int64(len(ids)) {
		return ErrStaleState
	}
	return nil
}

func (r *slotRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Slot{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count slots: %w", err)
	}
	return count, nil
}
