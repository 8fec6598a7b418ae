package repository

import (
	"context"
	"fmt"

	"parkingapp/models"

	"gorm.io/gorm"
)

type facilityRepository struct {
	db *gorm.DB
}

func (r *facilityRepository) Create(ctx context.Context, facility *models.Facility) error {
	if err := r.db.WithContext(ctx).Create(facility).Error; err != nil {
		return fmt.Errorf("create facility: %w", translateError(err))
	}
	return nil
}

func (r *facilityRepository) FindByID(ctx context.Context, id uint) (*models.Facility, error) {
	var facility models.Facility
	if err := r.db.WithContext(ctx).First(&facility, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &facility, nil
}

func (r *facilityRepository) List(ctx context.Context) ([]models.Facility, error) {
	var facilities []models.Facility
	if err := r.db.WithContext(ctx).Order("facility_id").Find(&facilities).Error; err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	return facilities, nil
}

func (r *facilityRepository) Update(ctx context.Context, facility *models.Facility) error {
	res := r.db.WithContext(ctx).Model(&models.Facility{}).
		Where("facility_id = ?", facility.FacilityID).
		Updates(map[string]any{
			"place_label": facility.PlaceLabel,
			"hourly_rate": facility.HourlyRate,
			"zipcode":     facility.Zipcode,
			"total_slots": facility.TotalSlots,
		})
	if res.Error != nil {
		return fmt.Errorf("update facility %d: %w", facility.FacilityID, res.Error)
	}
	return nil
}

func (r *facilityRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Facility{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete facility %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *facilityRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Facility{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count facilities: %w", err)
	}
	return count, nil
}
