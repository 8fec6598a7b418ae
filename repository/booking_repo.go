package repository

import (
	"context"
	"fmt"
	"time"

	"parkingapp/models"

	"gorm.io/gorm"
)

type bookingRepository struct {
	db *gorm.DB
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return fmt.Errorf("create booking: %w", translateError(err))
	}
	return nil
}

func (r *bookingRepository) FindOpen(ctx context.Context, slotID, accountID uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("slot_id = ? AND account_id = ? AND end_time IS NULL", slotID, accountID).
		Order("booking_id DESC").
		Take(&booking).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &booking, nil
}

func (r *bookingRepository) FindLatestBySlot(ctx context.Context, slotID uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("slot_id = ?", slotID).
		Order("start_time DESC, booking_id DESC").
		Take(&booking).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &booking, nil
}

func (r *bookingRepository) ListByAccount(ctx context.Context, accountID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("booking_id DESC").
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("list bookings of account %d: %w", accountID, err)
	}
	return bookings, nil
}

func (r *bookingRepository) ListAll(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := r.db.WithContext(ctx).Order("booking_id").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) Close(ctx context.Context, bookingID uint, endTime time.Time, cost float64) error {
	res := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("booking_id = ? AND end_time IS NULL", bookingID).
		Updates(map[string]any{
			"end_time":     endTime,
			"cost_charged": cost,
		})
	if res.Error != nil {
		return fmt.Errorf("close booking %d: %w", bookingID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

func (r *bookingRepository) DetachSlots(ctx context.Context, slotIDs []uint) error {
	if len(slotIDs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("slot_id IN ?", slotIDs).
		Update("slot_id", gorm.Expr("NULL")).Error; err != nil {
		return fmt.Errorf("detach bookings from slots %v: %w", slotIDs, err)
	}
	return nil
}

func (r *bookingRepository) HasStartedSince(ctx context.Context, accountID uint, since time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("account_id = ? AND start_time >= ?", accountID, since).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count recent bookings of account %d: %w", accountID, err)
	}
	return count > 0, nil
}

func (r *bookingRepository) TotalRevenue(ctx context.Context) (float64, error) {
	var total float64
	if err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("cost_charged > 0").
		Select("COALESCE(SUM(cost_charged), 0)").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum revenue: %w", err)
	}
	return total, nil
}

// RevenuePerFacility only sees bookings whose slot still exists.
func (r *bookingRepository) RevenuePerFacility(ctx context.Context) ([]models.FacilityRevenue, error) {
	var rows []models.FacilityRevenue
	if err := r.db.WithContext(ctx).
		Table("facilities").
		Select("facilities.facility_id AS facility_id, facilities.place_label AS location_name, COALESCE(SUM(bookings.cost_charged), 0) AS revenue").
		Joins("JOIN slots ON slots.facility_id = facilities.facility_id").
		Joins("JOIN bookings ON bookings.slot_id = slots.slot_id").
		Group("facilities.facility_id, facilities.place_label").
		Order("facilities.facility_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("revenue per facility: %w", err)
	}
	return rows, nil
}
