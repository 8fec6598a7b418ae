package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"parkingapp/logs"
	"parkingapp/models"
	"parkingapp/repository"
	"parkingapp/utils"
)

// reserveAttempts bounds retries when a concurrent reservation takes the
// chosen slot between selection and update.
const reserveAttempts = 3

// BookingService allocates slots and keeps the booking ledger.
type BookingService struct {
	store    repository.Store
	listings *ListingCache
	loc      *time.Location
	now      func() time.Time
}

// NewBookingService shows history timestamps in loc (UTC when nil).
func NewBookingService(store repository.Store, listings *ListingCache, loc *time.Location) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		store:    store,
		listings: listings,
		loc:      loc,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CalculateCharge bills every started hour, with a one hour minimum, and
// rounds to two decimals.
func CalculateCharge(start, end time.Time, hourlyRate float64) (float64, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("end time %s is before start time %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if hourlyRate <= 0 {
		return 0, fmt.Errorf("invalid hourly rate %.2f", hourlyRate)
	}
	hours := math.Ceil(end.Sub(start).Hours())
	if hours < 1 {
		hours = 1
	}
	return utils.Round2(hours * hourlyRate), nil
}

// Reserve occupies the lowest-id Available slot of the facility and opens a
// booking on it in one transaction.
func (s *BookingService) Reserve(ctx context.Context, accountID, facilityID uint, regNumber string) (*models.Booking, error) {
	regNumber = strings.ToUpper(strings.TrimSpace(regNumber))
	if facilityID == 0 || regNumber == "" {
		return nil, newError(ErrValidation, "facility_id and vehicle_no are required")
	}

	for attempt := 1; attempt <= reserveAttempts; attempt++ {
		var booking *models.Booking
		err := s.store.Transaction(ctx, func(tx repository.Store) error {
			facility, err := tx.Facilities().FindByID(ctx, facilityID)
			if errors.Is(err, repository.ErrNotFound) {
				return newError(ErrNotFound, "Facility not found")
			}
			if err != nil {
				return err
			}
			slot, err := tx.Slots().FindFirstAvailable(ctx, facilityID)
			if errors.Is(err, repository.ErrNotFound) {
				return newError(ErrCapacity, "No free slots available")
			}
			if err != nil {
				return err
			}
			if err := tx.Slots().Occupy(ctx, slot.SlotID, accountID, regNumber); err != nil {
				return err
			}
			slotID := slot.SlotID
			booking = &models.Booking{
				AccountID:         accountID,
				SlotID:            &slotID,
				StartTime:         s.now(),
				FacilitySnapshot:  facility.PlaceLabel,
				SlotSnapshot:      slot.SlotLabel,
				RegNumberSnapshot: regNumber,
			}
			return tx.Bookings().Create(ctx, booking)
		})
		if errors.Is(err, repository.ErrStaleState) {
			logs.Logger.Warnf("Reserve in facility %d lost a slot race (attempt %d/%d)", facilityID, attempt, reserveAttempts)
			continue
		}
		if err != nil {
			logs.Logger.Warnf("Failed to reserve in facility %d for account %d: %v", facilityID, accountID, err)
			return nil, domainOr(err, "reserve in facility %d", facilityID)
		}
		s.listings.Invalidate(ctx)
		logs.Logger.Infof("Booking %d opened: account %d, slot %d, vehicle %s", booking.BookingID, accountID, *booking.SlotID, regNumber)
		return booking, nil
	}
	return nil, newError(ErrCapacity, "No free slots available")
}

// Release closes the caller's open booking on the slot, charges it and
// frees the slot. Only the account that holds the booking may release it.
func (s *BookingService) Release(ctx context.Context, accountID, slotID uint) (*models.Booking, error) {
	if slotID == 0 {
		return nil, newError(ErrValidation, "slot_id is required")
	}

	var booking *models.Booking
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		slot, err := tx.Slots().FindByID(ctx, slotID)
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "Invalid slot ID")
		}
		if err != nil {
			return err
		}
		booking, err = tx.Bookings().FindOpen(ctx, slotID, accountID)
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "No active booking found for this spot/user")
		}
		if err != nil {
			return err
		}
		facility, err := tx.Facilities().FindByID(ctx, slot.FacilityID)
		if err != nil {
			return fmt.Errorf("facility %d of slot %d: %w", slot.FacilityID, slotID, err)
		}

		end := s.now()
		cost, err := CalculateCharge(booking.StartTime, end, facility.HourlyRate)
		if err != nil {
			return err
		}
		if err := tx.Bookings().Close(ctx, booking.BookingID, end, cost); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return newError(ErrNotFound, "No active booking found for this spot/user")
			}
			return err
		}
		if err := tx.Slots().Free(ctx, slotID); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return newError(ErrConflict, "Slot is not occupied")
			}
			return err
		}
		booking.EndTime = &end
		booking.CostCharged = cost
		return nil
	})
	if err != nil {
		logs.Logger.Warnf("Failed to release slot %d for account %d: %v", slotID, accountID, err)
		return nil, domainOr(err, "release slot %d", slotID)
	}
	s.listings.Invalidate(ctx)
	logs.Logger.Infof("Booking %d closed: slot %d, charged %.2f", booking.BookingID, slotID, booking.CostCharged)
	return booking, nil
}

// History lists the caller's bookings newest first. Live facility and slot
// data is preferred; snapshots cover slots that no longer exist.
func (s *BookingService) History(ctx context.Context, accountID uint) ([]models.BookingHistoryEntry, error) {
	bookings, err := s.store.Bookings().ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("history of account %d: %w", accountID, err)
	}
	lookup := newLiveLookup(s.store)
	entries := make([]models.BookingHistoryEntry, 0, len(bookings))
	for _, b := range bookings {
		slot, facility, err := lookup.resolve(ctx, b.SlotID)
		if err != nil {
			return nil, err
		}
		entry := models.BookingHistoryEntry{
			ID:              b.BookingID,
			SlotIDToRelease: b.SlotID,
			Facility:        b.FacilitySnapshot,
			Slot:            b.SlotSnapshot,
			Vehicle:         b.RegNumberSnapshot,
			Start:           b.StartTime.In(s.loc).Format(time.RFC3339),
			Released:        !b.IsOpen(),
			Rate:            "N/A",
			Cost:            b.CostCharged,
		}
		if slot != nil {
			entry.Slot = slot.SlotLabel
		}
		if facility != nil {
			entry.Facility = facility.PlaceLabel
			entry.Rate = facility.HourlyRate
		}
		if b.EndTime != nil {
			end := b.EndTime.In(s.loc).Format(time.RFC3339)
			entry.End = &end
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// liveLookup memoizes slot and facility reads while rendering one listing.
type liveLookup struct {
	store      repository.Store
	slots      map[uint]*models.Slot
	facilities map[uint]*models.Facility
}

func newLiveLookup(store repository.Store) *liveLookup {
	return &liveLookup{
		store:      store,
		slots:      map[uint]*models.Slot{},
		facilities: map[uint]*models.Facility{},
	}
}

// resolve returns nil values for a detached or deleted slot.
func (l *liveLookup) resolve(ctx context.Context, slotID *uint) (*models.Slot, *models.Facility, error) {
	if slotID == nil {
		return nil, nil, nil
	}
	slot, ok := l.slots[*slotID]
	if !ok {
		found, err := l.store.Slots().FindByID(ctx, *slotID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("load slot %d: %w", *slotID, err)
		}
		slot = found
		l.slots[*slotID] = slot
	}
	if slot == nil {
		return nil, nil, nil
	}
	facility, ok := l.facilities[slot.FacilityID]
	if !ok {
		found, err := l.store.Facilities().FindByID(ctx, slot.FacilityID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("load facility %d: %w", slot.FacilityID, err)
		}
		facility = found
		l.facilities[slot.FacilityID] = facility
	}
	return slot, facility, nil
}
