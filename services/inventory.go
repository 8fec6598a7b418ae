package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"parkingapp/logs"
	"parkingapp/models"
	"parkingapp/repository"
)

// Slot detail timestamps, e.g. "05/03/2024" and "02:30:00 PM".
const (
	slotDateLayout = "02/01/2006"
	slotTimeLayout = "03:04:05 PM"
)

// MaxFacilitySlots bounds total_slots; a resize inserts its slots in one
// transaction.
const MaxFacilitySlots = 10000

var totalSlotsMessage = fmt.Sprintf("total_slots must be an integer between 0 and %d", MaxFacilitySlots)

type FacilityInput struct {
	PlaceLabel string
	HourlyRate float64
	Zipcode    string
	TotalSlots int
}

// FacilityPatch is a partial update; nil fields are left unchanged.
type FacilityPatch struct {
	PlaceLabel *string
	HourlyRate *float64
	Zipcode    *string
	TotalSlots *int
}

// InventoryService owns facilities and their slots.
type InventoryService struct {
	store    repository.Store
	listings *ListingCache
}

func NewInventoryService(store repository.Store, listings *ListingCache) *InventoryService {
	return &InventoryService{store: store, listings: listings}
}

func newSlots(facilityID uint, after, n int) []models.Slot {
	slots := make([]models.Slot, 0, n)
	for i := 1; i <= n; i++ {
		slots = append(slots, models.Slot{
			FacilityID: facilityID,
			SlotState:  models.SlotAvailable,
			SlotLabel:  strconv.Itoa(after + i),
		})
	}
	return slots
}

// maxNumericLabel ignores labels that are not plain integers.
func maxNumericLabel(slots []models.Slot) int {
	highest := 0
	for _, s := range slots {
		if n, err := strconv.Atoi(s.SlotLabel); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

func validateFacility(in FacilityInput) error {
	switch {
	case strings.TrimSpace(in.PlaceLabel) == "":
		return newError(ErrValidation, "place_label is required")
	case strings.TrimSpace(in.Zipcode) == "":
		return newError(ErrValidation, "zipcode is required")
	case in.HourlyRate <= 0:
		return newError(ErrValidation, "hourly_rate must be a positive number")
	case in.TotalSlots < 0 || in.TotalSlots > MaxFacilitySlots:
		return newError(ErrValidation, "%s", totalSlotsMessage)
	}
	return nil
}

// CreateFacility stores the facility together with slots "1".."N".
func (s *InventoryService) CreateFacility(ctx context.Context, in FacilityInput) (*models.Facility, error) {
	if err := validateFacility(in); err != nil {
		return nil, err
	}
	facility := &models.Facility{
		PlaceLabel: strings.TrimSpace(in.PlaceLabel),
		HourlyRate: in.HourlyRate,
		Zipcode:    strings.TrimSpace(in.Zipcode),
		TotalSlots: in.TotalSlots,
	}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Facilities().Create(ctx, facility); err != nil {
			return err
		}
		return tx.Slots().CreateBatch(ctx, newSlots(facility.FacilityID, 0, in.TotalSlots))
	})
	if err != nil {
		logs.Logger.Errorf("Failed to create facility %q: %v", in.PlaceLabel, err)
		return nil, fmt.Errorf("create facility: %w", err)
	}
	s.listings.Invalidate(ctx)
	logs.Logger.Infof("Facility %d created with %d slots", facility.FacilityID, facility.TotalSlots)
	return facility, nil
}

// UpdateFacility applies the patch and, when TotalSlots is set, resizes the
// slot set. Metadata and resize commit together.
func (s *InventoryService) UpdateFacility(ctx context.Context, id uint, patch FacilityPatch) (*models.Facility, error) {
	if patch.HourlyRate != nil && *patch.HourlyRate <= 0 {
		return nil, newError(ErrValidation, "hourly_rate must be a positive number")
	}
	if patch.TotalSlots != nil && (*patch.TotalSlots < 0 || *patch.TotalSlots > MaxFacilitySlots) {
		return nil, newError(ErrValidation, "%s", totalSlotsMessage)
	}

	var facility *models.Facility
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		facility, err = tx.Facilities().FindByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "Facility not found")
		}
		if err != nil {
			return err
		}

		if patch.PlaceLabel != nil && strings.TrimSpace(*patch.PlaceLabel) != "" {
			facility.PlaceLabel = strings.TrimSpace(*patch.PlaceLabel)
		}
		if patch.Zipcode != nil && strings.TrimSpace(*patch.Zipcode) != "" {
			facility.Zipcode = strings.TrimSpace(*patch.Zipcode)
		}
		if patch.HourlyRate != nil {
			facility.HourlyRate = *patch.HourlyRate
		}
		if patch.TotalSlots != nil {
			if err := resize(ctx, tx, facility.FacilityID, *patch.TotalSlots); err != nil {
				return err
			}
			facility.TotalSlots = *patch.TotalSlots
		}
		return tx.Facilities().Update(ctx, facility)
	})
	if err != nil {
		logs.Logger.Warnf("Failed to update facility %d: %v", id, err)
		return nil, domainOr(err, "update facility %d", id)
	}
	s.listings.Invalidate(ctx)
	logs.Logger.Infof("Facility %d updated (total_slots=%d)", facility.FacilityID, facility.TotalSlots)
	return facility, nil
}

// resize grows by appending labels after the highest numeric one, and
// shrinks by removing the oldest Available slots. Occupied slots are never
// removed.
func resize(ctx context.Context, tx repository.Store, facilityID uint, newTotal int) error {
	slots, err := tx.Slots().ListByFacility(ctx, facilityID)
	if err != nil {
		return err
	}
	diff := newTotal - len(slots)
	switch {
	case diff > 0:
		return tx.Slots().CreateBatch(ctx, newSlots(facilityID, maxNumericLabel(slots), diff))
	case diff < 0:
		remove := -diff
		free, err := tx.Slots().ListAvailable(ctx, facilityID, remove)
		if err != nil {
			return err
		}
		if len(free) < remove {
			return newError(ErrCapacity, "Can't reduce slots. Not enough available slots.")
		}
		ids := slotIDs(free)
		if err := tx.Bookings().DetachSlots(ctx, ids); err != nil {
			return err
		}
		if err := tx.Slots().Delete(ctx, ids); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return newError(ErrCapacity, "Can't reduce slots. Not enough available slots.")
			}
			return err
		}
	}
	return nil
}

// DeleteFacility removes the facility and all of its slots, provided none
// is occupied.
func (s *InventoryService) DeleteFacility(ctx context.Context, id uint) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Facilities().FindByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return newError(ErrNotFound, "Facility not found")
			}
			return err
		}
		slots, err := tx.Slots().ListByFacility(ctx, id)
		if err != nil {
			return err
		}
		for _, slot := range slots {
			if !slot.IsAvailable() {
				return newError(ErrConflict, "Cannot delete. Some slots are still occupied.")
			}
		}
		ids := slotIDs(slots)
		if err := tx.Bookings().DetachSlots(ctx, ids); err != nil {
			return err
		}
		if err := tx.Slots().Delete(ctx, ids); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return newError(ErrConflict, "Cannot delete. Some slots are still occupied.")
			}
			return err
		}
		return tx.Facilities().Delete(ctx, id)
	})
	if err != nil {
		logs.Logger.Warnf("Failed to delete facility %d: %v", id, err)
		return domainOr(err, "delete facility %d", id)
	}
	s.listings.Invalidate(ctx)
	logs.Logger.Infof("Facility %d deleted", id)
	return nil
}

func slotAt(ctx context.Context, repo repository.SlotRepository, facilityID uint, position int) (*models.Slot, error) {
	slots, err := repo.ListByFacility(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	if position < 1 || position > len(slots) {
		return nil, newError(ErrNotFound, "Slot not found")
	}
	return &slots[position-1], nil
}

// GetSlot describes the booking currently holding the slot at the 1-based
// position.
func (s *InventoryService) GetSlot(ctx context.Context, facilityID uint, position int) (*models.SlotDetail, error) {
	slot, err := slotAt(ctx, s.store.Slots(), facilityID, position)
	if err != nil {
		return nil, domainOr(err, "get slot %d/%d", facilityID, position)
	}
	if slot.IsAvailable() {
		return nil, newError(ErrConflict, "Slot is not occupied")
	}
	booking, err := s.store.Bookings().FindLatestBySlot(ctx, slot.SlotID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "No booking found")
	}
	if err != nil {
		return nil, fmt.Errorf("latest booking of slot %d: %w", slot.SlotID, err)
	}
	start := booking.StartTime.UTC()
	return &models.SlotDetail{
		SlotID:        slot.SlotID,
		CustomerID:    booking.AccountID,
		VehicleNumber: booking.RegNumberSnapshot,
		Date:          start.Format(slotDateLayout),
		Time:          start.Format(slotTimeLayout),
		Cost:          booking.CostCharged,
	}, nil
}

// DeleteSlot removes an Available slot by position and decrements the
// facility's declared total, floored at zero.
func (s *InventoryService) DeleteSlot(ctx context.Context, facilityID uint, position int) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		slot, err := slotAt(ctx, tx.Slots(), facilityID, position)
		if err != nil {
			return err
		}
		if !slot.IsAvailable() {
			return newError(ErrConflict, "Cannot delete occupied slot")
		}
		if err := tx.Bookings().DetachSlots(ctx, []uint{slot.SlotID}); err != nil {
			return err
		}
		if err := tx.Slots().Delete(ctx, []uint{slot.SlotID}); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return newError(ErrConflict, "Cannot delete occupied slot")
			}
			return err
		}
		facility, err := tx.Facilities().FindByID(ctx, facilityID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if facility.TotalSlots > 0 {
			facility.TotalSlots--
		}
		return tx.Facilities().Update(ctx, facility)
	})
	if err != nil {
		logs.Logger.Warnf("Failed to delete slot %d of facility %d: %v", position, facilityID, err)
		return domainOr(err, "delete slot %d/%d", facilityID, position)
	}
	s.listings.Invalidate(ctx)
	logs.Logger.Infof("Slot %d of facility %d deleted", position, facilityID)
	return nil
}

// ListFacilities serves the cached listing or rebuilds it from the store.
// Slot numbers are positions in the current slot order.
func (s *InventoryService) ListFacilities(ctx context.Context) ([]models.FacilityListing, error) {
	if cached, ok := s.listings.Get(ctx); ok {
		return cached, nil
	}

	facilities, err := s.store.Facilities().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	listing := make([]models.FacilityListing, 0, len(facilities))
	for _, f := range facilities {
		slots, err := s.store.Slots().ListByFacility(ctx, f.FacilityID)
		if err != nil {
			return nil, fmt.Errorf("list slots of facility %d: %w", f.FacilityID, err)
		}
		entry := models.FacilityListing{
			ID:         f.FacilityID,
			PlaceLabel: f.PlaceLabel,
			HourlyRate: f.HourlyRate,
			Zipcode:    f.Zipcode,
			TotalSlots: len(slots),
			Slots:      make([]models.SlotSummary, 0, len(slots)),
		}
		for i, slot := range slots {
			if slot.IsAvailable() {
				entry.AvailableSlots++
			} else {
				entry.OccupiedSlots++
			}
			entry.Slots = append(entry.Slots, models.SlotSummary{
				Number:     i + 1,
				Status:     slot.SlotState,
				FacilityID: f.FacilityID,
			})
		}
		listing = append(listing, entry)
	}
	s.listings.Set(ctx, listing)
	return listing, nil
}

func slotIDs(slots []models.Slot) []uint {
	ids := make([]uint, 0, len(slots))
	for _, s := range slots {
		ids = append(ids, s.SlotID)
	}
	return ids
}

// domainOr passes domain errors through and wraps everything else.
func domainOr(err error, format string, args ...any) error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
