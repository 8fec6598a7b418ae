package services

import (
	"context"
	"fmt"

	"parkingapp/models"
	"parkingapp/repository"
	"parkingapp/utils"
)

// AdminService builds the aggregate views of the admin dashboard.
type AdminService struct {
	store repository.Store
}

func NewAdminService(store repository.Store) *AdminService {
	return &AdminService{store: store}
}

// ListAccounts returns every non-admin account with its bookings, newest first.
func (s *AdminService) ListAccounts(ctx context.Context) ([]models.AccountBookingsResponse, error) {
	accounts, err := s.store.Accounts().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	lookup := newLiveLookup(s.store)
	out := make([]models.AccountBookingsResponse, 0, len(accounts))
	for _, a := range accounts {
		if a.HasRole(models.RoleAdmin) {
			continue
		}
		bookings, err := s.store.Bookings().ListByAccount(ctx, a.AccountID)
		if err != nil {
			return nil, fmt.Errorf("bookings of account %d: %w", a.AccountID, err)
		}
		rows := make([]models.BookingAdminEntry, 0, len(bookings))
		for _, b := range bookings {
			slot, facility, err := lookup.resolve(ctx, b.SlotID)
			if err != nil {
				return nil, err
			}
			row := models.BookingAdminEntry{
				Facility: b.FacilitySnapshot,
				Slot:     b.SlotSnapshot,
				Vehicle:  b.RegNumberSnapshot,
				Start:    utils.FormatDisplayTime(b.StartTime),
				Charged:  chargedOrPending(b.CostCharged),
			}
			if facility != nil {
				row.Facility = facility.PlaceLabel
			}
			if slot != nil {
				row.Slot = slot.SlotLabel
			}
			if b.EndTime != nil {
				end := utils.FormatDisplayTime(*b.EndTime)
				row.End = &end
			}
			rows = append(rows, row)
		}
		out = append(out, models.AccountBookingsResponse{
			ID:       a.AccountID,
			Username: a.DisplayName,
			Email:    a.Email,
			Active:   a.Active,
			Roles:    a.RoleNames(),
			Bookings: rows,
		})
	}
	return out, nil
}

// chargedOrPending reports open or zero-cost bookings as "Pending".
func chargedOrPending(cost float64) any {
	if cost > 0 {
		return cost
	}
	return "Pending"
}

func (s *AdminService) Summary(ctx context.Context) (*models.AdminSummary, error) {
	users, err := s.store.Accounts().Count(ctx)
	if err != nil {
		return nil, err
	}
	lots, err := s.store.Facilities().Count(ctx)
	if err != nil {
		return nil, err
	}
	spots, err := s.store.Slots().Count(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.store.Bookings().TotalRevenue(ctx)
	if err != nil {
		return nil, err
	}
	return &models.AdminSummary{
		TotalUsers:   users,
		TotalLots:    lots,
		TotalSpots:   spots,
		TotalRevenue: utils.Round2(revenue),
	}, nil
}

func (s *AdminService) RevenuePerFacility(ctx context.Context) ([]models.FacilityRevenue, error) {
	rows, err := s.store.Bookings().RevenuePerFacility(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.FacilityRevenue, 0, len(rows))
	for _, r := range rows {
		r.Revenue = utils.Round2(r.Revenue)
		out = append(out, r)
	}
	return out, nil
}

func (s *AdminService) LotStats(ctx context.Context) ([]models.FacilityOccupancy, error) {
	facilities, err := s.store.Facilities().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	out := make([]models.FacilityOccupancy, 0, len(facilities))
	for _, f := range facilities {
		slots, err := s.store.Slots().ListByFacility(ctx, f.FacilityID)
		if err != nil {
			return nil, fmt.Errorf("list slots of facility %d: %w", f.FacilityID, err)
		}
		stat := models.FacilityOccupancy{FacilityID: f.FacilityID, LocationName: f.PlaceLabel}
		for _, slot := range slots {
			if slot.IsAvailable() {
				stat.AvailableSpots++
			} else {
				stat.OccupiedSpots++
			}
		}
		out = append(out, stat)
	}
	return out, nil
}
