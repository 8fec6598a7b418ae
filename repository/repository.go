package repository

import (
	"context"
	"errors"
	"time"

	"parkingapp/models"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate record")
	ErrStaleState = errors.New("record state changed before update")
)

// Store groups the repositories and runs them inside one transaction.
type Store interface {
	Accounts() AccountRepository
	Facilities() FacilityRepository
	Slots() SlotRepository
	Bookings() BookingRepository
	Jobs() JobRepository

	// Transaction runs fn against a Store bound to a single transaction.
	// Any error returned by fn rolls back every change made through tx.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id uint) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	Count(ctx context.Context) (int64, error)
	SetActive(ctx context.Context, id uint, active bool) error
	EnsureRole(ctx context.Context, name, description string) (*models.PermissionGroup, error)
	AddRole(ctx context.Context, accountID uint, roleName string) error
}

type FacilityRepository interface {
	Create(ctx context.Context, facility *models.Facility) error
	FindByID(ctx context.Context, id uint) (*models.Facility, error)
	List(ctx context.Context) ([]models.Facility, error)
	Update(ctx context.Context, facility *models.Facility) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type SlotRepository interface {
	CreateBatch(ctx context.Context, slots []models.Slot) error
	FindByID(ctx context.Context, id uint) (*models.Slot, error)
	// ListByFacility returns the facility's slots ordered by slot id.
	ListByFacility(ctx context.Context, facilityID uint) ([]models.Slot, error)
	// FindFirstAvailable locks and returns the lowest-id Available slot.
	FindFirstAvailable(ctx context.Context, facilityID uint) (*models.Slot, error)
	ListAvailable(ctx context.Context, facilityID uint, limit int) ([]models.Slot, error)
	// Occupy flips an Available slot to Occupied; ErrStaleState if it was not Available.
	Occupy(ctx context.Context, slotID, accountID uint, regNumber string) error
	// Free flips an Occupied slot back to Available; ErrStaleState if it was not Occupied.
	Free(ctx context.Context, slotID uint) error
	// Delete removes Available slots only; ErrStaleState if any id was not
	// an Available slot.
	Delete(ctx context.Context, ids []uint) error
	Count(ctx context.Context) (int64, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	// FindOpen returns the most recent open booking of accountID on slotID.
	FindOpen(ctx context.Context, slotID, accountID uint) (*models.Booking, error)
	FindLatestBySlot(ctx context.Context, slotID uint) (*models.Booking, error)
	ListByAccount(ctx context.Context, accountID uint) ([]models.Booking, error)
	ListAll(ctx context.Context) ([]models.Booking, error)
	// Close stamps end time and cost on an open booking; ErrStaleState if already closed.
	Close(ctx context.Context, bookingID uint, endTime time.Time, cost float64) error
	DetachSlots(ctx context.Context, slotIDs []uint) error
	HasStartedSince(ctx context.Context, accountID uint, since time.Time) (bool, error)
	TotalRevenue(ctx context.Context) (float64, error)
	RevenuePerFacility(ctx context.Context) ([]models.FacilityRevenue, error)
}

type JobRepository interface {
	Create(ctx context.Context, job *models.JobRecord) error
	FindByID(ctx context.Context, id string) (*models.JobRecord, error)
	Update(ctx context.Context, job *models.JobRecord) error
}
