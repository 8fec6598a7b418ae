package services

import (
	"context"
	"testing"
	"time"

	"parkingapp/cache"
	"parkingapp/models"
	"parkingapp/repository"
	"parkingapp/repository/repotest"
	"parkingapp/utils"

	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store     repository.Store
	cache     *cache.Memory
	inventory *InventoryService
	bookings  *BookingService
	accounts  *AccountService
	admin     *AdminService
	clock     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, repotest.NewStore(t))
}

func newTestEnvWithStore(t *testing.T, store repository.Store) *testEnv {
	t.Helper()
	env := &testEnv{
		store: store,
		cache: cache.NewMemory(),
		clock: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	listings := NewListingCache(env.cache, DefaultListingTTL)
	env.inventory = NewInventoryService(store, listings)
	env.bookings = NewBookingService(store, listings, time.FixedZone("IST", 5*3600+1800))
	env.bookings.now = func() time.Time { return env.clock }
	env.accounts = NewAccountService(store, utils.NewTokenIssuer("test-secret", time.Hour))
	env.admin = NewAdminService(store)
	return env
}

func (e *testEnv) advance(d time.Duration) { e.clock = e.clock.Add(d) }

func (e *testEnv) facility(t *testing.T, label string, rate float64, slots int) *models.Facility {
	t.Helper()
	f, err := e.inventory.CreateFacility(context.Background(), FacilityInput{
		PlaceLabel: label, HourlyRate: rate, Zipcode: "560001", TotalSlots: slots,
	})
	require.NoError(t, err)
	return f
}

func (e *testEnv) user(t *testing.T, email string) *models.Account {
	t.Helper()
	a, err := e.accounts.Register(context.Background(), email, "driver", "secret1")
	require.NoError(t, err)
	return a
}

func (e *testEnv) slots(t *testing.T, facilityID uint) []models.Slot {
	t.Helper()
	slots, err := e.store.Slots().ListByFacility(context.Background(), facilityID)
	require.NoError(t, err)
	return slots
}

func (e *testEnv) listingCached() bool {
	_, err := e.cache.Get(context.Background(), ListingKey)
	return err == nil
}

func labels(slots []models.Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.SlotLabel)
	}
	return out
}

// faultyStore injects repository failures into a wrapped store.
type faults struct {
	bookingCreate error
	staleOccupies int
}

type faultyStore struct {
	repository.Store
	f *faults
}

func (s faultyStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.Transaction(ctx, func(tx repository.Store) error {
		return fn(faultyStore{Store: tx, f: s.f})
	})
}

func (s faultyStore) Slots() repository.SlotRepository {
	return faultySlots{SlotRepository: s.Store.Slots(), f: s.f}
}

func (s faultyStore) Bookings() repository.BookingRepository {
	return faultyBookings{BookingRepository: s.Store.Bookings(), f: s.f}
}

type faultySlots struct {
	repository.SlotRepository
	f *faults
}

func (r faultySlots) Occupy(ctx context.Context, slotID, accountID uint, reg string) error {
	if r.f.staleOccupies > 0 {
		r.f.staleOccupies--
		return repository.ErrStaleState
	}
	return r.SlotRepository.Occupy(ctx, slotID, accountID, reg)
}

type faultyBookings struct {
	repository.BookingRepository
	f *faults
}

func (r faultyBookings) Create(ctx context.Context, b *models.Booking) error {
	if r.f.bookingCreate != nil {
		return r.f.bookingCreate
	}
	return r.BookingRepository.Create(ctx, b)
}
