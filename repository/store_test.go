package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"parkingapp/models"
	"parkingapp/repository"
	"parkingapp/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFacility(t *testing.T, s repository.Store, slots int) uint {
	t.Helper()
	ctx := context.Background()
	f := &models.Facility{PlaceLabel: "Mall", HourlyRate: 40, Zipcode: "1", TotalSlots: slots}
	require.NoError(t, s.Facilities().Create(ctx, f))
	batch := make([]models.Slot, slots)
	for i := range batch {
		batch[i] = models.Slot{FacilityID: f.FacilityID, SlotLabel: string(rune('1' + i))}
	}
	require.NoError(t, s.Slots().CreateBatch(ctx, batch))
	return f.FacilityID
}

func TestTransactionCommitsOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	fid := seedFacility(t, s, 2)

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx repository.Store) error {
		slot, err := tx.Slots().FindFirstAvailable(ctx, fid)
		require.NoError(t, err)
		require.NoError(t, tx.Slots().Occupy(ctx, slot.SlotID, 1, "KA01"))
		require.NoError(t, tx.Bookings().Create(ctx, &models.Booking{AccountID: 1, SlotID: &slot.SlotID, StartTime: time.Now(), RegNumberSnapshot: "KA01"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	free, err := s.Slots().ListAvailable(ctx, fid, -1)
	require.NoError(t, err)
	assert.Len(t, free, 2)
	all, err := s.Bookings().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, s.Transaction(ctx, func(tx repository.Store) error {
		return tx.Slots().Occupy(ctx, free[0].SlotID, 1, "KA01")
	}))
	free, err = s.Slots().ListAvailable(ctx, fid, -1)
	require.NoError(t, err)
	assert.Len(t, free, 1)
}

func TestConditionalUpdates(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	fid := seedFacility(t, s, 1)
	slot, err := s.Slots().FindFirstAvailable(ctx, fid)
	require.NoError(t, err)

	require.NoError(t, s.Slots().Occupy(ctx, slot.SlotID, 1, "KA01"))
	assert.ErrorIs(t, s.Slots().Occupy(ctx, slot.SlotID, 2, "KA02"), repository.ErrStaleState)
	assert.ErrorIs(t, s.Slots().Delete(ctx, []uint{slot.SlotID}), repository.ErrStaleState)

	_, err = s.Slots().FindFirstAvailable(ctx, fid)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Slots().Free(ctx, slot.SlotID))
	assert.ErrorIs(t, s.Slots().Free(ctx, slot.SlotID), repository.ErrStaleState)
	freed, err := s.Slots().FindByID(ctx, slot.SlotID)
	require.NoError(t, err)
	assert.Nil(t, freed.AssignedAccountID)
	assert.Empty(t, freed.RegNumber)

	b := &models.Booking{AccountID: 1, SlotID: &slot.SlotID, StartTime: time.Now(), RegNumberSnapshot: "KA01"}
	require.NoError(t, s.Bookings().Create(ctx, b))
	require.NoError(t, s.Bookings().Close(ctx, b.BookingID, time.Now(), 40))
	assert.ErrorIs(t, s.Bookings().Close(ctx, b.BookingID, time.Now(), 40), repository.ErrStaleState)
}

func TestAccountsAndRoles(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	role, err := s.Accounts().EnsureRole(ctx, models.RoleUser, "General user of app")
	require.NoError(t, err)
	same, err := s.Accounts().EnsureRole(ctx, models.RoleUser, "ignored")
	require.NoError(t, err)
	assert.Equal(t, role.GroupID, same.GroupID)

	a := &models.Account{Email: "a@example.com", DisplayName: "a", PasswordHash: "x", Active: true, Roles: []models.PermissionGroup{*role}}
	require.NoError(t, s.Accounts().Create(ctx, a))
	dup := &models.Account{Email: "a@example.com", DisplayName: "b", PasswordHash: "x"}
	assert.ErrorIs(t, s.Accounts().Create(ctx, dup), repository.ErrDuplicate)

	_, err = s.Accounts().EnsureRole(ctx, models.RoleAdmin, "System Administrator")
	require.NoError(t, err)
	require.NoError(t, s.Accounts().AddRole(ctx, a.AccountID, models.RoleAdmin))
	require.NoError(t, s.Accounts().AddRole(ctx, a.AccountID, models.RoleAdmin))

	got, err := s.Accounts().FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleUser, models.RoleAdmin}, got.RoleNames())

	assert.ErrorIs(t, s.Accounts().AddRole(ctx, a.AccountID, "ghost"), repository.ErrNotFound)
	assert.ErrorIs(t, s.Accounts().SetActive(ctx, 99, false), repository.ErrNotFound)
}

func TestBookingQueries(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	fid := seedFacility(t, s, 2)
	slots, err := s.Slots().ListByFacility(ctx, fid)
	require.NoError(t, err)

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, slot := range slots {
		id := slot.SlotID
		require.NoError(t, s.Bookings().Create(ctx, &models.Booking{
			AccountID: 1, SlotID: &id, StartTime: base.Add(time.Duration(i) * time.Hour), CostCharged: float64(10 * (i + 1)), RegNumberSnapshot: "KA01",
		}))
	}

	mine, err := s.Bookings().ListByAccount(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.True(t, mine[0].BookingID > mine[1].BookingID)

	recent, err := s.Bookings().HasStartedSince(ctx, 1, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.True(t, recent)
	recent, err = s.Bookings().HasStartedSince(ctx, 1, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, recent)

	total, err := s.Bookings().TotalRevenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30.0, total)

	require.NoError(t, s.Bookings().DetachSlots(ctx, []uint{slots[0].SlotID}))
	require.NoError(t, s.Slots().Delete(ctx, []uint{slots[0].SlotID}))
	per, err := s.Bookings().RevenuePerFacility(ctx)
	require.NoError(t, err)
	require.Len(t, per, 1)
	assert.Equal(t, 20.0, per[0].Revenue)
	assert.Equal(t, "Mall", per[0].LocationName)

	latest, err := s.Bookings().FindLatestBySlot(ctx, slots[1].SlotID)
	require.NoError(t, err)
	assert.True(t, latest.StartTime.Equal(base.Add(time.Hour)))
}

func TestJobs(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	job := &models.JobRecord{JobID: "j1", Name: "daily_reminder", Status: models.JobPending}
	require.NoError(t, s.Jobs().Create(ctx, job))
	assert.ErrorIs(t, s.Jobs().Create(ctx, job), repository.ErrDuplicate)

	job.Status = models.JobDone
	job.Result = "ok"
	require.NoError(t, s.Jobs().Update(ctx, job))
	got, err := s.Jobs().FindByID(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobDone, got.Status)
	assert.Equal(t, "ok", got.Result)

	_, err = s.Jobs().FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFacilityUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	fid := seedFacility(t, s, 1)

	f, err := s.Facilities().FindByID(ctx, fid)
	require.NoError(t, err)
	f.PlaceLabel = "Station"
	f.TotalSlots = 0
	require.NoError(t, s.Facilities().Update(ctx, f))

	again, err := s.Facilities().FindByID(ctx, fid)
	require.NoError(t, err)
	assert.Equal(t, "Station", again.PlaceLabel)
	assert.Zero(t, again.TotalSlots)

	require.NoError(t, s.Facilities().Delete(ctx, fid))
	assert.ErrorIs(t, s.Facilities().Delete(ctx, fid), repository.ErrNotFound)
	_, err = s.Facilities().FindByID(ctx, fid)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
