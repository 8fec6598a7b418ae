package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"parkingapp/models"
	"parkingapp/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateCharge(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		elapsed time.Duration
		rate    float64
		want    float64
	}{
		{"seconds bill one hour", 5 * time.Second, 50, 50},
		{"zero bills one hour", 0, 50, 50},
		{"exact hour", time.Hour, 50, 50},
		{"just over an hour", time.Hour + time.Second, 50, 100},
		{"two and a half hours", 150 * time.Minute, 12.5, 37.5},
		{"rounds to cents", 61 * time.Minute, 10.333, 20.67},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CalculateCharge(start, start.Add(tc.elapsed), tc.rate)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := CalculateCharge(start, start.Add(-time.Minute), 50)
	assert.Error(t, err)
	_, err = CalculateCharge(start, start.Add(time.Minute), 0)
	assert.Error(t, err)
}

func TestReserveReleaseScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	f := env.facility(t, "A", 50, 1)
	u := env.user(t, "driver@example.com")

	first, err := env.bookings.Reserve(ctx, u.AccountID, f.FacilityID, "KA01AB1234")
	require.NoError(t, err)
	slot, err := env.store.Slots().FindByID(ctx, *first.SlotID)
	require.NoError(t, err)
	assert.Equal(t, models.SlotOccupied, slot.SlotState)
	assert.Equal(t, "KA01AB1234", slot.RegNumber)
	require.NotNil(t, slot.AssignedAccountID)
	assert.Equal(t, u.AccountID, *slot.AssignedAccountID)
	assert.Equal(t, "A", first.FacilitySnapshot)
	assert.Equal(t, "1", first.SlotSnapshot)

	_, err = env.bookings.Reserve(ctx, u.AccountID, f.FacilityID, "KA01AB9999")
	require.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, "No free slots available", err.Error())

	env.advance(30 * time.Minute)
	closed, err := env.bookings.Release(ctx, u.AccountID, *first.SlotID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, closed.CostCharged)
	require.NotNil(t, closed.EndTime)

	slot, err = env.store.Slots().FindByID(ctx, *first.SlotID)
	require.NoError(t, err)
	assert.Equal(t, models.SlotAvailable, slot.SlotState)
	assert.Nil(t, slot.AssignedAccountID)
	assert.Empty(t, slot.RegNumber)

	_, err = env.bookings.Reserve(ctx, u.AccountID, f.FacilityID, "KA01AB1234")
	assert.NoError(t, err)
}

func TestReserveFirstFitByID(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	f := env.facility(t, "A", 50, 3)
	u := env.user(t, "driver@example.com")

	var got []string
	for i := 0; i < 3; i++ {
		b, err := env.bookings.Reserve(ctx, u.AccountID, f.FacilityID, "KA01")
		require.NoError(t, err)
		got = append(got, b.SlotSnapshot)
	}
	assert.Equal(t, []string{"1", "2", "3"}, got)
}

func TestReserveValidationAndUnknownFacility(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	f := env.facility(t, "A", 50, 1)

	_, err := env.bookings.Reserve(ctx, 1, f.FacilityID, "   ")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "facility_id and vehicle_no are required", err.Error())

	_, err = env.bookings.Reserve(ctx, 1, 0, "KA01")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.bookings.Reserve(ctx, 1, 999, "KA01")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Facility not found", err.Error())
}

func TestReserveRollsBackWhenBookingFails(t *testing.T) {
	ctx := context.Background()
	f := &faults{}
	env := newTestEnvWithStore(t, faultyStore{Store: repotest.NewStore(t), f: f})
	fac := env.facility(t, "A", 50, 1)
	u := env.user(t, "driver@example.com")

	f.bookingCreate = errors.New("disk full")
	_, err := env.bookings.Reserve(ctx, u.AccountID, fac.FacilityID, "KA01")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCapacity)

	slots := env.slots(t, fac.FacilityID)
	require.Len(t, slots, 1)
	assert.Equal(t, models.SlotAvailable, slots[0].SlotState)
	all, err := env.store.Bookings().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReserveRetriesLostRace(t *testing.T) {
	ctx := context.Background()
	f := &faults{staleOccupies: 2}
	env := newTestEnvWithStore(t, faultyStore{Store: repotest.NewStore(t), f: f})
	fac := env.facility(t, "A", 50, 1)

	b, err := env.bookings.Reserve(ctx, 1, fac.FacilityID, "KA01")
	require.NoError(t, err)
	assert.Equal(t, "1", b.SlotSnapshot)
	assert.Zero(t, f.staleOccupies)

	other := env.facility(t, "B", 50, 1)
	f.staleOccupies = reserveAttempts
	_, err = env.bookings.Reserve(ctx, 1, other.FacilityID, "KA02")
	require.ErrorIs(t, err, ErrCapacity)
	slots := env.slots(t, other.FacilityID)
	assert.Equal(t, models.SlotAvailable, slots[0].SlotState)
	all, err := env.store.Bookings().ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReleaseOwnership(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	f := env.facility(t, "A", 50, 1)
	owner := env.user(t, "owner@example.com")
	other := env.user(t, "other@example.com")
	b, err := env.bookings.Reserve(ctx, owner.AccountID, f.FacilityID, "KA01")
	require.NoError(t, err)

	_, err = env.bookings.Release(ctx, other.AccountID, *b.SlotID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "No active booking found for this spot/user", err.Error())

	_, err = env.bookings.Release(ctx, owner.AccountID, 999)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Invalid slot ID", err.Error())

	_, err = env.bookings.Release(ctx, owner.AccountID, 0)
	assert.ErrorIs(t, err, ErrValidation)

	slot, err := env.store.Slots().FindByID(ctx, *b.SlotID)
	require.NoError(t, err)
	assert.Equal(t, models.SlotOccupied, slot.SlotState)

	_, err = env.bookings.Release(ctx, owner.AccountID, *b.SlotID)
	require.NoError(t, err)
	_, err = env.bookings.Release(ctx, owner.AccountID, *b.SlotID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReleaseChargesCeilHours(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	f := env.facility(t, "A", 40, 1)
	u := env.user(t, "driver@example.com")
	b, err := env.bookings.Reserve(ctx, u.AccountID, f.FacilityID, "KA01")
	require.NoError(t, err)

	env.advance(2*time.Hour + time.Minute)
	closed, err := env.bookings.Release(ctx, u.AccountID, *b.SlotID)
	require.NoError(t, err)
	assert.Equal(t, 120.0, closed.CostCharged)
}

func TestHistoryNewestFirstInLocalZone(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	f := env.facility(t, "A", 50, 2)
	u := env.user(t, "driver@example.com")

	first, err := env.bookings.Reserve(ctx, u.AccountID, f.FacilityID, "KA01")
	require.NoError(t, err)
	env.advance(90 * time.Minute)
	_, err = env.bookings.Release(ctx, u.AccountID, *first.SlotID)
	require.NoError(t, err)
	second, err := env.bookings.Reserve(ctx, u.AccountID, f.FacilityID, "KA02")
	require.NoError(t, err)

	history, err := env.bookings.History(ctx, u.AccountID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, second.BookingID, history[0].ID)
	assert.False(t, history[0].Released)
	assert.Nil(t, history[0].End)
	assert.Equal(t, "KA02", history[0].Vehicle)
	assert.Equal(t, 50.0, history[0].Rate)

	old := history[1]
	assert.Equal(t, first.BookingID, old.ID)
	assert.True(t, old.Released)
	assert.Equal(t, "2024-05-01T14:30:00+05:30", old.Start)
	require.NotNil(t, old.End)
	assert.Equal(t, "2024-05-01T16:00:00+05:30", *old.End)
	assert.Equal(t, 100.0, old.Cost)
	assert.Equal(t, "A", old.Facility)

	empty, err := env.bookings.History(ctx, 4242)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
