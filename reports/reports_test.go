package reports

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"regexp"
	"sync"
	"testing"
	"time"

	"parkingapp/mailer"
	"parkingapp/models"
	"parkingapp/repository"
	"parkingapp/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clock = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type fakeMailer struct {
	mu      sync.Mutex
	sent    []mailer.Message
	failFor string
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.To == m.failFor {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) recipients() []string {
	var out []string
	for _, msg := range m.sent {
		out = append(out, msg.To)
	}
	return out
}

type fixture struct {
	store   *repository.GormStore
	mail    *fakeMailer
	reports *Reports
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repotest.NewStore(t)
	mail := &fakeMailer{}
	r := New(store, mail, t.TempDir())
	r.now = func() time.Time { return clock }
	return &fixture{store: store, mail: mail, reports: r}
}

func (f *fixture) account(t *testing.T, email, name, role string, active bool) *models.Account {
	t.Helper()
	ctx := context.Background()
	group, err := f.store.Accounts().EnsureRole(ctx, role, role)
	require.NoError(t, err)
	a := &models.Account{
		Email:       email,
		DisplayName: name,
		Active:      true,
		Roles:       []models.PermissionGroup{*group},
	}
	require.NoError(t, f.store.Accounts().Create(ctx, a))
	if !active {
		require.NoError(t, f.store.Accounts().SetActive(ctx, a.AccountID, false))
		a.Active = false
	}
	return a
}

func (f *fixture) booking(t *testing.T, accountID uint, start time.Time, end *time.Time, cost float64) {
	t.Helper()
	b := &models.Booking{
		AccountID:         accountID,
		StartTime:         start,
		EndTime:           end,
		CostCharged:       cost,
		FacilitySnapshot:  "Mall",
		SlotSnapshot:      "1",
		RegNumberSnapshot: "KA01AB1234",
	}
	require.NoError(t, f.store.Bookings().Create(context.Background(), b))
}

func TestExportBookings(t *testing.T) {
	f := newFixture(t)
	user := f.account(t, "u@example.com", "user1", models.RoleUser, true)
	end := time.Date(2024, 5, 1, 16, 5, 0, 0, time.UTC)
	f.booking(t, user.AccountID, time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC), &end, 120)
	f.booking(t, user.AccountID, time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC), nil, 0)
	f.booking(t, 99, time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC), nil, 0)

	name, err := f.reports.ExportBookings(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^booking_records_20240510_120000_[0-9a-f]{8}\.csv$`), name)

	file, err := os.Open(f.reports.ExportPath(name))
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"user1", "u@example.com", "Mall", "KA01AB1234", "1", "01-05-2024 02:30 PM", "01-05-2024 04:05 PM", "120.00"}, rows[1])
	assert.Equal(t, "Not Released", rows[2][6])
	assert.Equal(t, "Pending", rows[2][7])
	assert.Equal(t, []string{"N/A", "N/A"}, rows[3][:2])
}

type brokenAccounts struct {
	repository.AccountRepository
}

func (brokenAccounts) FindByID(context.Context, uint) (*models.Account, error) {
	return nil, errors.New("connection reset")
}

type brokenAccountStore struct {
	repository.Store
}

func (s brokenAccountStore) Accounts() repository.AccountRepository {
	return brokenAccounts{AccountRepository: s.Store.Accounts()}
}

func TestExportBookingsRemovesPartialFile(t *testing.T) {
	f := newFixture(t)
	f.booking(t, 1, clock.Add(-time.Hour), nil, 0)
	dir := t.TempDir()
	r := New(brokenAccountStore{Store: f.store}, f.mail, dir)
	r.now = func() time.Time { return clock }

	_, err := r.ExportBookings(context.Background())
	require.ErrorContains(t, err, "connection reset")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportPathStripsDirectories(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, f.reports.ExportPath("x.csv"), f.reports.ExportPath("../../x.csv"))
}

func TestMonthlyReportSkipsAdminsAndContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	f.account(t, "admin@parking.local", "admin", models.RoleAdmin, true)
	one := f.account(t, "one@example.com", "one", models.RoleUser, true)
	f.account(t, "two@example.com", "two", models.RoleUser, true)
	f.account(t, "three@example.com", "three", models.RoleUser, true)
	f.booking(t, one.AccountID, clock.Add(-time.Hour), nil, 0)
	f.mail.failFor = "two@example.com"

	_, err := f.reports.MonthlyReport(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3")

	assert.Equal(t, []string{"one@example.com", "three@example.com"}, f.mail.recipients())
	first := f.mail.sent[0]
	assert.Equal(t, "Monthly Parking Report", first.Subject)
	assert.True(t, first.HTML)
	assert.Contains(t, first.Body, "Hi one,")
	assert.Contains(t, first.Body, "KA01AB1234")
	assert.Contains(t, first.Body, "Not Released")
	assert.Contains(t, f.mail.sent[1].Body, "no reservations")
}

func TestMonthlyReportEscapesNames(t *testing.T) {
	f := newFixture(t)
	f.account(t, "x@example.com", "<script>", models.RoleUser, true)

	result, err := f.reports.MonthlyReport(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result, "1 accounts")
	assert.NotContains(t, f.mail.sent[0].Body, "<script>")
}

func TestDailyReminder(t *testing.T) {
	f := newFixture(t)
	f.account(t, "admin@parking.local", "admin", models.RoleAdmin, true)
	idle := f.account(t, "idle@example.com", "idle", models.RoleUser, true)
	busy := f.account(t, "busy@example.com", "busy", models.RoleUser, true)
	f.account(t, "gone@example.com", "gone", models.RoleUser, false)
	f.booking(t, idle.AccountID, clock.Add(-72*time.Hour), nil, 0)
	f.booking(t, busy.AccountID, clock.Add(-24*time.Hour), nil, 0)

	result, err := f.reports.DailyReminder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Daily reminders sent to 1 accounts.", result)

	require.Equal(t, []string{"idle@example.com"}, f.mail.recipients())
	msg := f.mail.sent[0]
	assert.Equal(t, "Daily Parking Reminder", msg.Subject)
	assert.False(t, msg.HTML)
	assert.Contains(t, msg.Body, "Hi idle,")
	assert.Contains(t, msg.Body, "Vehicle Parking App Team")
}
