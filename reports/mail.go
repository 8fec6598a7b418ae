package reports

import (
	"bytes"
	"context"
	"fmt"

	"parkingapp/logs"
	"parkingapp/mailer"
	"parkingapp/models"
	"parkingapp/utils"
)

type reservationRow struct {
	Facility   string
	Vehicle    string
	Slot       string
	BookedAt   string
	ReleasedAt string
	Cost       string
}

type monthlyData struct {
	Username     string
	Reservations []reservationRow
	Total        float64
}

const reminderText = `Hi %s,

We noticed that you haven’t reserved a parking slot in the last couple of days.
If you plan to visit the premises soon, don’t forget to book your preferred parking spot in advance to avoid last-minute hassle. It only takes a few seconds!
Login now and secure your spot at your convenience.

Best regards,
Vehicle Parking App Team
`

func renderMonthly(account models.Account, bookings []models.Booking) (string, error) {
	data := monthlyData{Username: account.DisplayName}
	for _, b := range bookings {
		released := notReleased
		if b.EndTime != nil {
			released = utils.FormatDisplayTime(*b.EndTime)
		}
		data.Reservations = append(data.Reservations, reservationRow{
			Facility:   b.FacilitySnapshot,
			Vehicle:    b.RegNumberSnapshot,
			Slot:       b.SlotSnapshot,
			BookedAt:   utils.FormatDisplayTime(b.StartTime),
			ReleasedAt: released,
			Cost:       costOrPending(b.CostCharged),
		})
		if b.CostCharged > 0 {
			data.Total += b.CostCharged
		}
	}
	data.Total = utils.Round2(data.Total)
	var buf bytes.Buffer
	if err := monthlyTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render monthly report: %w", err)
	}
	return buf.String(), nil
}

// MonthlyReport mails every non-admin account its booking history. A failed
// delivery is logged and the remaining accounts are still processed.
func (r *Reports) MonthlyReport(ctx context.Context) (string, error) {
	accounts, err := r.nonAdmins(ctx)
	if err != nil {
		return "", err
	}
	failed := 0
	for _, a := range accounts {
		bookings, err := r.store.Bookings().ListByAccount(ctx, a.AccountID)
		if err != nil {
			return "", fmt.Errorf("bookings of account %d: %w", a.AccountID, err)
		}
		body, err := renderMonthly(a, bookings)
		if err != nil {
			return "", err
		}
		msg := mailer.Message{To: a.Email, Subject: "Monthly Parking Report", Body: body, HTML: true}
		if err := r.mail.Send(ctx, msg); err != nil {
			failed++
			logs.Logger.Errorf("Monthly report for account %d not delivered: %v", a.AccountID, err)
		}
	}
	if failed > 0 {
		return "", fmt.Errorf("%d of %d monthly reports could not be delivered", failed, len(accounts))
	}
	return fmt.Sprintf("Monthly reservation reports sent to %d accounts.", len(accounts)), nil
}

// DailyReminder nudges active non-admin accounts that have not started a
// booking within the reminder window.
func (r *Reports) DailyReminder(ctx context.Context) (string, error) {
	accounts, err := r.nonAdmins(ctx)
	if err != nil {
		return "", err
	}
	since := r.now().Add(-reminderWindow)
	sent, failed := 0, 0
	for _, a := range accounts {
		if !a.Active {
			continue
		}
		recent, err := r.store.Bookings().HasStartedSince(ctx, a.AccountID, since)
		if err != nil {
			return "", fmt.Errorf("recent bookings of account %d: %w", a.AccountID, err)
		}
		if recent {
			continue
		}
		msg := mailer.Message{To: a.Email, Subject: "Daily Parking Reminder", Body: fmt.Sprintf(reminderText, a.DisplayName)}
		if err := r.mail.Send(ctx, msg); err != nil {
			failed++
			logs.Logger.Errorf("Daily reminder for account %d not delivered: %v", a.AccountID, err)
			continue
		}
		sent++
	}
	if failed > 0 {
		return "", fmt.Errorf("%d daily reminders could not be delivered", failed)
	}
	return fmt.Sprintf("Daily reminders sent to %d accounts.", sent), nil
}
