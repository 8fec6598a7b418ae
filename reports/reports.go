package reports

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"parkingapp/jobs"
	"parkingapp/mailer"
	"parkingapp/models"
	"parkingapp/repository"
)

//go:embed templates/*.html
var templateFS embed.FS

var monthlyTemplate = template.Must(template.ParseFS(templateFS, "templates/monthly_report.html"))

const (
	notReleased = "Not Released"
	pending     = "Pending"
	missing     = "N/A"

	reminderWindow = 48 * time.Hour
)

// Reports holds the bodies of the background reporting jobs.
type Reports struct {
	store     repository.Store
	mail      mailer.Sender
	exportDir string
	now       func() time.Time
}

func New(store repository.Store, mail mailer.Sender, exportDir string) *Reports {
	return &Reports{
		store:     store,
		mail:      mail,
		exportDir: exportDir,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register binds the three reporting jobs to the runner.
func (r *Reports) Register(runner *jobs.Runner) {
	runner.Register(jobs.DownloadReservationsCSV, r.ExportBookings)
	runner.Register(jobs.MonthlyReservationReport, r.MonthlyReport)
	runner.Register(jobs.DailyReminder, r.DailyReminder)
}

// ExportPath resolves an export file name produced by ExportBookings. Any
// directory part of name is discarded.
func (r *Reports) ExportPath(name string) string {
	return filepath.Join(r.exportDir, filepath.Base(name))
}

func costOrPending(cost float64) string {
	if cost > 0 {
		return fmt.Sprintf("%.2f", cost)
	}
	return pending
}

// nonAdmins lists the accounts that receive reports.
func (r *Reports) nonAdmins(ctx context.Context) ([]models.Account, error) {
	accounts, err := r.store.Accounts().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := accounts[:0]
	for _, a := range accounts {
		if !a.HasRole(models.RoleAdmin) {
			out = append(out, a)
		}
	}
	return out, nil
}
