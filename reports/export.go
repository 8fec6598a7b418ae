package reports

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"parkingapp/logs"
	"parkingapp/models"
	"parkingapp/repository"
	"parkingapp/utils"

	"github.com/google/uuid"
)

var csvHeader = []string{
	"Username", "Email", "Facility Name", "Vehicle Number",
	"Slot Label", "Entry Time", "Exit Time", "Cost",
}

// ExportBookings writes every booking to a new CSV file in the export
// directory and returns the file name.
func (r *Reports) ExportBookings(ctx context.Context) (string, error) {
	bookings, err := r.store.Bookings().ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("list bookings: %w", err)
	}
	if err := os.MkdirAll(r.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	name := fmt.Sprintf("booking_records_%s_%s.csv", r.now().Format("20060102_150405"), uuid.NewString()[:8])
	path := filepath.Join(r.exportDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	err = r.writeBookings(ctx, f, bookings)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close export file: %w", cerr)
	}
	if err != nil {
		if rerr := os.Remove(path); rerr != nil {
			logs.Logger.Warnf("Failed to remove partial export %s: %v", path, rerr)
		}
		return "", err
	}
	logs.Logger.Infof("Exported %d bookings to %s", len(bookings), path)
	return name, nil
}

func (r *Reports) writeBookings(ctx context.Context, out io.Writer, bookings []models.Booking) error {
	owners := map[uint]*models.Account{}
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}
	for _, b := range bookings {
		owner, ok := owners[b.AccountID]
		if !ok {
			var err error
			owner, err = r.store.Accounts().FindByID(ctx, b.AccountID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("load account %d: %w", b.AccountID, err)
			}
			owners[b.AccountID] = owner
		}
		username, email := missing, missing
		if owner != nil {
			username, email = owner.DisplayName, owner.Email
		}
		exit := notReleased
		if b.EndTime != nil {
			exit = utils.FormatDisplayTime(*b.EndTime)
		}
		row := []string{
			username,
			email,
			b.FacilitySnapshot,
			b.RegNumberSnapshot,
			b.SlotSnapshot,
			utils.FormatDisplayTime(b.StartTime),
			exit,
			costOrPending(b.CostCharged),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}
