package models

import "time"

// Booking is the ledger row of one occupancy. Snapshot columns keep the
// history readable after the slot or facility is deleted.
type Booking struct {
	BookingID         uint       `json:"booking_id" gorm:"primaryKey;autoIncrement"`
	AccountID         uint       `json:"account_id" gorm:"index;not null"`
	SlotID            *uint      `json:"slot_id" gorm:"index;default:null"`
	StartTime         time.Time  `json:"start_time" gorm:"not null;index"`
	EndTime           *time.Time `json:"end_time" gorm:"default:null"`
	FacilitySnapshot  string     `json:"facility_snapshot" gorm:"type:varchar(120)"`
	SlotSnapshot      string     `json:"slot_snapshot" gorm:"type:varchar(20)"`
	RegNumberSnapshot string     `json:"reg_number_snapshot" gorm:"type:varchar(20);not null"`
	CostCharged       float64    `json:"cost_charged" gorm:"not null;default:0"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) IsOpen() bool {
	return b.EndTime == nil
}

type BookingResponse struct {
	ID        uint       `json:"id"`
	AccountID uint       `json:"account_id"`
	SlotID    *uint      `json:"slot_id"`
	Facility  string     `json:"facility"`
	Slot      string     `json:"slot"`
	Vehicle   string     `json:"vehicle"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Cost      float64    `json:"cost"`
}

func (b *Booking) ToResponse() BookingResponse {
	return BookingResponse{
		ID:        b.BookingID,
		AccountID: b.AccountID,
		SlotID:    b.SlotID,
		Facility:  b.FacilitySnapshot,
		Slot:      b.SlotSnapshot,
		Vehicle:   b.RegNumberSnapshot,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Cost:      b.CostCharged,
	}
}

// BookingHistoryEntry is a caller's own booking with timestamps shifted
// into the configured local zone.
type BookingHistoryEntry struct {
	ID              uint    `json:"id"`
	SlotIDToRelease *uint   `json:"slot_id_to_release"`
	Facility        string  `json:"facility"`
	Slot            string  `json:"slot"`
	Vehicle         string  `json:"vehicle"`
	Start           string  `json:"start"`
	End             *string `json:"end"`
	Released        bool    `json:"released"`
	Rate            any     `json:"rate"`
	Cost            float64 `json:"cost"`
}

// BookingAdminEntry is a booking row in the admin account listing.
type BookingAdminEntry struct {
	Facility string  `json:"facility"`
	Slot     string  `json:"slot"`
	Vehicle  string  `json:"vehicle"`
	Start    string  `json:"start"`
	End      *string `json:"end"`
	Charged  any     `json:"charged"`
}
