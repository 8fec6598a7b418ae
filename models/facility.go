package models

// Facility is a parking location owning an ordered set of slots.
type Facility struct {
	FacilityID uint    `json:"facility_id" gorm:"primaryKey;autoIncrement"`
	PlaceLabel string  `json:"place_label" gorm:"type:varchar(120);not null"`
	HourlyRate float64 `json:"hourly_rate" gorm:"not null"`
	Zipcode    string  `json:"zipcode" gorm:"type:varchar(12);not null"`
	TotalSlots int     `json:"total_slots" gorm:"not null;default:0"`
}

func (Facility) TableName() string {
	return "facilities"
}

type FacilityResponse struct {
	ID         uint    `json:"id"`
	PlaceLabel string  `json:"place_label"`
	HourlyRate float64 `json:"hourly_rate"`
	Zipcode    string  `json:"zipcode"`
	TotalSlots int     `json:"total_slots"`
}

func (f *Facility) ToResponse() FacilityResponse {
	return FacilityResponse{
		ID:         f.FacilityID,
		PlaceLabel: f.PlaceLabel,
		HourlyRate: f.HourlyRate,
		Zipcode:    f.Zipcode,
		TotalSlots: f.TotalSlots,
	}
}

// FacilityListing is the cached view of a facility with its slots.
// TotalSlots is the live slot count, not the declared one.
type FacilityListing struct {
	ID             uint          `json:"id"`
	PlaceLabel     string        `json:"place_label"`
	HourlyRate     float64       `json:"hourly_rate"`
	Zipcode        string        `json:"zipcode"`
	TotalSlots     int           `json:"total_slots"`
	OccupiedSlots  int           `json:"occupied_slots"`
	AvailableSlots int           `json:"available_slots"`
	Slots          []SlotSummary `json:"slots"`
}

// SlotSummary carries a 1-based position derived from the current slot order.
type SlotSummary struct {
	Number     int    `json:"number"`
	Status     string `json:"status"`
	FacilityID uint   `json:"facilityId"`
}

type FacilityRevenue struct {
	FacilityID   uint    `json:"facility_id"`
	LocationName string  `json:"location_name"`
	Revenue      float64 `json:"revenue"`
}

type FacilityOccupancy struct {
	FacilityID     uint   `json:"facility_id"`
	LocationName   string `json:"location_name"`
	OccupiedSpots  int    `json:"occupied_spots"`
	AvailableSpots int    `json:"available_spots"`
}

type AdminSummary struct {
	TotalUsers   int64   `json:"total_users"`
	TotalLots    int64   `json:"total_lots"`
	TotalSpots   int64   `json:"total_spots"`
	TotalRevenue float64 `json:"total_revenue"`
}
