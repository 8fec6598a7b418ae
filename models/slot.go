package models

const (
	SlotAvailable = "A"
	SlotOccupied  = "O"
)

type Slot struct {
	SlotID            uint   `json:"slot_id" gorm:"primaryKey;autoIncrement"`
	FacilityID        uint   `json:"facility_id" gorm:"index;not null"`
	SlotState         string `json:"slot_state" gorm:"type:varchar(1);not null;default:A;index"`
	AssignedAccountID *uint  `json:"assigned_account_id" gorm:"default:null"`
	RegNumber         string `json:"reg_number" gorm:"type:varchar(20)"`
	SlotLabel         string `json:"slot_label" gorm:"type:varchar(20)"`
}

func (Slot) TableName() string {
	return "slots"
}

func (s *Slot) IsAvailable() bool {
	return s.SlotState == SlotAvailable
}

// SlotDetail describes the current occupant of a slot for administrators.
type SlotDetail struct {
	SlotID        uint    `json:"slot_id"`
	CustomerID    uint    `json:"customer_id"`
	VehicleNumber string  `json:"vehicle_number"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
	Cost          float64 `json:"cost"`
}
