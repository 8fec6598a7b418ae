package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"parkingapp/logs"
	"parkingapp/services"

	"github.com/gin-gonic/gin"
)

// CreateFacilityInput accepts numbers either as JSON numbers or numeric strings.
type CreateFacilityInput struct {
	PlaceLabel string      `json:"place_label" binding:"required"`
	HourlyRate json.Number `json:"hourly_rate" binding:"required"`
	Zipcode    string      `json:"zipcode" binding:"required"`
	TotalSlots json.Number `json:"total_slots" binding:"required"`
}

// UpdateFacilityInput is a partial update; absent fields are left unchanged.
type UpdateFacilityInput struct {
	PlaceLabel *string     `json:"place_label"`
	HourlyRate json.Number `json:"hourly_rate"`
	Zipcode    *string     `json:"zipcode"`
	TotalSlots json.Number `json:"total_slots"`
}

func parseRate(n json.Number) (float64, bool) {
	v, err := n.Float64()
	return v, err == nil && v > 0
}

var totalSlotsMessage = fmt.Sprintf("total_slots must be an integer between 0 and %d", services.MaxFacilitySlots)

func parseTotal(n json.Number) (int, bool) {
	v, err := n.Int64()
	if err != nil || v < 0 || v > services.MaxFacilitySlots {
		return 0, false
	}
	return int(v), true
}

func (h *Handler) ListFacilities(c *gin.Context) {
	listing, err := h.Inventory.ListFacilities(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Facilities retrieved", listing)
}

func (h *Handler) CreateFacility(c *gin.Context) {
	var input CreateFacilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logs.Logger.Warnf("Invalid facility input: %v", err)
		badRequest(c, "place_label, hourly_rate, zipcode and total_slots are required")
		return
	}
	rate, ok := parseRate(input.HourlyRate)
	if !ok {
		badRequest(c, "hourly_rate must be a positive number")
		return
	}
	total, ok := parseTotal(input.TotalSlots)
	if !ok {
		badRequest(c, totalSlotsMessage)
		return
	}
	facility, err := h.Inventory.CreateFacility(c.Request.Context(), services.FacilityInput{
		PlaceLabel: input.PlaceLabel,
		HourlyRate: rate,
		Zipcode:    input.Zipcode,
		TotalSlots: total,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Facility created", facility.ToResponse())
}

func (h *Handler) UpdateFacility(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var input UpdateFacilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logs.Logger.Warnf("Invalid facility input: %v", err)
		badRequest(c, "Invalid input data")
		return
	}
	patch := services.FacilityPatch{PlaceLabel: input.PlaceLabel, Zipcode: input.Zipcode}
	if input.HourlyRate != "" {
		rate, ok := parseRate(input.HourlyRate)
		if !ok {
			badRequest(c, "hourly_rate must be a positive number")
			return
		}
		patch.HourlyRate = &rate
	}
	if input.TotalSlots != "" {
		total, ok := parseTotal(input.TotalSlots)
		if !ok {
			badRequest(c, totalSlotsMessage)
			return
		}
		patch.TotalSlots = &total
	}
	facility, err := h.Inventory.UpdateFacility(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Facility updated", facility.ToResponse())
}

func (h *Handler) DeleteFacility(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.Inventory.DeleteFacility(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Facility deleted", nil)
}

func (h *Handler) GetSlot(c *gin.Context) {
	facilityID, ok := uintParam(c, "facilityId")
	if !ok {
		return
	}
	position, ok := positionParam(c)
	if !ok {
		return
	}
	detail, err := h.Inventory.GetSlot(c.Request.Context(), facilityID, position)
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Slot retrieved", detail)
}

func (h *Handler) DeleteSlot(c *gin.Context) {
	facilityID, ok := uintParam(c, "facilityId")
	if !ok {
		return
	}
	position, ok := positionParam(c)
	if !ok {
		return
	}
	if err := h.Inventory.DeleteSlot(c.Request.Context(), facilityID, position); err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Slot deleted", nil)
}
