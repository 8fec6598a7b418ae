package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"parkingapp/logs"

	"github.com/gin-gonic/gin"
)

type ReserveInput struct {
	FacilityID json.Number `json:"facility_id" binding:"required"`
	VehicleNo  string      `json:"vehicle_no" binding:"required"`
}

type ReleaseInput struct {
	SlotID json.Number `json:"slot_id" binding:"required"`
}

// idValue accepts a positive integer given as a JSON number or numeric string.
func idValue(n json.Number) (uint, bool) {
	v, err := strconv.ParseUint(n.String(), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

func (h *Handler) Reserve(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var input ReserveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logs.Logger.Warnf("Invalid reserve input: %v", err)
		badRequest(c, "facility_id and vehicle_no are required")
		return
	}
	facilityID, ok := idValue(input.FacilityID)
	if !ok {
		badRequest(c, "facility_id must be a positive integer")
		return
	}
	booking, err := h.Bookings.Reserve(c.Request.Context(), p.AccountID, facilityID, input.VehicleNo)
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Slot reserved successfully!", booking.ToResponse())
}

func (h *Handler) Release(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var input ReleaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logs.Logger.Warnf("Invalid release input: %v", err)
		badRequest(c, "slot_id is required")
		return
	}
	slotID, ok := idValue(input.SlotID)
	if !ok {
		badRequest(c, "slot_id must be a positive integer")
		return
	}
	booking, err := h.Bookings.Release(c.Request.Context(), p.AccountID, slotID)
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, fmt.Sprintf("Spot released. Charged ₹%.2f", booking.CostCharged), booking.ToResponse())
}

func (h *Handler) History(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	entries, err := h.Bookings.History(c.Request.Context(), p.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "History retrieved", entries)
}
