package handlers

import (
	"net/http"
	"strconv"

	"parkingapp/jobs"
	"parkingapp/reports"
	"parkingapp/services"

	"github.com/gin-gonic/gin"
)

// Context keys shared with the routes middleware.
const (
	PrincipalKey = "principal"
	RequestIDKey = "request_id"
)

// Handler serves the HTTP API on top of the services.
type Handler struct {
	Accounts  *services.AccountService
	Inventory *services.InventoryService
	Bookings  *services.BookingService
	Admin     *services.AdminService
	Jobs      *jobs.Runner
	Reports   *reports.Reports
}

func SetPrincipal(c *gin.Context, p *services.Principal) {
	c.Set(PrincipalKey, p)
}

func CurrentPrincipal(c *gin.Context) (*services.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*services.Principal)
	return p, ok && p != nil
}

// principal aborts with 401 when the auth middleware did not run.
func principal(c *gin.Context) (*services.Principal, bool) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Unauthorized", "ERR_NO_PRINCIPAL")
		c.Abort()
	}
	return p, ok
}

// uintParam reads a positive integer path parameter.
func uintParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(n), true
}

func positionParam(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("position"))
	if err != nil {
		badRequest(c, "Invalid position")
		return 0, false
	}
	return n, true
}
