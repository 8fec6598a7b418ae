package handlers

import (
	"net/http"
	"os"

	"parkingapp/jobs"
	"parkingapp/logs"
	"parkingapp/models"

	"github.com/gin-gonic/gin"
)

type ActiveInput struct {
	Active *bool `json:"active" binding:"required"`
}

type RoleInput struct {
	Role string `json:"role" binding:"required"`
}

func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.Admin.ListAccounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Accounts retrieved", accounts)
}

func (h *Handler) SetAccountActive(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var input ActiveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "active is required")
		return
	}
	if err := h.Accounts.SetActive(c.Request.Context(), id, *input.Active); err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Account updated", gin.H{"id": id, "active": *input.Active})
}

func (h *Handler) AssignRole(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var input RoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "role is required")
		return
	}
	if err := h.Accounts.AssignRole(c.Request.Context(), id, input.Role); err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Role assigned", gin.H{"id": id, "role": input.Role})
}

func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.Admin.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Summary retrieved", summary)
}

func (h *Handler) RevenuePerFacility(c *gin.Context) {
	rows, err := h.Admin.RevenuePerFacility(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Revenue retrieved", rows)
}

func (h *Handler) LotStats(c *gin.Context) {
	stats, err := h.Admin.LotStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Occupancy retrieved", stats)
}

func (h *Handler) submit(c *gin.Context, name, message string) {
	jobID, err := h.Jobs.Submit(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusAccepted, message, gin.H{"job_id": jobID})
}

func (h *Handler) ExportCSV(c *gin.Context) {
	h.submit(c, jobs.DownloadReservationsCSV, "Export queued")
}

func (h *Handler) SendMonthlyReport(c *gin.Context) {
	h.submit(c, jobs.MonthlyReservationReport, "Monthly report queued")
}

// ExportResult answers 202 while the export runs and streams the file once done.
func (h *Handler) ExportResult(c *gin.Context) {
	record, err := h.Jobs.Poll(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if record.Name != jobs.DownloadReservationsCSV {
		ErrorResponse(c, http.StatusNotFound, "No export with this id", "ERR_JOB_NOT_FOUND")
		return
	}
	switch {
	case !record.Finished():
		SuccessResponse(c, http.StatusAccepted, "File is being generated", gin.H{"job_id": record.JobID, "status": "processing"})
		return
	case record.Status == models.JobFailed:
		ErrorResponse(c, http.StatusInternalServerError, "Task failed", "ERR_JOB_FAILED")
		return
	case record.Result == "":
		ErrorResponse(c, http.StatusInternalServerError, "No file produced", "ERR_NO_FILE")
		return
	}
	path := h.Reports.ExportPath(record.Result)
	if _, err := os.Stat(path); err != nil {
		logs.Logger.Errorf("Export file of job %s is missing: %v", record.JobID, err)
		ErrorResponse(c, http.StatusInternalServerError, "No file produced", "ERR_NO_FILE")
		return
	}
	c.FileAttachment(path, record.Result)
}

func (h *Handler) JobStatus(c *gin.Context) {
	record, err := h.Jobs.Poll(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Job status", record)
}
