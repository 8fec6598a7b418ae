package handlers

import (
	"errors"
	"net/http"

	"parkingapp/jobs"
	"parkingapp/logs"
	"parkingapp/services"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string, err string) {
	c.JSON(statusCode, APIResponse{
		Status:  false,
		Message: message,
		Error:   err,
	})
}

// statusOf maps an error to its HTTP status and the error code shown to the caller.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, "ERR_VALIDATION"
	case errors.Is(err, services.ErrConflict):
		return http.StatusBadRequest, "ERR_CONFLICT"
	case errors.Is(err, services.ErrCapacity):
		return http.StatusBadRequest, "ERR_NO_CAPACITY"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "ERR_NOT_FOUND"
	case errors.Is(err, services.ErrAuth):
		return http.StatusUnauthorized, "ERR_UNAUTHENTICATED"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "ERR_FORBIDDEN"
	case errors.Is(err, jobs.ErrJobNotFound):
		return http.StatusNotFound, "ERR_JOB_NOT_FOUND"
	case errors.Is(err, jobs.ErrUnknownJob):
		return http.StatusBadRequest, "ERR_UNKNOWN_JOB"
	case errors.Is(err, jobs.ErrQueueFull):
		return http.StatusServiceUnavailable, "ERR_QUEUE_FULL"
	}
	return http.StatusInternalServerError, "ERR_INTERNAL"
}

// respondError writes the failure envelope. Unexpected errors are logged
// and reported with a generic message.
func respondError(c *gin.Context, err error) {
	status, code := statusOf(err)
	message := services.Message(err)
	switch {
	case status == http.StatusInternalServerError:
		logs.Logger.WithField("request_id", c.GetString(RequestIDKey)).
			Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		message = "Internal server error"
	case message == "":
		message = err.Error()
	}
	ErrorResponse(c, status, message, code)
}

func badRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message, "ERR_VALIDATION")
}
