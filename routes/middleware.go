package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"parkingapp/handlers"
	"parkingapp/logs"
	"parkingapp/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// Authenticator resolves a bearer token to the calling account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Principal, error)
}

func abortJSON(c *gin.Context, status int, message, err, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		"status":  false,
		"message": message,
		"error":   err,
		"code":    code,
	})
}

// AuthMiddleware verifies the bearer token and stores the principal in the context.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortJSON(c, http.StatusUnauthorized, "Authentication required",
				"Authorization header is required", "ERR_NO_AUTH_HEADER")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			abortJSON(c, http.StatusUnauthorized, "Invalid Authorization format",
				"Authorization header must be in the format 'Bearer <token>'", "ERR_INVALID_AUTH_FORMAT")
			return
		}

		p, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			msg := services.Message(err)
			switch {
			case !errors.Is(err, services.ErrAuth):
				logs.Logger.WithField("request_id", c.GetString(handlers.RequestIDKey)).
					Errorf("Authentication failed: %v", err)
				abortJSON(c, http.StatusInternalServerError, "Internal server error", "authentication unavailable", "ERR_INTERNAL")
			case msg == "Token has expired":
				abortJSON(c, http.StatusUnauthorized, msg, "Token has expired", "ERR_TOKEN_EXPIRED")
			default:
				abortJSON(c, http.StatusUnauthorized, msg, "Invalid token", "ERR_INVALID_TOKEN")
			}
			return
		}

		handlers.SetPrincipal(c, p)
		c.Next()
	}
}

// RoleMiddleware admits the request only when the principal holds one of the
// allowed roles. A missing principal is rejected.
func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := handlers.CurrentPrincipal(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "Unable to read role information",
				"Role not found in context", "ERR_ROLE_NOT_FOUND")
			return
		}

		for _, role := range allowedRoles {
			if p.HasRole(role) {
				c.Next()
				return
			}
		}

		abortJSON(c, http.StatusForbidden, "Insufficient permissions",
			"Insufficient role permissions", "ERR_INSUFFICIENT_PERMISSIONS")
	}
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(handlers.RequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger writes one access line per request through logrus.
func RequestLogger() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    logs.Logger.Writer(),
		Formatter: accessLine,
	})
}

func accessLine(p gin.LogFormatterParams) string {
	reqid, _ := p.Keys[handlers.RequestIDKey].(string)
	return fmt.Sprintf("reqid=%s method=%s uri=%s status=%d bytes=%d dur=%s ip=%s\n",
		reqid, p.Method, p.Path, p.StatusCode, p.BodySize, p.Latency, p.ClientIP)
}

// Recoverer answers a handler panic with the JSON 500 envelope. gin writes
// the stack to its error writer.
func Recoverer() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		logs.Logger.WithField("request_id", c.GetString(handlers.RequestIDKey)).
			Errorf("panic: %v uri=%s method=%s", rec, c.Request.RequestURI, c.Request.Method)
		abortJSON(c, http.StatusInternalServerError, "Internal server error",
			"unexpected server error (see logs by reqid)", "ERR_INTERNAL")
	})
}
