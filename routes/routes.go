package routes

import (
	"net/http"

	"parkingapp/handlers"
	"parkingapp/models"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the engine with the request middleware chain and the API under /api.
func NewRouter(h *handlers.Handler, auth Authenticator) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(), Recoverer())
	api := r.Group("/api")
	Path(api, h, auth)
	return r
}

func Path(router *gin.RouterGroup, h *handlers.Handler, auth Authenticator) {
	v1 := router.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong"})
		})

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
		}

		withAuth := v1.Group("")
		withAuth.Use(AuthMiddleware(auth))

		anyone := RoleMiddleware(models.RoleUser, models.RoleAdmin)
		adminOnly := RoleMiddleware(models.RoleAdmin)

		withAuth.GET("/user/profile", anyone, h.Profile)

		facilities := withAuth.Group("/facilities")
		{
			facilities.GET("", anyone, h.ListFacilities)
			facilities.POST("", adminOnly, h.CreateFacility)
			facilities.PUT("/:id", adminOnly, h.UpdateFacility)
			facilities.DELETE("/:id", adminOnly, h.DeleteFacility)
		}

		slots := withAuth.Group("/slots", adminOnly)
		{
			slots.GET("/:facilityId/:position", h.GetSlot)
			slots.DELETE("/:facilityId/:position", h.DeleteSlot)
		}

		bookings := withAuth.Group("/bookings", anyone)
		{
			bookings.POST("/reserve", h.Reserve)
			bookings.GET("/history", h.History)
			bookings.POST("/release", h.Release)
		}

		admin := withAuth.Group("/admin", adminOnly)
		{
			admin.GET("/accounts", h.ListAccounts)
			admin.PUT("/accounts/:id/active", h.SetAccountActive)
			admin.POST("/accounts/:id/roles", h.AssignRole)
			admin.GET("/summary", h.Summary)
			admin.GET("/revenue-per-facility", h.RevenuePerFacility)
			admin.GET("/lot-stats", h.LotStats)
			admin.GET("/export-csv", h.ExportCSV)
			admin.GET("/export-result/:jobId", h.ExportResult)
			admin.GET("/send-monthly-report", h.SendMonthlyReport)
			admin.GET("/jobs/:jobId", h.JobStatus)
		}
	}
}
