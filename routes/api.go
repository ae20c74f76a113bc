package routes

import (
	"github.com/address-classifier/app/controllers"
	"github.com/gin-gonic/gin"
)

// Controllers groups the HTTP handlers.
type Controllers struct {
	Address *controllers.AddressController
	Format  *controllers.FormatController
	Admin   *controllers.AdminController
}

// SetupAPIRoutes registers the /v1 API.
func SetupAPIRoutes(router *gin.Engine, c Controllers) {
	v1 := router.Group("/v1")
	{
		addresses := v1.Group("/addresses")
		{
			addresses.POST("/parse", c.Address.ParseAddress)
			addresses.POST("/batch", c.Address.BatchParse)
		}

		jobs := v1.Group("/jobs")
		{
			jobs.GET("/:jobID", c.Address.GetJobStatus)
			jobs.GET("/:jobID/results", c.Address.GetJobResults)
		}

		formats := v1.Group("/formats")
		{
			formats.POST("/validate", c.Format.ValidateFormat)
			formats.POST("/render", c.Format.RenderFormat)
		}

		v1.GET("/catalog/types", c.Format.LookupTypes)
	}
}

// SetupAdminRoutes registers maintenance endpoints.
func SetupAdminRoutes(router *gin.Engine, c Controllers) {
	admin := router.Group("/admin")
	{
		admin.POST("/cache/invalidate", c.Admin.InvalidateCache)
		admin.GET("/stats", c.Admin.GetStats)
		admin.POST("/classifier/seed", c.Admin.SeedClassifier)
	}
}

// SetupHealthRoutes registers liveness probes.
func SetupHealthRoutes(router *gin.Engine, c Controllers) {
	router.GET("/healthz", c.Address.HealthCheck)
	router.GET("/health", c.Address.HealthCheck)
}
