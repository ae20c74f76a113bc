package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupWebRoutes serves the index listing.
func SetupWebRoutes(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Russian address classifier",
			"endpoints": map[string]string{
				"parse":        "POST /v1/addresses/parse",
				"batch":        "POST /v1/addresses/batch",
				"job_status":   "GET /v1/jobs/:jobID",
				"job_results":  "GET /v1/jobs/:jobID/results?format=json|ndjson|xlsx",
				"validate":     "POST /v1/formats/validate",
				"render":       "POST /v1/formats/render",
				"types":        "GET /v1/catalog/types?text=",
				"invalidate":   "POST /admin/cache/invalidate",
				"stats":        "GET /admin/stats",
				"seed":         "POST /admin/classifier/seed",
				"health_check": "GET /healthz",
			},
		})
	})
}
