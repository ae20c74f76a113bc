package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/address-classifier/app/requests"
	"github.com/address-classifier/app/responses"
	"github.com/address-classifier/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminController serves cache, statistics and classifier maintenance.
type AdminController struct {
	addressService    *services.AddressService
	jobService        *services.JobService
	classifierService *services.ClassifierService
	logger            *zap.Logger
}

// NewAdminController creates an AdminController.
func NewAdminController(addressService *services.AddressService, jobService *services.JobService, classifierService *services.ClassifierService, logger *zap.Logger) *AdminController {
	return &AdminController{
		addressService:    addressService,
		jobService:        jobService,
		classifierService: classifierService,
		logger:            logger,
	}
}

// InvalidateCache drops one address or, without an address, results of
// other classifier versions.
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	cache := ac.addressService.Cache()
	if cache == nil {
		respondError(c, http.StatusConflict, "CACHE_DISABLED", "result cache is disabled")
		return
	}
	var req requests.InvalidateCacheRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}

	ctx := c.Request.Context()
	var err error
	if req.Address != "" {
		err = cache.Delete(ctx, ac.addressService.CacheKey(
			requests.ParseAddressRequest{Address: req.Address}, ac.addressService.DefaultFormat()))
	} else {
		err = cache.InvalidateByClassifierVersion(ctx, ac.addressService.Version())
	}
	if err != nil {
		ac.logger.Error("Cache invalidation failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "CACHE_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, responses.SuccessResponse{Success: true, Message: "cache invalidated"})
}

// GetStats aggregates cache, parser and job statistics.
func (ac *AdminController) GetStats(c *gin.Context) {
	resp := responses.AdminStatsResponse{
		Parser:        ac.addressService.Stats(),
		Jobs:          ac.jobService.Count(),
		UptimeSeconds: int64(time.Since(ac.addressService.GetStartTime()).Seconds()),
		Classifier:    ac.classifierService.Info(),
	}
	if cache := ac.addressService.Cache(); cache != nil {
		stats, err := cache.GetStats(c.Request.Context())
		if err != nil {
			ac.logger.Warn("Cache stats failed", zap.Error(err))
		}
		resp.Cache = stats
	}
	c.JSON(http.StatusOK, resp)
}

// SeedClassifier reloads the classifier from a source.
func (ac *AdminController) SeedClassifier(c *gin.Context) {
	var req requests.SeedClassifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	start := time.Now()
	n, err := ac.classifierService.Seed(c.Request.Context(), req.Source, req.BatchSize)
	switch {
	case errors.Is(err, services.ErrNoRepository):
		respondError(c, http.StatusConflict, "NO_REPOSITORY", err.Error())
		return
	case err != nil:
		ac.logger.Error("Classifier seed failed", zap.String("source", req.Source), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "SEED_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, responses.SeedClassifierResponse{
		Source:           req.Source,
		Documents:        n,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}
