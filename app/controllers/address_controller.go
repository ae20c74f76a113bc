package controllers

import (
	"compress/gzip"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/address-classifier/app/requests"
	"github.com/address-classifier/app/responses"
	"github.com/address-classifier/app/services"
	"github.com/address-classifier/internal/format"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AddressController serves parsing and batch jobs.
type AddressController struct {
	addressService *services.AddressService
	jobService     *services.JobService
	logger         *zap.Logger
}

// NewAddressController creates an AddressController.
func NewAddressController(addressService *services.AddressService, jobService *services.JobService, logger *zap.Logger) *AddressController {
	return &AddressController{
		addressService: addressService,
		jobService:     jobService,
		logger:         logger,
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, responses.ErrorResponse{Error: code, Message: message})
}

// respondFormatError answers 400 for a bad format string.
func respondFormatError(c *gin.Context, src string, err error) bool {
	var syn *format.SyntaxError
	if !errors.As(err, &syn) {
		return false
	}
	c.JSON(http.StatusBadRequest, responses.ErrorResponse{
		Error:   "INVALID_FORMAT",
		Message: syn.Error(),
		Details: responses.FormatError{
			Message: syn.Msg,
			Offset:  syn.Offset,
			Length:  syn.Length,
			Caret:   syn.Caret(src),
		},
	})
	return true
}

// ParseAddress parses one address.
func (ac *AddressController) ParseAddress(c *gin.Context) {
	var req requests.ParseAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	start := time.Now()
	result, hit, err := ac.addressService.Parse(c.Request.Context(), req)
	switch {
	case errors.Is(err, services.ErrEmptyAddress):
		respondError(c, http.StatusBadRequest, "EMPTY_ADDRESS", err.Error())
		return
	case err != nil && respondFormatError(c, req.Options.Format, err):
		return
	case err != nil:
		ac.logger.Error("Parse failed", zap.String("address", req.Address), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "PARSE_ERROR", err.Error())
		return
	}

	c.JSON(http.StatusOK, responses.ParseAddressResponse{
		Result:           *result,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		CacheHit:         hit,
	})
}

// BatchParse starts a batch job.
func (ac *AddressController) BatchParse(c *gin.Context) {
	var req requests.BatchParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if req.Options.Format != "" {
		if _, err := format.Parse(req.Options.Format); err != nil {
			respondFormatError(c, req.Options.Format, err)
			return
		}
	}

	job, err := ac.jobService.Submit(req.Addresses, req.Options)
	switch {
	case errors.Is(err, services.ErrTooManyAddresses):
		respondError(c, http.StatusBadRequest, "TOO_MANY_ADDRESSES", err.Error())
		return
	case err != nil:
		respondError(c, http.StatusServiceUnavailable, "JOB_REJECTED", err.Error())
		return
	}

	c.JSON(http.StatusAccepted, responses.BatchParseResponse{
		JobID:          job.ID,
		TotalAddresses: job.Total,
		Message:        "job accepted",
	})
}

// GetJobStatus reports job progress.
func (ac *AddressController) GetJobStatus(c *gin.Context) {
	job, err := ac.jobService.Status(c.Param("jobID"))
	if err != nil {
		respondError(c, http.StatusNotFound, "JOB_NOT_FOUND", err.Error())
		return
	}
	c.JSON(http.StatusOK, responses.JobStatusResponse{Job: job, Progress: job.Progress()})
}

// GetJobResults returns the results of a finished job as JSON, NDJSON
// (optionally gzipped) or XLSX.
func (ac *AddressController) GetJobResults(c *gin.Context) {
	jobID := c.Param("jobID")
	results, err := ac.jobService.Results(jobID)
	switch {
	case errors.Is(err, services.ErrJobNotFinished):
		respondError(c, http.StatusConflict, "JOB_NOT_FINISHED", err.Error())
		return
	case err != nil:
		respondError(c, http.StatusNotFound, "JOB_NOT_FOUND", err.Error())
		return
	}

	switch strings.ToLower(c.DefaultQuery("format", "json")) {
	case "ndjson":
		c.Header("Content-Type", "application/x-ndjson")
		if c.Query("gzip") == "1" {
			c.Header("Content-Encoding", "gzip")
			gz := gzip.NewWriter(c.Writer)
			defer gz.Close()
			if err := services.WriteNDJSON(gz, results); err != nil {
				ac.logger.Error("NDJSON stream failed", zap.String("job_id", jobID), zap.Error(err))
			}
			return
		}
		if err := services.WriteNDJSON(c.Writer, results); err != nil {
			ac.logger.Error("NDJSON stream failed", zap.String("job_id", jobID), zap.Error(err))
		}
	case "xlsx":
		c.Header("Content-Type", xlsxContentType)
		c.Header("Content-Disposition", `attachment; filename="`+jobID+`.xlsx"`)
		if err := services.WriteXLSX(c.Writer, results); err != nil {
			ac.logger.Error("XLSX export failed", zap.String("job_id", jobID), zap.Error(err))
		}
	case "json":
		c.JSON(http.StatusOK, responses.SuccessResponse{
			Success: true,
			Message: "ok",
			Data:    results,
		})
	default:
		respondError(c, http.StatusBadRequest, "UNKNOWN_FORMAT", "format must be json, ndjson or xlsx")
	}
}

// HealthCheck reports liveness.
func (ac *AddressController) HealthCheck(c *gin.Context) {
	svc := map[string]string{"parser": "healthy", "cache": "disabled"}
	if ac.addressService.Cache() != nil {
		svc["cache"] = "healthy"
	}
	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(ac.addressService.GetStartTime()).Round(time.Second).String(),
		Version:   ac.addressService.Version(),
		Services:  svc,
	})
}
