package responses

import (
	"github.com/address-classifier/app/models"
	"github.com/address-classifier/app/services"
)

// ParseAddressResponse is the result of a single parse.
type ParseAddressResponse struct {
	Result           models.AddressResult `json:"result"`
	ProcessingTimeMs int64                `json:"processing_time_ms"`
	CacheHit         bool                 `json:"cache_hit"`
}

// BatchParseResponse acknowledges a batch job.
type BatchParseResponse struct {
	JobID          string `json:"job_id"`
	TotalAddresses int    `json:"total_addresses"`
	Message        string `json:"message"`
}

// JobStatusResponse is the progress of a batch job.
type JobStatusResponse struct {
	models.Job
	Progress float64 `json:"progress"`
}

// FormatValidateResponse reports whether a format string compiles.
type FormatValidateResponse struct {
	Valid  bool         `json:"valid"`
	Items  int          `json:"items,omitempty"`
	Source string       `json:"source,omitempty"`
	Error  *FormatError `json:"error,omitempty"`
}

// FormatError locates a syntax error in a format string.
type FormatError struct {
	Message string `json:"message"`
	Offset  int    `json:"offset"`
	Length  int    `json:"length"`
	Caret   string `json:"caret"`
}

// FormatRenderResponse is a rendered address.
type FormatRenderResponse struct {
	Text string `json:"text"`
}

// TypeLookupResponse lists the levels an address object type is valid at.
type TypeLookupResponse struct {
	Text   string               `json:"text"`
	Levels []services.TypeMatch `json:"levels"`
}

// SeedClassifierResponse reports an index rebuild.
type SeedClassifierResponse struct {
	Source           string `json:"source"`
	Documents        int    `json:"documents"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// AdminStatsResponse aggregates service statistics.
type AdminStatsResponse struct {
	Cache         *services.CacheStats    `json:"cache"`
	Parser        services.ParserStats    `json:"parser"`
	Jobs          int                     `json:"jobs"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	Classifier    services.ClassifierInfo `json:"classifier"`
}

// ErrorResponse is returned on failure.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps a payload.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// HealthCheckResponse reports liveness.
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}
