package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/address-classifier/app/config"
	"github.com/address-classifier/app/models"
	"github.com/address-classifier/app/responses"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const pushkino = "141200, Московская обл, г.Пушкино, ул.Ленина, д.5"

func newTestApp(t *testing.T, mutate func(*config.Config)) (*App, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	app, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app, app.Router()
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestBuild_Defaults(t *testing.T) {
	app, _ := newTestApp(t, nil)
	assert.NotNil(t, app.Cache)
	info := app.Classifier.Info()
	assert.Equal(t, "memory", info.Backend)
	assert.Positive(t, info.Objects)
}

func TestBuild_NoCache(t *testing.T) {
	app, router := newTestApp(t, func(c *config.Config) { c.Cache.Backend = "none" })
	assert.Nil(t, app.Cache)

	w := do(t, router, http.MethodPost, "/admin/cache/invalidate", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBuild_MissingClassifierFile(t *testing.T) {
	cfg := config.Default()
	cfg.Classifier.Data = "/nonexistent/objects.yaml"
	_, err := Build(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestRouter_Parse(t *testing.T) {
	_, router := newTestApp(t, nil)

	w := do(t, router, http.MethodPost, "/v1/addresses/parse", map[string]any{"address": pushkino})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[responses.ParseAddressResponse](t, w)
	assert.False(t, resp.CacheHit)
	assert.True(t, resp.Result.Matched)
	street, ok := resp.Result.Component("STREET")
	require.True(t, ok)
	assert.Equal(t, "Ленина", street.Name)
	assert.NotEmpty(t, street.GUID)

	w = do(t, router, http.MethodPost, "/v1/addresses/parse", map[string]any{"address": pushkino})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[responses.ParseAddressResponse](t, w).CacheHit)
}

func TestRouter_ParseCells(t *testing.T) {
	_, router := newTestApp(t, nil)
	body := map[string]any{
		"cells": []map[string]string{
			{"text": "г.Москва", "levels": "CITY"},
			{"text": "ул.Тверская", "levels": "STREET"},
			{"text": "д.5", "levels": "HOUSE,BUILDING,STRUCTURE"},
		},
		"options": map[string]any{"format": "CITY.NAME, STREET.NAME, HOUSE.NUM"},
	}
	w := do(t, router, http.MethodPost, "/v1/addresses/parse", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Москва, Тверская, 5", decode[responses.ParseAddressResponse](t, w).Result.Formatted)
}

func TestRouter_ParseErrors(t *testing.T) {
	_, router := newTestApp(t, nil)

	testCases := []struct {
		name string
		body any
		code int
		err  string
	}{
		{"empty", map[string]any{"address": " "}, http.StatusBadRequest, "EMPTY_ADDRESS"},
		{"bad format", map[string]any{"address": pushkino, "options": map[string]any{"format": "CITY, FOO"}}, http.StatusBadRequest, "INVALID_FORMAT"},
		{"bad json", "not an object", http.StatusBadRequest, "INVALID_REQUEST"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/v1/addresses/parse", tc.body)
			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, tc.err, decode[responses.ErrorResponse](t, w).Error)
		})
	}
}

func TestRouter_BatchJob(t *testing.T) {
	app, router := newTestApp(t, nil)

	w := do(t, router, http.MethodPost, "/v1/addresses/batch", map[string]any{
		"addresses": []string{pushkino, "г.Москва, ул.Тверская, д.5"},
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	accepted := decode[responses.BatchParseResponse](t, w)
	assert.Equal(t, 2, accepted.TotalAddresses)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := app.Jobs.Wait(ctx, accepted.JobID)
	require.NoError(t, err)

	w = do(t, router, http.MethodGet, "/v1/jobs/"+accepted.JobID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[responses.JobStatusResponse](t, w)
	assert.Equal(t, models.JobStatusDone, status.Status)
	assert.InDelta(t, 1.0, status.Progress, 1e-9)

	w = do(t, router, http.MethodGet, "/v1/jobs/"+accepted.JobID+"/results", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var results struct {
		Data []models.AddressResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results.Data, 2)
	assert.Equal(t, pushkino, results.Data[0].Raw)

	w = do(t, router, http.MethodGet, "/v1/jobs/"+accepted.JobID+"/results?format=xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	rows, err := f.GetRows("Addresses")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	f.Close()

	w = do(t, router, http.MethodGet, "/v1/jobs/"+accepted.JobID+"/results?format=ndjson", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, bytes.Count(w.Body.Bytes(), []byte("\n")))

	w = do(t, router, http.MethodGet, "/v1/jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodPost, "/v1/addresses/batch", map[string]any{"addresses": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Formats(t *testing.T) {
	_, router := newTestApp(t, nil)

	w := do(t, router, http.MethodPost, "/v1/formats/validate", map[string]any{"format": "CITY, STREET"})
	require.Equal(t, http.StatusOK, w.Code)
	valid := decode[responses.FormatValidateResponse](t, w)
	assert.True(t, valid.Valid)
	assert.Equal(t, 2, valid.Items)

	w = do(t, router, http.MethodPost, "/v1/formats/validate", map[string]any{"format": "CITY, FOO"})
	require.Equal(t, http.StatusOK, w.Code)
	invalid := decode[responses.FormatValidateResponse](t, w)
	assert.False(t, invalid.Valid)
	require.NotNil(t, invalid.Error)
	assert.Equal(t, 6, invalid.Error.Offset)
	assert.Equal(t, "CITY, FOO\n      ^~~", invalid.Error.Caret)

	w = do(t, router, http.MethodPost, "/v1/formats/render", map[string]any{
		"format":     "CITY, STREET",
		"components": map[string]string{"CITY": "Москва", "STREET": "Тверская"},
		"types":      map[string]string{"CITY": "город", "STREET": "улица"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "г. Москва, ул. Тверская", decode[responses.FormatRenderResponse](t, w).Text)

	w = do(t, router, http.MethodPost, "/v1/formats/render", map[string]any{
		"format":     "CITY",
		"components": map[string]string{"VILLAGE": "x"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_COMPONENT", decode[responses.ErrorResponse](t, w).Error)

	w = do(t, router, http.MethodGet, "/v1/catalog/types?text=улица", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[responses.TypeLookupResponse](t, w).Levels)

	w = do(t, router, http.MethodGet, "/v1/catalog/types", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Admin(t *testing.T) {
	_, router := newTestApp(t, nil)
	do(t, router, http.MethodPost, "/v1/addresses/parse", map[string]any{"address": pushkino})

	w := do(t, router, http.MethodGet, "/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[responses.AdminStatsResponse](t, w)
	assert.Equal(t, int64(1), stats.Parser.Parsed)
	require.NotNil(t, stats.Cache)
	assert.Equal(t, int64(1), stats.Cache.TotalItems)

	w = do(t, router, http.MethodPost, "/admin/cache/invalidate", map[string]any{"address": pushkino})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, router, http.MethodPost, "/v1/addresses/parse", map[string]any{"address": pushkino})
	assert.False(t, decode[responses.ParseAddressResponse](t, w).CacheHit)

	w = do(t, router, http.MethodPost, "/admin/classifier/seed", map[string]any{"source": "sample"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Positive(t, decode[responses.SeedClassifierResponse](t, w).Documents)

	w = do(t, router, http.MethodPost, "/admin/classifier/seed", map[string]any{"source": "mongo"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, http.MethodPost, "/admin/classifier/seed", map[string]any{"source": "ftp"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_HealthAndNotFound(t *testing.T) {
	_, router := newTestApp(t, nil)

	w := do(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[responses.HealthCheckResponse](t, w)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "sample", health.Version)

	w = do(t, router, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
