package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/address-classifier/app/models"
	"github.com/address-classifier/app/requests"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// echoParser fails on addresses starting with "!".
type echoParser struct {
	calls atomic.Int64
	block chan struct{}
}

func (p *echoParser) Parse(ctx context.Context, req requests.ParseAddressRequest) (*models.AddressResult, bool, error) {
	p.calls.Add(1)
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
	if strings.HasPrefix(req.Address, "!") {
		return nil, false, errors.New("boom")
	}
	return &models.AddressResult{Raw: req.Address, Status: models.StatusMatched, Components: []models.Component{}}, false, nil
}

func waitJob(t *testing.T, js *JobService, id string) models.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := js.Wait(ctx, id)
	require.NoError(t, err)
	return job
}

func TestJobService_SubmitAndResults(t *testing.T) {
	p := &echoParser{}
	js := NewJobService(p, 3, 100, time.Minute, zap.NewNop())
	defer js.Shutdown(context.Background())

	addresses := make([]string, 25)
	for i := range addresses {
		addresses[i] = gofakeit.Street()
	}
	addresses[7] = "!broken"

	job, err := js.Submit(addresses, requests.ParseOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, 25, job.Total)

	job = waitJob(t, js, job.ID)
	assert.Equal(t, models.JobStatusDone, job.Status)
	assert.Equal(t, 25, job.Processed)
	assert.Equal(t, 1, job.Failed)
	assert.InDelta(t, 1.0, job.Progress(), 1e-9)

	results, err := js.Results(job.ID)
	require.NoError(t, err)
	require.Len(t, results, 25)
	for i, r := range results {
		assert.Equal(t, addresses[i], r.Raw, "results keep input order")
	}
	assert.Equal(t, models.StatusUnmatched, results[7].Status)
	require.Len(t, results[7].Messages, 1)
	assert.Equal(t, "boom", results[7].Messages[0].Text)
	assert.Equal(t, int64(25), p.calls.Load())
	assert.Equal(t, 1, js.Count())
}

func TestJobService_Errors(t *testing.T) {
	p := &echoParser{block: make(chan struct{})}
	js := NewJobService(p, 1, 2, time.Minute, zap.NewNop())

	_, err := js.Submit([]string{"a", "b", "c"}, requests.ParseOptions{})
	assert.ErrorIs(t, err, ErrTooManyAddresses)

	_, err = js.Status("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = js.Results("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	job, err := js.Submit([]string{"a"}, requests.ParseOptions{})
	require.NoError(t, err)
	_, err = js.Results(job.ID)
	assert.ErrorIs(t, err, ErrJobNotFinished)

	close(p.block)
	job = waitJob(t, js, job.ID)
	assert.Equal(t, models.JobStatusDone, job.Status)

	require.NoError(t, js.Shutdown(context.Background()))
	_, err = js.Submit([]string{"a"}, requests.ParseOptions{})
	assert.ErrorIs(t, err, ErrShuttingDown)
}

func TestJobService_ShutdownCancelsRunningJobs(t *testing.T) {
	p := &echoParser{block: make(chan struct{})}
	js := NewJobService(p, 1, 0, time.Minute, zap.NewNop())

	job, err := js.Submit([]string{"a", "b", "c"}, requests.ParseOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, js.Shutdown(ctx))

	job, err = js.Status(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, "cancelled", job.Message)
}
