package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/address-classifier/app/models"
	"github.com/address-classifier/app/requests"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrJobNotFinished   = errors.New("job not finished")
	ErrTooManyAddresses = errors.New("too many addresses")
	ErrShuttingDown     = errors.New("job service is shutting down")
)

// AddressParser is the single-address operation a job runs.
type AddressParser interface {
	Parse(ctx context.Context, req requests.ParseAddressRequest) (*models.AddressResult, bool, error)
}

type jobEntry struct {
	mu      sync.Mutex
	job     models.Job
	results []*models.AddressResult
}

func (e *jobEntry) snapshot() models.Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job
}

// JobService runs batch parses on a bounded worker pool and keeps jobs for
// a limited time.
type JobService struct {
	parser       AddressParser
	store        *gocache.Cache
	workers      int
	maxAddresses int
	logger       *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJobService creates a JobService. Finished and running jobs are
// forgotten ttl after submission.
func NewJobService(parser AddressParser, workers, maxAddresses int, ttl time.Duration, logger *zap.Logger) *JobService {
	if workers <= 0 {
		workers = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobService{
		parser:       parser,
		store:        gocache.New(ttl, ttl/2),
		workers:      workers,
		maxAddresses: maxAddresses,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Submit starts a job and returns its initial state.
func (js *JobService) Submit(addresses []string, opts requests.ParseOptions) (models.Job, error) {
	if js.maxAddresses > 0 && len(addresses) > js.maxAddresses {
		return models.Job{}, fmt.Errorf("%w: %d > %d", ErrTooManyAddresses, len(addresses), js.maxAddresses)
	}
	if js.ctx.Err() != nil {
		return models.Job{}, ErrShuttingDown
	}
	now := time.Now()
	e := &jobEntry{
		job: models.Job{
			ID:        uuid.NewString(),
			Status:    models.JobStatusPending,
			Total:     len(addresses),
			CreatedAt: now,
			UpdatedAt: now,
		},
		results: make([]*models.AddressResult, len(addresses)),
	}
	js.store.SetDefault(e.job.ID, e)

	js.wg.Add(1)
	go func() {
		defer js.wg.Done()
		js.run(e, addresses, opts)
	}()
	return e.snapshot(), nil
}

func (js *JobService) run(e *jobEntry, addresses []string, opts requests.ParseOptions) {
	start := time.Now()
	e.mu.Lock()
	e.job.Status = models.JobStatusRunning
	id := e.job.ID
	e.mu.Unlock()

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < js.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				if js.ctx.Err() != nil {
					continue
				}
				js.parseOne(e, i, addresses[i], opts)
			}
		}()
	}
feed:
	for i := range addresses {
		select {
		case indexes <- i:
		case <-js.ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.job.UpdatedAt = time.Now()
	if js.ctx.Err() != nil && e.job.Processed < e.job.Total {
		e.job.Status = models.JobStatusFailed
		e.job.Message = "cancelled"
	} else {
		e.job.Status = models.JobStatusDone
	}
	js.logger.Info("Batch job finished",
		zap.String("job_id", id),
		zap.String("status", e.job.Status),
		zap.Int("total", e.job.Total),
		zap.Int("failed", e.job.Failed),
		zap.Duration("elapsed", time.Since(start)))
}

func (js *JobService) parseOne(e *jobEntry, i int, raw string, opts requests.ParseOptions) {
	result, _, err := js.parser.Parse(js.ctx, requests.ParseAddressRequest{Address: raw, Options: opts})
	if err != nil {
		js.logger.Debug("Batch address failed", zap.String("address", raw), zap.Error(err))
		result = &models.AddressResult{
			Raw:        raw,
			Components: []models.Component{},
			Severity:   "error",
			Status:     models.StatusUnmatched,
			Messages:   []models.Message{{Severity: "error", Text: err.Error()}},
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.results[i] = result
	e.job.Processed++
	if err != nil {
		e.job.Failed++
	}
	e.job.UpdatedAt = time.Now()
}

func (js *JobService) entry(id string) (*jobEntry, error) {
	v, ok := js.store.Get(id)
	if !ok {
		return nil, ErrJobNotFound
	}
	return v.(*jobEntry), nil
}

// Status returns the current state of a job.
func (js *JobService) Status(id string) (models.Job, error) {
	e, err := js.entry(id)
	if err != nil {
		return models.Job{}, err
	}
	return e.snapshot(), nil
}

// Results returns the results of a finished job in input order.
func (js *JobService) Results(id string) ([]*models.AddressResult, error) {
	e, err := js.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.job.Finished() {
		return nil, ErrJobNotFinished
	}
	out := make([]*models.AddressResult, 0, len(e.results))
	for _, r := range e.results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// Wait blocks until the job finishes or ctx is done.
func (js *JobService) Wait(ctx context.Context, id string) (models.Job, error) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		job, err := js.Status(id)
		if err != nil || job.Finished() {
			return job, err
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Count returns the number of stored jobs.
func (js *JobService) Count() int { return js.store.ItemCount() }

// Shutdown cancels running jobs and waits for their workers.
func (js *JobService) Shutdown(ctx context.Context) error {
	js.cancel()
	done := make(chan struct{})
	go func() {
		js.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
