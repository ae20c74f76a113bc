package models

import "time"

// Job status constants
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// Job is a batch parse request and its progress.
type Job struct {
	ID        string    `json:"job_id"`
	Status    string    `json:"status"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
	Failed    int       `json:"failed"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Progress is the processed share in [0, 1].
func (j *Job) Progress() float64 {
	if j.Total == 0 {
		return 1
	}
	return float64(j.Processed) / float64(j.Total)
}

// Finished reports whether the job will not change any more.
func (j *Job) Finished() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusFailed
}
