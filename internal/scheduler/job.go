package scheduler

import (
	"context"
	"time"

	"github.com/wonny/astrobet/internal/contracts"
)

// Job is a unit of scheduled work
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	Run(ctx context.Context) error

	// Schedule returns a cron expression with a seconds field,
	// e.g. "0 0 6 * * *" (every day at 06:00) or "@daily"
	Schedule() string
}

// BatchReporter is implemented by jobs that run a scoring batch.
// The scheduler attaches the latest summary to the job's result.
type BatchReporter interface {
	LastBatch() (contracts.RunSummary, bool)
}

// historyLimit bounds the results kept per job
const historyLimit = 100

// JobResult is one execution of a job, retries included
type JobResult struct {
	JobName   string                `json:"job_name"`
	StartTime time.Time             `json:"start_time"`
	EndTime   time.Time             `json:"end_time"`
	Duration  time.Duration         `json:"duration"`
	Attempts  int                   `json:"attempts"`
	Success   bool                  `json:"success"`
	Error     string                `json:"error,omitempty"`
	Batch     *contracts.RunSummary `json:"batch,omitempty"`
}

// JobHistory keeps the most recent results of one job, oldest first
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, keeping the latest historyLimit entries
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)

	if len(h.Results) > historyLimit {
		h.Results = h.Results[len(h.Results)-historyLimit:]
	}
}

// GetLatestResults returns the latest N results
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// FailureCount counts failed results in the window
func (h *JobHistory) FailureCount() int {
	n := 0
	for _, r := range h.Results {
		if !r.Success {
			n++
		}
	}
	return n
}

// ConsecutiveFailures counts failures since the last success
func (h *JobHistory) ConsecutiveFailures() int {
	n := 0
	for i := len(h.Results) - 1; i >= 0 && !h.Results[i].Success; i-- {
		n++
	}
	return n
}

// LastBatch returns the newest batch summary recorded, if any
func (h *JobHistory) LastBatch() *contracts.RunSummary {
	for i := len(h.Results) - 1; i >= 0; i-- {
		if h.Results[i].Batch != nil {
			return h.Results[i].Batch
		}
	}
	return nil
}

// GetSuccessRate returns the success rate (0.0 - 1.0)
func (h *JobHistory) GetSuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}
	return float64(len(h.Results)-h.FailureCount()) / float64(len(h.Results))
}
