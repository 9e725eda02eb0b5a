package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/internal/pipeline"
	"github.com/wonny/astrobet/pkg/logger"
)

// BatchRunner runs one scoring batch
type BatchRunner interface {
	Run(ctx context.Context, opts pipeline.RunOptions) (contracts.RunSummary, error)
}

// ScoringJob recomputes every influence score on a schedule
// ⭐ SSOT: 점수 재계산 스케줄은 이 Job에서만
type ScoringJob struct {
	runner   BatchRunner
	schedule string
	logger   *logger.Logger

	mu      sync.Mutex
	last    contracts.RunSummary
	hasLast bool
}

// NewScoringJob creates a new scoring job
func NewScoringJob(runner BatchRunner, schedule string, log *logger.Logger) *ScoringJob {
	return &ScoringJob{
		runner:   runner,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScoringJob) Name() string {
	return "influence_scoring"
}

// Schedule returns the configured cron schedule (default daily 06:00)
func (j *ScoringJob) Schedule() string {
	return j.schedule
}

// Run executes one batch as of now. Per-entity failures do not fail the job.
func (j *ScoringJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled influence scoring")

	summary, err := j.runner.Run(ctx, pipeline.RunOptions{})

	j.mu.Lock()
	j.last, j.hasLast = summary, summary.RunID != ""
	j.mu.Unlock()

	if err != nil {
		return fmt.Errorf("scoring batch %s: %w", summary.RunID, err)
	}

	if summary.Failed > 0 {
		j.logger.WithFields(map[string]interface{}{
			"run_id": summary.RunID,
			"failed": summary.Failed,
			"total":  summary.Total,
		}).Warn("Scoring batch finished with failed entities")
	}
	return nil
}

// LastBatch returns the summary of the most recent batch, partial runs included
func (j *ScoringJob) LastBatch() (contracts.RunSummary, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last, j.hasLast
}
