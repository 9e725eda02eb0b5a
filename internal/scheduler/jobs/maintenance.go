package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/pkg/logger"
)

// StoreHealthJob pings the score store so an outage shows up before the next batch
type StoreHealthJob struct {
	store   contracts.ScoreStore
	timeout time.Duration
	logger  *logger.Logger
}

// NewStoreHealthJob creates a new store health job
func NewStoreHealthJob(store contracts.ScoreStore, log *logger.Logger) *StoreHealthJob {
	return &StoreHealthJob{
		store:   store,
		timeout: 10 * time.Second,
		logger:  log,
	}
}

// Name returns the job name
func (j *StoreHealthJob) Name() string {
	return "store_health"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *StoreHealthJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run pings the store
func (j *StoreHealthJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	if err := j.store.Ping(ctx); err != nil {
		j.logger.WithError(err).Warn("Score store unreachable")
		return fmt.Errorf("store ping: %w", err)
	}

	j.logger.WithField("latency", time.Since(start).String()).Debug("Score store healthy")
	return nil
}
