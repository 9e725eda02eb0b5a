package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/astrobet/internal/chart"
	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/internal/scoring"
	"github.com/wonny/astrobet/pkg/logger"
	"github.com/wonny/astrobet/pkg/metrics"
)

// ChartComputer builds a natal chart with aspects
type ChartComputer interface {
	Compute(m contracts.Moment, loc contracts.GeoCoordinate) (*chart.Result, error)
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now returns f()
func (f ClockFunc) Now() time.Time {
	return f()
}

// Deps are the pipeline collaborators. Population, Statistics, Store, Charts
// and Normalizer are required; the rest fall back to no-op defaults.
type Deps struct {
	Population contracts.PopulationSource
	Statistics contracts.StatisticsSource
	Store      contracts.ScoreStore
	Charts     ChartComputer
	Normalizer *scoring.Normalizer
	Pacer      Pacer
	Metrics    *metrics.Metrics
	Logger     *logger.Logger
	Clock      Clock
}

// RunOptions controls one batch run
type RunOptions struct {
	// AsOf stamps every persisted record; nil means Clock.Now()
	AsOf   *time.Time
	DryRun bool
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithProgressEvery logs progress every n entities (0 disables)
func WithProgressEvery(n int) Option {
	return func(p *Pipeline) {
		p.progressEvery = n
	}
}

// Pipeline recomputes and persists influence scores for a population.
// Entities are processed strictly one at a time in population order.
// ⭐ SSOT: 배치 점수 계산 오케스트레이션은 여기서만
type Pipeline struct {
	deps          Deps
	progressEvery int
}

// New creates a pipeline. Missing required deps are reported by Run.
func New(deps Deps, opts ...Option) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = ClockFunc(time.Now)
	}
	if deps.Pacer == nil {
		deps.Pacer = NewFixedPacer(0)
	}

	p := &Pipeline{
		deps:          deps,
		progressEvery: 50,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run carries the mutable state of one Run call
type run struct {
	summary contracts.RunSummary
	log     *logger.Logger
}

func (r *run) setPhase(phase contracts.Phase) {
	r.summary.Phase = phase
	r.log.WithField("phase", string(phase)).Debug("Batch phase")
}

// Run executes one batch. A non-nil error means the run did not complete:
// fatal configuration, population fetch or statistics fetch failure, or
// cancellation. Per-entity failures never abort the run.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (contracts.RunSummary, error) {
	d := p.deps
	startedAt := d.Clock.Now()
	asOf := startedAt
	if opts.AsOf != nil {
		asOf = *opts.AsOf
	}

	r := &run{
		summary: contracts.RunSummary{
			RunID:     uuid.NewString(),
			AsOf:      asOf,
			DryRun:    opts.DryRun,
			StartedAt: startedAt,
		},
	}
	r.log = d.Logger.WithRunID(r.summary.RunID).WithModule("pipeline")

	if err := p.checkPreconditions(ctx, opts); err != nil {
		return p.finish(r, err)
	}

	r.log.WithFields(map[string]interface{}{
		"as_of":   asOf.Format(time.RFC3339),
		"dry_run": opts.DryRun,
		"source":  d.Statistics.Name(),
	}).Info("Starting scoring batch")

	// 1. Population
	r.setPhase(contracts.PhaseFetchingPopulation)
	entities, err := d.Population.ListEntities(ctx)
	if err != nil {
		return p.finish(r, fmt.Errorf("fetch population: %w", err))
	}
	r.summary.Total = len(entities)

	// 2. Statistics + matching
	r.setPhase(contracts.PhaseMatchingIdentifiers)
	records, err := d.Statistics.FetchStatistics(ctx)
	if err != nil {
		return p.finish(r, fmt.Errorf("fetch statistics from %s: %w", d.Statistics.Name(), err))
	}
	matcher := NewMatcher(records)

	r.log.WithFields(map[string]interface{}{
		"entities":   len(entities),
		"statistics": matcher.Len(),
	}).Info("Population and statistics loaded")

	// 3. Per entity: chart -> score -> upsert
	loopStart := time.Now()
	for i, e := range entities {
		if err := ctx.Err(); err != nil {
			return p.finish(r, fmt.Errorf("batch cancelled after %d of %d entities: %w", i, len(entities), err))
		}

		outcome, err := p.processEntity(ctx, r, matcher, e, asOf, opts.DryRun)
		if errors.Is(err, errPacing) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return p.finish(r, fmt.Errorf("batch cancelled after %d of %d entities: %w", i, len(entities), err))
		}

		switch outcome {
		case metrics.OutcomeUpdated:
			r.summary.Updated++
		case metrics.OutcomeSkipped:
			r.summary.Skipped++
		default:
			r.summary.Failed++
		}
		d.Metrics.ObserveEntity(outcome)

		p.logProgress(r, i+1, len(entities), loopStart)
	}

	return p.finish(r, nil)
}

// checkPreconditions aborts before any entity when the run cannot succeed
func (p *Pipeline) checkPreconditions(ctx context.Context, opts RunOptions) error {
	d := p.deps
	var missing []string
	if d.Population == nil {
		missing = append(missing, "population source")
	}
	if d.Statistics == nil {
		missing = append(missing, "statistics source")
	}
	if d.Store == nil {
		missing = append(missing, "score store")
	}
	if d.Charts == nil {
		missing = append(missing, "chart computer")
	}
	if d.Normalizer == nil {
		missing = append(missing, "normalizer")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", contracts.ErrFatalConfiguration, missing)
	}

	if opts.DryRun {
		return nil
	}
	if err := d.Store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: store unreachable: %v", contracts.ErrFatalConfiguration, err)
	}
	return nil
}

// errPacing marks a pacer refusal. It stops the batch: the entity was not
// attempted and later ones would be refused the same way.
var errPacing = errors.New("pacer refused")

// processEntity returns the entity's outcome. The error is only non-nil for
// failed entities and is returned for logging and cancellation checks.
func (p *Pipeline) processEntity(ctx context.Context, r *run, matcher *Matcher, e contracts.Entity, asOf time.Time, dryRun bool) (string, error) {
	d := p.deps
	log := r.log.WithEntity(e.ID, e.Name)

	stats, method, ok := matcher.Match(e)
	if !ok {
		log.Debug("No statistics match, skipping")
		return metrics.OutcomeSkipped, nil
	}

	r.summary.Phase = contracts.PhaseComputing
	res, err := d.Charts.Compute(e.Birth, e.BirthPlace)
	if err != nil {
		log.WithError(err).Warn("Chart computation failed")
		return metrics.OutcomeFailed, err
	}

	result := d.Normalizer.Score(res.Aspects, stats)
	rec := d.Normalizer.Record(e.ID, result, asOf)

	log = log.WithFields(map[string]interface{}{
		"match":       string(method),
		"raw":         result.Raw,
		"score":       result.Score,
		"astro_index": result.AstroIndex,
		"degraded":    res.Chart.Houses.Degraded,
	})

	if dryRun {
		log.Debug("Dry run, not persisting")
		return metrics.OutcomeUpdated, nil
	}

	r.summary.Phase = contracts.PhasePersisting
	if err := d.Pacer.Wait(ctx); err != nil {
		return metrics.OutcomeFailed, fmt.Errorf("%w: %w", errPacing, err)
	}
	if err := d.Store.UpsertScore(ctx, rec); err != nil {
		log.WithError(err).Error("Failed to persist score")
		return metrics.OutcomeFailed, fmt.Errorf("upsert score %s: %w", e.ID, err)
	}

	d.Metrics.ObserveScore(rec.NormalizedScore)
	log.Debug("Score persisted")
	return metrics.OutcomeUpdated, nil
}

func (p *Pipeline) logProgress(r *run, done, total int, loopStart time.Time) {
	if p.progressEvery <= 0 || (done%p.progressEvery != 0 && done != total) {
		return
	}

	elapsed := time.Since(loopStart)
	eta := time.Duration(0)
	if done > 0 {
		eta = time.Duration(float64(elapsed) / float64(done) * float64(total-done))
	}

	r.log.WithFields(map[string]interface{}{
		"processed": done,
		"total":     total,
		"updated":   r.summary.Updated,
		"skipped":   r.summary.Skipped,
		"failed":    r.summary.Failed,
		"elapsed":   elapsed.Round(time.Second).String(),
		"eta":       eta.Round(time.Second).String(),
	}).Info("Batch progress")
}

func (p *Pipeline) finish(r *run, err error) (contracts.RunSummary, error) {
	r.summary.FinishedAt = p.deps.Clock.Now()
	r.summary.Duration = r.summary.FinishedAt.Sub(r.summary.StartedAt)

	if err != nil {
		r.summary.Phase = contracts.PhaseFailed
	} else {
		r.summary.Phase = contracts.PhaseDone
	}
	p.deps.Metrics.ObserveRun(string(r.summary.Phase), r.summary.Duration, r.summary.FinishedAt)

	log := r.log.WithFields(map[string]interface{}{
		"phase":    string(r.summary.Phase),
		"total":    r.summary.Total,
		"updated":  r.summary.Updated,
		"skipped":  r.summary.Skipped,
		"failed":   r.summary.Failed,
		"duration": r.summary.Duration.String(),
	})
	if err != nil {
		log.WithError(err).Error("Scoring batch failed")
		return r.summary, err
	}
	log.Info("Scoring batch completed")
	return r.summary, nil
}
