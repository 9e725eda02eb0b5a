package commands

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/astrobet/internal/aspects"
	"github.com/wonny/astrobet/internal/chart"
	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/internal/ephemeris"
	"github.com/wonny/astrobet/internal/external/espn"
	"github.com/wonny/astrobet/internal/external/msf"
	"github.com/wonny/astrobet/internal/houses"
	"github.com/wonny/astrobet/internal/pipeline"
	"github.com/wonny/astrobet/internal/scoring"
	"github.com/wonny/astrobet/internal/store"
	"github.com/wonny/astrobet/internal/store/postgres"
	"github.com/wonny/astrobet/internal/store/supabase"
	"github.com/wonny/astrobet/internal/transits"
	"github.com/wonny/astrobet/pkg/config"
	"github.com/wonny/astrobet/pkg/database"
	"github.com/wonny/astrobet/pkg/httputil"
	"github.com/wonny/astrobet/pkg/logger"
	"github.com/wonny/astrobet/pkg/metrics"
	"github.com/wonny/astrobet/pkg/redis"
)

// msfRequestsPerMinute is the upstream quota shared by every process
const msfRequestsPerMinute = 30

// scoreBackend is a store that both persists and serves scores
type scoreBackend interface {
	contracts.ScoreStore
	contracts.ScoreReader
}

// app holds the process-wide collaborators built from config.
// Connections are opened lazily so each command pays only for what it uses.
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics

	redis *redis.Client
	db    *database.DB
	supa  *supabase.Store
}

// newApp loads the full config (store credentials required)
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrFatalConfiguration, err)
	}
	return buildApp(ctx, cfg), nil
}

// newLocalApp loads config for commands that never touch a store
func newLocalApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadLocal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrFatalConfiguration, err)
	}
	return buildApp(ctx, cfg), nil
}

func buildApp(ctx context.Context, cfg *config.Config) *app {
	if verbose {
		cfg.LogLevel = "debug"
	}

	a := &app{
		cfg:     cfg,
		log:     logger.New(cfg),
		metrics: metrics.New(),
	}

	// Redis 장애는 캐시 없이 계속 진행
	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.log.WithError(err).Warn("Redis unavailable, continuing without cache")
		rc = redis.Disabled()
	}
	a.redis = rc

	return a
}

// Close releases every opened connection
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func (a *app) database(ctx context.Context) (*database.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := database.New(ctx, a.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.db = db
	return db, nil
}

func (a *app) supabase() (*supabase.Store, error) {
	if a.supa != nil {
		return a.supa, nil
	}
	s, err := supabase.New(a.cfg.Supabase, a.log)
	if err != nil {
		return nil, err
	}
	a.supa = s
	return s, nil
}

// chartService builds the chart calculators from the Astro config
func (a *app) chartService() (*chart.Service, error) {
	bodies, err := ephemeris.ParseBodies(a.cfg.Astro.Bodies)
	if err != nil {
		return nil, fmt.Errorf("%w: ASTRO_BODIES: %v", contracts.ErrFatalConfiguration, err)
	}

	positions, err := ephemeris.NewCalculator(a.log, ephemeris.Options{
		Mode:   contracts.ZodiacMode(a.cfg.Astro.ZodiacMode),
		Bodies: bodies,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrFatalConfiguration, err)
	}

	hc, err := houses.NewCalculator(a.log, contracts.HouseSystem(a.cfg.Astro.HouseSystem))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrFatalConfiguration, err)
	}

	opts := []chart.Option{chart.WithMetrics(a.metrics)}
	if a.redis.Enabled() {
		opts = append(opts, chart.WithCache(redis.NewCache(a.redis, "astrobet"), a.cfg.Astro.CacheTTL))
	}

	return chart.NewService(a.log, positions, hc, aspects.NewDetector(a.log), opts...), nil
}

// transitGenerator computes ephemeris table rows in the configured zodiac mode.
// The body set is fixed to the table's sign columns, not ASTRO_BODIES.
func (a *app) transitGenerator() (*transits.Generator, error) {
	positions, err := ephemeris.NewCalculator(a.log, ephemeris.Options{
		Mode:   contracts.ZodiacMode(a.cfg.Astro.ZodiacMode),
		Bodies: store.TransitBodies,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrFatalConfiguration, err)
	}
	return transits.NewGenerator(a.log, positions, aspects.NewDetector(a.log)), nil
}

// transitStore returns the ephemeris table writer for STORE_DRIVER
func (a *app) transitStore(ctx context.Context) (contracts.TransitStore, error) {
	switch a.cfg.Store.Driver {
	case "supabase":
		s, err := a.supabase()
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		db, err := a.database(ctx)
		if err != nil {
			return nil, err
		}
		return postgres.NewTransitRepository(db.Pool), nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", contracts.ErrFatalConfiguration, a.cfg.Store.Driver)
	}
}

// scoreCache returns the score lookup cache, or nil without Redis
func (a *app) scoreCache() *redis.Cache {
	if !a.redis.Enabled() {
		return nil
	}
	return redis.NewCache(a.redis, "astrobet")
}

// backend returns the population source and score store for STORE_DRIVER
func (a *app) backend(ctx context.Context) (contracts.PopulationSource, scoreBackend, error) {
	switch a.cfg.Store.Driver {
	case "supabase":
		s, err := a.supabase()
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "postgres":
		db, err := a.database(ctx)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewPlayerRepository(db.Pool, a.log), postgres.NewScoreRepository(db.Pool), nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store driver %q", contracts.ErrFatalConfiguration, a.cfg.Store.Driver)
	}
}

// statistics returns the source named by STATS_SOURCE
func (a *app) statistics(ctx context.Context) (contracts.StatisticsSource, error) {
	switch a.cfg.Batch.StatsSource {
	case "db":
		db, err := a.database(ctx)
		if err != nil {
			return nil, err
		}
		return postgres.NewStatsRepository(db.Pool, a.cfg.Batch.Season), nil

	case "msf":
		// Redis가 있으면 프로세스 간 공유 예산, 없으면 프로세스 내 리밋
		var limiter httputil.Limiter = rate.NewLimiter(rate.Every(time.Minute/msfRequestsPerMinute), 1)
		if a.redis.Enabled() {
			limiter = redis.NewRateLimiter(a.redis, "ratelimit", redis.RateLimitConfig{
				Key:    msf.SourceName,
				Limit:  msfRequestsPerMinute,
				Window: time.Minute,
			})
		}
		httpClient := msf.NewHTTPClient(a.cfg.MSF, limiter, a.log)
		return msf.NewClient(httpClient, a.cfg.MSF, a.cfg.Batch.Season, a.log), nil

	case "html":
		httpClient := httputil.New(a.log).
			WithCircuitBreaker(httputil.DefaultBreakerConfig(espn.SourceName))
		return espn.NewClient(httpClient, a.cfg.HTML.URL, a.log), nil

	default:
		return nil, fmt.Errorf("%w: unknown stats source %q", contracts.ErrFatalConfiguration, a.cfg.Batch.StatsSource)
	}
}

// pipeline assembles the batch pipeline
func (a *app) pipeline(ctx context.Context) (*pipeline.Pipeline, scoreBackend, error) {
	population, store, err := a.backend(ctx)
	if err != nil {
		return nil, nil, err
	}

	stats, err := a.statistics(ctx)
	if err != nil {
		return nil, nil, err
	}

	charts, err := a.chartService()
	if err != nil {
		return nil, nil, err
	}

	profile, err := scoring.LoadProfile(a.cfg.Scoring.ProfilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", contracts.ErrFatalConfiguration, err)
	}

	p := pipeline.New(pipeline.Deps{
		Population: population,
		Statistics: stats,
		Store:      store,
		Charts:     charts,
		Normalizer: scoring.NewNormalizer(a.log, profile),
		Pacer:      pipeline.NewFixedPacer(a.cfg.Batch.Pacing),
		Metrics:    a.metrics,
		Logger:     a.log,
	}, pipeline.WithProgressEvery(a.cfg.Batch.ProgressEvery))

	return p, store, nil
}
