package chart

import (
	"context"
	"time"

	"github.com/wonny/astrobet/internal/aspects"
	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/internal/ephemeris"
	"github.com/wonny/astrobet/internal/houses"
	"github.com/wonny/astrobet/pkg/logger"
	"github.com/wonny/astrobet/pkg/metrics"
	"github.com/wonny/astrobet/pkg/redis"
)

// Result is a computed chart plus its aspects. Immutable once returned.
type Result struct {
	Chart   contracts.Chart    `json:"chart"`
	Aspects []contracts.Aspect `json:"aspects"`
}

// Service composes positions, houses and aspects into charts.
// ⭐ SSOT: 차트 조립은 여기서만 (계산기는 순수 함수로 유지)
type Service struct {
	logger    *logger.Logger
	positions *ephemeris.Calculator
	houses    *houses.Calculator
	detector  *aspects.Detector
	cache     *redis.Cache
	cacheTTL  time.Duration
	metrics   *metrics.Metrics
}

// Option configures optional Service collaborators
type Option func(*Service)

// WithCache caches chart output in Redis
func WithCache(cache *redis.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithMetrics records per-stage latency
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a chart service
func NewService(log *logger.Logger, positions *ephemeris.Calculator, hc *houses.Calculator, detector *aspects.Detector, opts ...Option) *Service {
	s := &Service{
		logger:    log,
		positions: positions,
		houses:    hc,
		detector:  detector,
		cacheTTL:  redis.TTLDaily,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compute builds the full chart for a moment and place. Polar latitudes degrade
// to equal houses instead of failing; only validation errors are returned.
func (s *Service) Compute(m contracts.Moment, loc contracts.GeoCoordinate) (*Result, error) {
	start := time.Now()
	bodies, err := s.positions.Positions(m, loc)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveChartStage("positions", time.Since(start))

	start = time.Now()
	cusps, err := s.houses.HousesWithFallback(m, loc)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveChartStage("houses", time.Since(start))

	start = time.Now()
	found := s.detector.Detect(bodies)
	s.metrics.ObserveChartStage("aspects", time.Since(start))

	phase, err := s.positions.MoonPhase(m)
	if err != nil {
		return nil, err
	}

	return &Result{
		Chart: contracts.Chart{
			Moment:    m,
			Location:  loc,
			Mode:      s.positions.Mode(),
			Bodies:    bodies,
			Houses:    cusps,
			MoonPhase: phase,
		},
		Aspects: found,
	}, nil
}

// Render computes the chart and shapes it for API consumers, using the cache when configured.
func (s *Service) Render(ctx context.Context, m contracts.Moment, loc contracts.GeoCoordinate) (*Output, error) {
	// 검증 실패는 캐시 키 생성 전에 걸러냄
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	if s.cache == nil {
		res, err := s.Compute(m, loc)
		if err != nil {
			return nil, err
		}
		return NewOutput(res), nil
	}

	key := redis.ChartKey(string(s.positions.Mode()), string(s.houses.System()), m.String(), loc.Latitude, loc.Longitude)

	var out Output
	hit := true
	err := s.cache.GetOrSet(ctx, key, &out, s.cacheTTL, func() (interface{}, error) {
		hit = false
		res, err := s.Compute(m, loc)
		if err != nil {
			return nil, err
		}
		return NewOutput(res), nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCache(hit)

	return &out, nil
}
