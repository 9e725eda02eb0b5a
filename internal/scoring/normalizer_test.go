package scoring

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/astrobet/internal/aspects"
	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/internal/ephemeris"
	"github.com/wonny/astrobet/pkg/logger"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	p, err := DefaultProfile()
	require.NoError(t, err)
	return NewNormalizer(logger.NewNop(), p)
}

// scenarioAspects computes aspects for 1990-06-15 12:00 at UTC-4, 40N 75W
func scenarioAspects(t *testing.T) []contracts.Aspect {
	t.Helper()
	calc, err := ephemeris.NewCalculator(logger.NewNop(), ephemeris.Options{})
	require.NoError(t, err)

	bodies, err := calc.Positions(
		contracts.Moment{Year: 1990, Month: 6, Day: 15, Hour: 12, UTCOffsetMinutes: -240},
		contracts.GeoCoordinate{Latitude: 40.0, Longitude: -75.0},
	)
	require.NoError(t, err)
	return aspects.NewDetector(logger.NewNop()).Detect(bodies)
}

func stats(values map[string]float64) contracts.StatisticRecord {
	var rec contracts.StatisticRecord
	for k, v := range values {
		rec.Set(k, v)
	}
	return rec
}

func TestScenarioAllZeroStatistics(t *testing.T) {
	n := newTestNormalizer(t)

	zero := map[string]float64{"games_played": 0}
	for _, f := range n.Profile().Features {
		zero[f.Name] = 0
	}

	r := n.Score(scenarioAspects(t), stats(zero))

	assert.GreaterOrEqual(t, r.Score, 0.0)
	assert.LessOrEqual(t, r.Score, 4.0)
	assert.Equal(t, -3.0, r.Adjustment)
	assert.LessOrEqual(t, r.Raw, 0.1, "only the astro feature can contribute")
}

func TestScenarioMaximalStatistics(t *testing.T) {
	n := newTestNormalizer(t)

	best := map[string]float64{"games_played": 82}
	for _, f := range n.Profile().Features {
		if f.Weight > 0 {
			best[f.Name] = f.Scale
		} else {
			best[f.Name] = 0
		}
	}

	// astro contribution cannot pull a maximal stat line below the clamp
	for _, asp := range [][]contracts.Aspect{
		scenarioAspects(t),
		nil,
		{{BodyA: contracts.Sun, BodyB: contracts.Mars, Type: contracts.Square}},
	} {
		r := n.Score(asp, stats(best))
		assert.Equal(t, 1.0, r.Normalized)
		assert.Equal(t, 1.0, r.Adjusted)
		assert.InDelta(t, 0.96291, r.Bell, 1e-4)
		assert.Equal(t, 5.0, r.Adjustment)
		assert.Equal(t, 94.0, r.Score)
	}
}

func TestAllMissingStatisticsIsDefined(t *testing.T) {
	n := newTestNormalizer(t)

	r := n.Score(nil, contracts.StatisticRecord{})
	assert.False(t, math.IsNaN(r.Score))
	assert.Equal(t, 0.0, r.Raw)
	assert.Equal(t, 0.0, r.Score) // round(0.668) = 1, minus 3, floored
}

func TestNaNAndInfFeaturesContributeZero(t *testing.T) {
	n := newTestNormalizer(t)

	base := stats(map[string]float64{"points": 20, "games_played": 40})
	poisoned := stats(map[string]float64{
		"points":       20,
		"games_played": 40,
		"rebounds":     math.NaN(),
		"assists":      math.Inf(1),
		"turnovers":    math.Inf(-1),
	})
	poisoned.Features["steals"] = nil

	assert.Equal(t, n.Score(nil, base), n.Score(nil, poisoned))
}

func TestScoreAlwaysBounded(t *testing.T) {
	n := newTestNormalizer(t)
	rng := rand.New(rand.NewSource(42))

	names := []string{"games_played"}
	for _, f := range n.Profile().Features {
		names = append(names, f.Name)
	}

	for i := 0; i < 500; i++ {
		values := make(map[string]float64)
		for _, name := range names {
			if rng.Intn(4) == 0 {
				continue
			}
			values[name] = (rng.Float64()*2 - 0.5) * 100
		}
		r := n.Score(nil, stats(values))

		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 100.0)
		assert.Equal(t, math.Round(r.Score), r.Score)
	}
}

func TestActivityAdjustment(t *testing.T) {
	n := newTestNormalizer(t)
	line := map[string]float64{"points": 18, "rebounds": 6, "assists": 4, "minutes": 30}

	tests := []struct {
		games float64
		want  float64
	}{
		{0, -3},
		{9, -3},
		{10, 0},
		{59, 0},
		{60, 5},
		{82, 5},
	}

	for _, tt := range tests {
		values := map[string]float64{"games_played": tt.games}
		for k, v := range line {
			values[k] = v
		}
		r := n.Score(nil, stats(values))
		assert.Equal(t, tt.want, r.Adjustment, "games=%v", tt.games)
	}
}

func TestCurveMidpoint(t *testing.T) {
	n := newTestNormalizer(t)

	// raw exactly 0.5 via points alone: 0.5 = v/30*0.3 -> v = 50
	r := n.Score(nil, stats(map[string]float64{"points": 50, "games_played": 30}))
	assert.InDelta(t, 0.5, r.Normalized, 1e-12)
	assert.InDelta(t, 0.5, r.Bell, 1e-12)
	assert.InDelta(t, math.Pow(0.5, 1.1), r.Adjusted, 1e-12)
	assert.Equal(t, math.Round((math.Pow(0.5, 1.1)*0.8+0.1)*90), r.Score)
}

func TestAstroIndex(t *testing.T) {
	n := newTestNormalizer(t)

	assert.Equal(t, 0.0, n.AstroIndex(nil))

	trine := []contracts.Aspect{{BodyA: contracts.Sun, BodyB: contracts.Jupiter, Type: contracts.Trine}}
	assert.InDelta(t, math.Tanh(1.0/3), n.AstroIndex(trine), 1e-12)

	square := []contracts.Aspect{{BodyA: contracts.Sun, BodyB: contracts.Saturn, Type: contracts.Square, OrbDelta: -5}}
	assert.InDelta(t, math.Tanh(-0.5/3), n.AstroIndex(square), 1e-12)

	minor := []contracts.Aspect{{BodyA: contracts.Moon, BodyB: contracts.Venus, Type: contracts.Quincunx, OrbDelta: 1}}
	assert.InDelta(t, math.Tanh(-0.5*0.9*0.5/3), n.AstroIndex(minor), 1e-12)

	// rank decay: the second aspect counts 0.9x
	both := append(append([]contracts.Aspect{}, trine...), contracts.Aspect{Type: contracts.Sextile})
	assert.InDelta(t, math.Tanh(1.9/3), n.AstroIndex(both), 1e-12)

	for _, asp := range [][]contracts.Aspect{scenarioAspects(t), trine, square} {
		idx := n.AstroIndex(asp)
		assert.GreaterOrEqual(t, idx, -1.0)
		assert.LessOrEqual(t, idx, 1.0)
	}
}

func TestScoreIdempotent(t *testing.T) {
	n := newTestNormalizer(t)
	asp := scenarioAspects(t)
	rec := stats(map[string]float64{"points": 22.5, "assists": 7.1, "turnovers": 2.8, "games_played": 71})

	assert.Equal(t, n.Score(asp, rec), n.Score(asp, rec))
}

func TestRecord(t *testing.T) {
	n := newTestNormalizer(t)
	at := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

	rec := n.Record("player-7", Result{Raw: 0.42, Score: 61}, at)
	assert.Equal(t, contracts.ScoreRecord{
		EntityID:        "player-7",
		RawScore:        0.42,
		NormalizedScore: 61,
		Profile:         DefaultProfileID,
		ComputedAt:      at,
	}, rec)
}
