package aspects

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/pkg/logger"
)

func body(b contracts.Body, lon, speed float64) contracts.CelestialBody {
	sign, deg := contracts.SignOf(lon)
	return contracts.CelestialBody{
		Body:         b,
		Longitude:    contracts.NormalizeDegrees(lon),
		Sign:         sign,
		DegreeInSign: deg,
		Retrograde:   speed < 0,
		DailySpeed:   speed,
	}
}

func TestExactSquare(t *testing.T) {
	d := NewDetector(logger.NewNop())

	got := d.Detect([]contracts.CelestialBody{
		body(contracts.Mars, 100, 0.6),
		body(contracts.Sun, 10, 1.0),
	})

	require.Len(t, got, 1)
	assert.Equal(t, contracts.Sun, got[0].BodyA)
	assert.Equal(t, contracts.Mars, got[0].BodyB)
	assert.Equal(t, contracts.Square, got[0].Type)
	assert.Equal(t, 0.0, got[0].OrbDelta)
	assert.False(t, got[0].Applying, "exact aspects can only separate")
}

func TestSeparationWrapsAround(t *testing.T) {
	assert.InDelta(t, 20, Separation(350, 10), 1e-12)
	assert.InDelta(t, 180, Separation(0, 180), 1e-12)
	assert.InDelta(t, 0, Separation(360, 0), 1e-12)
	assert.InDelta(t, 90, Separation(-45, 45), 1e-12)
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name     string
		sep      float64
		wantType contracts.AspectType
		wantOrb  float64
		wantNone bool
	}{
		{"conjunction", 5, contracts.Conjunction, 5, false},
		{"conjunction edge", 8, contracts.Conjunction, 8, false},
		{"nothing at 8.5", 8.5, 0, 0, true},
		{"semi-sextile", 31.5, contracts.SemiSextile, 1.5, false},
		{"semi-square", 44, contracts.SemiSquare, -1, false},
		{"sextile", 57, contracts.Sextile, -3, false},
		{"quintile", 73, contracts.Quintile, 1, false},
		{"square", 96, contracts.Square, 6, false},
		{"trine", 113, contracts.Trine, -7, false},
		{"sesquiquadrate", 136, contracts.Sesquiquadrate, 1, false},
		{"quincunx", 152, contracts.Quincunx, 2, false},
		{"opposition", 173, contracts.Opposition, -7, false},
		{"gap", 40, 0, 0, true},
	}

	d := NewDetector(logger.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect([]contracts.CelestialBody{
				body(contracts.Sun, 200, 1),
				body(contracts.Venus, 200+tt.sep, 1.2),
			})
			if tt.wantNone {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantType, got[0].Type)
			assert.InDelta(t, tt.wantOrb, got[0].OrbDelta, 1e-9)
		})
	}
}

func TestTieBreakPrefersSmallerDeviationThenMajor(t *testing.T) {
	rules := []Rule{
		{contracts.SemiSquare, 45, 10},
		{contracts.Square, 90, 40},
		{contracts.Sextile, 60, 20},
	}
	d := NewDetectorWithRules(logger.NewNop(), rules)

	// 52: semi-square dev 7, sextile dev -8, square dev -38 -> semi-square
	got := d.Detect([]contracts.CelestialBody{body(contracts.Sun, 0, 1), body(contracts.Moon, 52, 13)})
	require.Len(t, got, 1)
	assert.Equal(t, contracts.SemiSquare, got[0].Type)

	// 52.5: semi-square dev 7.5, sextile dev -7.5 -> tie, major wins
	got = d.Detect([]contracts.CelestialBody{body(contracts.Sun, 0, 1), body(contracts.Moon, 52.5, 13)})
	require.Len(t, got, 1)
	assert.Equal(t, contracts.Sextile, got[0].Type)
}

func TestApplyingSeparating(t *testing.T) {
	d := NewDetector(logger.NewNop())

	// Moon at 85 moving fast toward a square with Sun at 0
	got := d.Detect([]contracts.CelestialBody{body(contracts.Sun, 0, 1), body(contracts.Moon, 85, 13)})
	require.Len(t, got, 1)
	assert.True(t, got[0].Applying)

	// Moon already past exact
	got = d.Detect([]contracts.CelestialBody{body(contracts.Sun, 0, 1), body(contracts.Moon, 95, 13)})
	require.Len(t, got, 1)
	assert.False(t, got[0].Applying)

	// retrograde Mercury backing into conjunction with a slower Sun ahead of it
	got = d.Detect([]contracts.CelestialBody{body(contracts.Sun, 100, 1), body(contracts.Mercury, 104, -1)})
	require.Len(t, got, 1)
	assert.Equal(t, contracts.Conjunction, got[0].Type)
	assert.True(t, got[0].Applying)

	// equal speeds never close
	got = d.Detect([]contracts.CelestialBody{body(contracts.Sun, 0, 1), body(contracts.Venus, 58, 1)})
	require.Len(t, got, 1)
	assert.False(t, got[0].Applying)
}

func TestOrderIndependence(t *testing.T) {
	d := NewDetector(logger.NewNop())
	bodies := []contracts.CelestialBody{
		body(contracts.Sun, 84.2, 0.96),
		body(contracts.Moon, 205.3, 12.8),
		body(contracts.Mercury, 68.0, 1.7),
		body(contracts.Venus, 44.9, 1.2),
		body(contracts.Mars, 354.1, 0.7),
		body(contracts.Jupiter, 95.5, 0.23),
		body(contracts.Saturn, 294.0, -0.05),
		body(contracts.Uranus, 278.1, -0.03),
		body(contracts.Neptune, 283.9, -0.02),
	}

	want := d.Detect(bodies)
	require.NotEmpty(t, want)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]contracts.CelestialBody(nil), bodies...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, d.Detect(shuffled))
	}

	for _, a := range want {
		assert.Less(t, a.BodyA, a.BodyB)
	}
}

func TestSortedBySignificance(t *testing.T) {
	d := NewDetector(logger.NewNop())
	got := d.Detect([]contracts.CelestialBody{
		body(contracts.Sun, 0, 1),
		body(contracts.Moon, 30.5, 13),   // semi-sextile Sun 0.5
		body(contracts.Mercury, 123, 1.5), // trine Sun 3
		body(contracts.Venus, 181, 1.2),   // opposition Sun 1
	})

	require.NotEmpty(t, got)
	seenMinor := false
	for i, a := range got {
		if !a.Type.IsMajor() {
			seenMinor = true
		} else {
			assert.False(t, seenMinor, "major after minor at %d", i)
		}
		if i > 0 && got[i-1].Type.IsMajor() == a.Type.IsMajor() {
			assert.LessOrEqual(t, abs(got[i-1].OrbDelta), abs(a.OrbDelta))
		}
	}
	assert.Equal(t, contracts.Opposition, got[0].Type)
}

func TestEmptyAndSingle(t *testing.T) {
	d := NewDetector(logger.NewNop())
	assert.Empty(t, d.Detect(nil))
	assert.Empty(t, d.Detect([]contracts.CelestialBody{body(contracts.Sun, 0, 1)}))
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
