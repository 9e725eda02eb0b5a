package houses

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/pkg/logger"
)

func newTestCalculator(t *testing.T, system contracts.HouseSystem) *Calculator {
	t.Helper()
	c, err := NewCalculator(logger.NewNop(), system)
	require.NoError(t, err)
	return c
}

func assertCuspInvariants(t *testing.T, h contracts.HouseCusps) {
	t.Helper()
	assert.Equal(t, h.Ascendant, h.Cusps[0], "cusp 1 must equal ascendant")

	total := 0.0
	for i := 0; i < 12; i++ {
		c := h.Cusps[i]
		assert.GreaterOrEqual(t, c, 0.0)
		assert.Less(t, c, 360.0)

		step := contracts.NormalizeDegrees(h.Cusps[(i+1)%12] - c)
		assert.Greater(t, step, 0.0, "cusp %d -> %d", i+1, (i+1)%12+1)
		total += step
	}
	assert.InDelta(t, 360.0, total, 1e-6)
}

func TestHousesInvariantsAcrossLatitudes(t *testing.T) {
	systems := []contracts.HouseSystem{contracts.HousePlacidus, contracts.HousePorphyry, contracts.HouseEqual}
	latitudes := []float64{-60, -40, -23.4, 0, 12.5, 40, 51.5, 60}
	moments := []contracts.Moment{
		{Year: 1990, Month: 6, Day: 15, Hour: 12, UTCOffsetMinutes: -240},
		{Year: 2001, Month: 12, Day: 21, Hour: 0, Minute: 1},
		{Year: 1975, Month: 3, Day: 9, Hour: 18, Minute: 45, UTCOffsetMinutes: 330},
		{Year: 2024, Month: 9, Day: 22, Hour: 6, Minute: 30, UTCOffsetMinutes: 120},
	}

	for _, system := range systems {
		c := newTestCalculator(t, system)
		for _, lat := range latitudes {
			for _, m := range moments {
				name := fmt.Sprintf("%s/%.1f/%s", system, lat, m)
				t.Run(name, func(t *testing.T) {
					h, err := c.Houses(m, contracts.GeoCoordinate{Latitude: lat, Longitude: -75})
					require.NoError(t, err)
					assert.Equal(t, system, h.System)
					assert.False(t, h.Degraded)
					assertCuspInvariants(t, h)
				})
			}
		}
	}
}

func TestQuadrantSystemsAnchorMC(t *testing.T) {
	m := contracts.Moment{Year: 1990, Month: 6, Day: 15, Hour: 12, UTCOffsetMinutes: -240}
	loc := contracts.GeoCoordinate{Latitude: 40.0, Longitude: -75.0}

	for _, system := range []contracts.HouseSystem{contracts.HousePlacidus, contracts.HousePorphyry} {
		h, err := newTestCalculator(t, system).Houses(m, loc)
		require.NoError(t, err)
		assert.InDelta(t, h.MC, h.Cusp(10), 1e-9)
		assert.InDelta(t, contracts.NormalizeDegrees(h.MC+180), h.Cusp(4), 1e-9)
		assert.InDelta(t, contracts.NormalizeDegrees(h.Ascendant+180), h.Cusp(7), 1e-9)
	}
}

func TestAnglesAtEquatorAndEquinoxRAMC(t *testing.T) {
	// RAMC 0 on the equator: MC = 0° Aries, ascendant = 0° Cancer
	h, err := computeAngles(contracts.HousePorphyry, 0, 23.4393, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, contracts.SignedDelta(h.MC), 1e-9)
	assert.InDelta(t, 90, h.Ascendant, 1e-9)
	assert.InDelta(t, 30, h.Cusp(11), 1e-9)
	assert.InDelta(t, 60, h.Cusp(12), 1e-9)
	assert.InDelta(t, 120, h.Cusp(2), 1e-9)

	// Placidus on the equator: every semi-arc is 90°, cusps are RA = 30° steps
	p, err := computeAngles(contracts.HousePlacidus, 0, 23.4393, 0)
	require.NoError(t, err)
	assert.InDelta(t, eclipticFromRA(30, 23.4393), p.Cusp(11), 1e-8)
	assert.InDelta(t, eclipticFromRA(60, 23.4393), p.Cusp(12), 1e-8)
	assert.InDelta(t, eclipticFromRA(120, 23.4393), p.Cusp(2), 1e-8)
	assertCuspInvariants(t, p)
}

func TestEqualHouses(t *testing.T) {
	h, err := newTestCalculator(t, contracts.HouseEqual).Houses(
		contracts.Moment{Year: 2010, Month: 1, Day: 1, Hour: 9},
		contracts.GeoCoordinate{Latitude: 35, Longitude: 139.7},
	)
	require.NoError(t, err)
	for i := 0; i < 12; i++ {
		assert.InDelta(t, 0, contracts.SignedDelta(h.Cusps[i]-(h.Ascendant+float64(i)*30)), 1e-9)
	}
}

func TestPolarLatitude(t *testing.T) {
	m := contracts.Moment{Year: 2020, Month: 6, Day: 21, Hour: 12}
	loc := contracts.GeoCoordinate{Latitude: 78.2, Longitude: 15.6} // Longyearbyen

	for _, system := range []contracts.HouseSystem{contracts.HousePlacidus, contracts.HousePorphyry} {
		c := newTestCalculator(t, system)

		_, err := c.Houses(m, loc)
		require.Error(t, err)
		assert.True(t, errors.Is(err, contracts.ErrPolarLatitude))
		assert.False(t, contracts.IsValidation(err))

		h, err := c.HousesWithFallback(m, loc)
		require.NoError(t, err)
		assert.True(t, h.Degraded)
		assert.Equal(t, contracts.HouseEqual, h.System)
		assertCuspInvariants(t, h)
	}

	// equal houses stay defined
	h, err := newTestCalculator(t, contracts.HouseEqual).Houses(m, loc)
	require.NoError(t, err)
	assert.False(t, h.Degraded)
}

func TestFallbackNotUsedAtTemperateLatitude(t *testing.T) {
	h, err := newTestCalculator(t, contracts.HousePlacidus).HousesWithFallback(
		contracts.Moment{Year: 1990, Month: 6, Day: 15, Hour: 12, UTCOffsetMinutes: -240},
		contracts.GeoCoordinate{Latitude: 40, Longitude: -75},
	)
	require.NoError(t, err)
	assert.False(t, h.Degraded)
	assert.Equal(t, contracts.HousePlacidus, h.System)
}

func TestHousesValidation(t *testing.T) {
	c := newTestCalculator(t, contracts.HousePlacidus)

	_, err := c.HousesWithFallback(contracts.Moment{Year: 2021, Month: 2, Day: 29}, contracts.GeoCoordinate{})
	assert.ErrorIs(t, err, contracts.ErrInvalidMoment)

	_, err = c.HousesWithFallback(contracts.Moment{Year: 2021, Month: 2, Day: 28}, contracts.GeoCoordinate{Latitude: -90.5})
	assert.ErrorIs(t, err, contracts.ErrInvalidLocation)
}

func TestNewCalculator(t *testing.T) {
	c, err := NewCalculator(logger.NewNop(), "")
	require.NoError(t, err)
	assert.Equal(t, contracts.HousePlacidus, c.System())

	_, err = NewCalculator(logger.NewNop(), "koch")
	assert.Error(t, err)
}

func TestHouseOf(t *testing.T) {
	var h contracts.HouseCusps
	h.Cusps = equalCusps(350)
	h.Ascendant = 350

	tests := []struct {
		lon  float64
		want int
	}{
		{350, 1},
		{359.9, 1},
		{0, 1},
		{19.99, 1},
		{20, 2},
		{45, 2},
		{340, 12},
		{349.999, 12},
		{170, 7},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.3f", tt.lon), func(t *testing.T) {
			assert.Equal(t, tt.want, HouseOf(tt.lon, h))
		})
	}
}
