package houses

import (
	"fmt"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/internal/ephemeris"
	"github.com/wonny/astrobet/pkg/logger"
)

// Calculator derives house cusps for one configured house system.
// ⭐ SSOT: 하우스 커스프 계산은 여기서만
type Calculator struct {
	logger *logger.Logger
	system contracts.HouseSystem
}

// NewCalculator creates a house calculator for system (empty = placidus)
func NewCalculator(log *logger.Logger, system contracts.HouseSystem) (*Calculator, error) {
	if system == "" {
		system = contracts.HousePlacidus
	}
	switch system {
	case contracts.HousePlacidus, contracts.HousePorphyry, contracts.HouseEqual:
	default:
		return nil, fmt.Errorf("unknown house system %q", system)
	}
	return &Calculator{logger: log, system: system}, nil
}

// System returns the configured house system
func (c *Calculator) System() contracts.HouseSystem {
	return c.system
}

// Houses computes cusps with the configured system. Returns ErrPolarLatitude when the
// system is undefined for the location; use HousesWithFallback to degrade instead.
func (c *Calculator) Houses(m contracts.Moment, loc contracts.GeoCoordinate) (contracts.HouseCusps, error) {
	if err := m.Validate(); err != nil {
		return contracts.HouseCusps{}, err
	}
	if err := loc.Validate(); err != nil {
		return contracts.HouseCusps{}, err
	}

	return Compute(c.system, ephemeris.JulianDay(m.UTC()), loc)
}

// HousesWithFallback substitutes equal houses (Degraded=true) wherever the configured
// system is undefined. Only validation errors are returned.
func (c *Calculator) HousesWithFallback(m contracts.Moment, loc contracts.GeoCoordinate) (contracts.HouseCusps, error) {
	cusps, err := c.Houses(m, loc)
	if err == nil || contracts.IsValidation(err) {
		return cusps, err
	}

	c.logger.WithFields(map[string]interface{}{
		"system":   string(c.system),
		"latitude": loc.Latitude,
		"error":    err.Error(),
	}).Debug("House system undefined, falling back to equal houses")

	cusps, err = Compute(contracts.HouseEqual, ephemeris.JulianDay(m.UTC()), loc)
	if err != nil {
		return contracts.HouseCusps{}, err
	}
	cusps.Degraded = true
	return cusps, nil
}

// Compute derives cusps for a Julian Day and location
func Compute(system contracts.HouseSystem, jd float64, loc contracts.GeoCoordinate) (contracts.HouseCusps, error) {
	ramc := ephemeris.LocalSiderealTime(jd, loc.Longitude)
	eps := ephemeris.Obliquity(jd)
	return computeAngles(system, ramc, eps, loc.Latitude)
}

func computeAngles(system contracts.HouseSystem, ramc, eps, lat float64) (contracts.HouseCusps, error) {
	mc := midheaven(ramc, eps)
	asc := ascendant(ramc, eps, lat)

	var cusps [12]float64
	var err error

	switch system {
	case contracts.HouseEqual:
		cusps = equalCusps(asc)
	case contracts.HousePorphyry:
		if err = checkPolar(lat, eps); err == nil {
			cusps = porphyryCusps(asc, mc)
		}
	case contracts.HousePlacidus:
		if err = checkPolar(lat, eps); err == nil {
			cusps, err = placidusCusps(ramc, eps, lat, asc, mc)
		}
	default:
		err = fmt.Errorf("unknown house system %q", system)
	}
	if err != nil {
		return contracts.HouseCusps{}, err
	}

	if err := checkMonotonic(cusps); err != nil {
		return contracts.HouseCusps{}, err
	}

	return contracts.HouseCusps{
		Cusps:     cusps,
		Ascendant: cusps[0],
		MC:        mc,
		System:    system,
	}, nil
}

// checkPolar rejects latitudes inside the polar circles where the ecliptic can be circumpolar
func checkPolar(lat, eps float64) error {
	if abs(lat) >= 90-eps {
		return fmt.Errorf("%w: |latitude| %.4f >= %.4f", contracts.ErrPolarLatitude, abs(lat), 90-eps)
	}
	return nil
}

// checkMonotonic enforces the house-order walk: every step forward, total exactly one turn
func checkMonotonic(cusps [12]float64) error {
	total := 0.0
	for i := 0; i < 12; i++ {
		step := contracts.NormalizeDegrees(cusps[(i+1)%12] - cusps[i])
		if step <= 0 || step >= 180 {
			return fmt.Errorf("%w: cusp %d -> %d spans %.4f°", contracts.ErrPolarLatitude, i+1, (i+1)%12+1, step)
		}
		total += step
	}
	if abs(total-360) > 1e-6 {
		return fmt.Errorf("%w: cusps wrap %.4f°", contracts.ErrPolarLatitude, total)
	}
	return nil
}

// HouseOf returns the 1-based house containing longitude lon
func HouseOf(lon float64, h contracts.HouseCusps) int {
	lon = contracts.NormalizeDegrees(lon)
	for i := 0; i < 12; i++ {
		start := h.Cusps[i]
		span := contracts.NormalizeDegrees(h.Cusps[(i+1)%12] - start)
		if contracts.NormalizeDegrees(lon-start) < span {
			return i + 1
		}
	}
	// 부동소수 경계: 마지막 하우스로 귀속
	return 12
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
