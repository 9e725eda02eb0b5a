package ephemeris

import (
	"fmt"
	"time"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/pkg/logger"
)

// speedWindow is the half-width (days) of the central difference used for daily speed
const speedWindow = 0.5

// Options fixes the zodiac frame and tracked bodies for a Calculator
type Options struct {
	Mode   contracts.ZodiacMode
	Bodies []contracts.Body // empty = contracts.AllBodies
}

// Calculator computes geocentric body positions.
// ⭐ SSOT: 천체 위치 계산은 여기서만
type Calculator struct {
	logger *logger.Logger
	mode   contracts.ZodiacMode
	bodies []contracts.Body
}

// NewCalculator creates a position calculator. The zodiac mode is fixed for its lifetime.
func NewCalculator(log *logger.Logger, opts Options) (*Calculator, error) {
	mode := opts.Mode
	if mode == "" {
		mode = contracts.ZodiacTropical
	}
	if mode != contracts.ZodiacTropical && mode != contracts.ZodiacSidereal {
		return nil, fmt.Errorf("unknown zodiac mode %q", mode)
	}

	bodies, err := canonicalBodies(opts.Bodies)
	if err != nil {
		return nil, err
	}

	return &Calculator{
		logger: log,
		mode:   mode,
		bodies: bodies,
	}, nil
}

// ParseBodies resolves configured body names
func ParseBodies(names []string) ([]contracts.Body, error) {
	out := make([]contracts.Body, 0, len(names))
	for _, name := range names {
		b, err := contracts.ParseBody(name)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// canonicalBodies dedupes and orders the requested set by the Body enum
func canonicalBodies(requested []contracts.Body) ([]contracts.Body, error) {
	if len(requested) == 0 {
		return append([]contracts.Body(nil), contracts.AllBodies...), nil
	}

	want := make(map[contracts.Body]bool, len(requested))
	for _, b := range requested {
		if b < contracts.Sun || b > contracts.Neptune {
			return nil, fmt.Errorf("unsupported body %d", int(b))
		}
		want[b] = true
	}

	out := make([]contracts.Body, 0, len(want))
	for _, b := range contracts.AllBodies {
		if want[b] {
			out = append(out, b)
		}
	}
	return out, nil
}

// Mode returns the zodiac frame this calculator reports in
func (c *Calculator) Mode() contracts.ZodiacMode {
	return c.mode
}

// Bodies returns the tracked bodies in canonical order
func (c *Calculator) Bodies() []contracts.Body {
	return append([]contracts.Body(nil), c.bodies...)
}

// Positions computes every tracked body for a validated moment and location.
// Longitudes are geocentric, so location only participates in validation.
func (c *Calculator) Positions(m contracts.Moment, loc contracts.GeoCoordinate) ([]contracts.CelestialBody, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	return c.PositionsAt(m.UTC()), nil
}

// PositionsAt computes positions for an instant (transit charts).
func (c *Calculator) PositionsAt(t time.Time) []contracts.CelestialBody {
	jd := JulianDay(t)

	out := make([]contracts.CelestialBody, 0, len(c.bodies))
	for _, b := range c.bodies {
		out = append(out, c.body(b, jd))
	}

	c.logger.WithFields(map[string]interface{}{
		"jd":     jd,
		"mode":   string(c.mode),
		"bodies": len(out),
	}).Debug("Calculated positions")

	return out
}

func (c *Calculator) body(b contracts.Body, jd float64) contracts.CelestialBody {
	lon := c.longitude(b, jd)

	// 역행 판정은 ±12시간 중앙차분 속도의 부호로
	speed := contracts.SignedDelta(c.longitude(b, jd+speedWindow) - c.longitude(b, jd-speedWindow))

	sign, degree := contracts.SignOf(lon)
	return contracts.CelestialBody{
		Body:         b,
		Longitude:    lon,
		Sign:         sign,
		DegreeInSign: degree,
		Retrograde:   speed < 0,
		DailySpeed:   speed,
	}
}

func (c *Calculator) longitude(b contracts.Body, jd float64) float64 {
	lon := geocentricLongitude(b, jd)
	if c.mode == contracts.ZodiacSidereal {
		lon -= Ayanamsa(jd)
	}
	return contracts.NormalizeDegrees(lon)
}

// MoonPhase returns the lunation fraction in [0,1): 0 new, 0.25 first quarter, 0.5 full.
// Independent of zodiac mode since the ayanamsa cancels.
func (c *Calculator) MoonPhase(m contracts.Moment) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	return MoonPhaseAt(JulianDay(m.UTC())), nil
}

// MoonPhaseAt returns the lunation fraction for a Julian Day
func MoonPhaseAt(jd float64) float64 {
	elongation := contracts.NormalizeDegrees(geocentricLongitude(contracts.Moon, jd) - geocentricLongitude(contracts.Sun, jd))
	return elongation / 360
}

// PhaseName buckets a lunation fraction into the eight traditional phases
func PhaseName(phase float64) string {
	names := [...]string{
		"new moon", "waxing crescent", "first quarter", "waxing gibbous",
		"full moon", "waning gibbous", "last quarter", "waning crescent",
	}
	idx := int(contracts.NormalizeDegrees(phase*360+22.5) / 45)
	return names[idx%8]
}
