package contracts

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Moment is a local wall-clock instant plus its UTC offset.
// ⭐ SSOT: 차트 계산 입력 시각은 이 타입으로만 전달
type Moment struct {
	Year             int `json:"year"`
	Month            int `json:"month"`
	Day              int `json:"day"`
	Hour             int `json:"hour"`
	Minute           int `json:"minute"`
	UTCOffsetMinutes int `json:"utcOffsetMinutes"`
}

// MaxUTCOffsetMinutes bounds real-world offsets (UTC-14:00 .. UTC+14:00).
const MaxUTCOffsetMinutes = 14 * 60

// Validate checks that the moment names a real calendar date and clock time.
func (m Moment) Validate() error {
	if m.Month < 1 || m.Month > 12 {
		return NewValidationError(ErrInvalidMoment, "month", fmt.Sprintf("%d out of range [1,12]", m.Month))
	}
	if m.Hour < 0 || m.Hour > 23 {
		return NewValidationError(ErrInvalidMoment, "hour", fmt.Sprintf("%d out of range [0,23]", m.Hour))
	}
	if m.Minute < 0 || m.Minute > 59 {
		return NewValidationError(ErrInvalidMoment, "minute", fmt.Sprintf("%d out of range [0,59]", m.Minute))
	}
	if m.UTCOffsetMinutes < -MaxUTCOffsetMinutes || m.UTCOffsetMinutes > MaxUTCOffsetMinutes {
		return NewValidationError(ErrInvalidMoment, "utcOffsetMinutes", fmt.Sprintf("%d out of range", m.UTCOffsetMinutes))
	}

	// time.Date normalizes overflow (Feb 30 -> Mar 2), so a round trip exposes non-existent dates
	t := time.Date(m.Year, time.Month(m.Month), m.Day, 0, 0, 0, 0, time.UTC)
	if m.Day < 1 || t.Year() != m.Year || int(t.Month()) != m.Month || t.Day() != m.Day {
		return NewValidationError(ErrInvalidMoment, "day", fmt.Sprintf("%04d-%02d-%02d is not a calendar date", m.Year, m.Month, m.Day))
	}

	return nil
}

// UTC returns the instant as a UTC time. Call Validate first.
func (m Moment) UTC() time.Time {
	local := time.Date(m.Year, time.Month(m.Month), m.Day, m.Hour, m.Minute, 0, 0, time.UTC)
	return local.Add(-time.Duration(m.UTCOffsetMinutes) * time.Minute)
}

// MomentFromTime converts a time to a Moment preserving its zone offset.
func MomentFromTime(t time.Time) Moment {
	_, offset := t.Zone()
	return Moment{
		Year:             t.Year(),
		Month:            int(t.Month()),
		Day:              t.Day(),
		Hour:             t.Hour(),
		Minute:           t.Minute(),
		UTCOffsetMinutes: offset / 60,
	}
}

// String formats the moment as ISO-8601 with offset.
func (m Moment) String() string {
	sign := '+'
	off := m.UTCOffsetMinutes
	if off < 0 {
		sign = '-'
		off = -off
	}
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d%c%02d:%02d", m.Year, m.Month, m.Day, m.Hour, m.Minute, sign, off/60, off%60)
}

// GeoCoordinate is a point on Earth in decimal degrees (east/north positive).
type GeoCoordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks coordinate ranges.
func (g GeoCoordinate) Validate() error {
	if math.IsNaN(g.Latitude) || g.Latitude < -90 || g.Latitude > 90 {
		return NewValidationError(ErrInvalidLocation, "latitude", fmt.Sprintf("%v out of range [-90,90]", g.Latitude))
	}
	if math.IsNaN(g.Longitude) || g.Longitude < -180 || g.Longitude > 180 {
		return NewValidationError(ErrInvalidLocation, "longitude", fmt.Sprintf("%v out of range [-180,180]", g.Longitude))
	}
	return nil
}

// ZodiacMode selects the zero point of ecliptic longitude.
type ZodiacMode string

const (
	ZodiacTropical ZodiacMode = "tropical"
	ZodiacSidereal ZodiacMode = "sidereal"
)

// Body identifies a tracked celestial body. The numeric order is the canonical order.
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
)

// AllBodies lists every supported body in canonical order.
var AllBodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune}

var bodyNames = [...]string{"Sun", "Moon", "Mercury", "Venus", "Mars", "Jupiter", "Saturn", "Uranus", "Neptune"}
var bodySymbols = [...]string{"☉", "☽", "☿", "♀", "♂", "♃", "♄", "♅", "♆"}

func (b Body) String() string {
	if b < 0 || int(b) >= len(bodyNames) {
		return fmt.Sprintf("Body(%d)", int(b))
	}
	return bodyNames[b]
}

// Symbol returns the astrological glyph.
func (b Body) Symbol() string {
	if b < 0 || int(b) >= len(bodySymbols) {
		return "?"
	}
	return bodySymbols[b]
}

// ParseBody resolves a case-insensitive body name.
func ParseBody(name string) (Body, error) {
	for i, n := range bodyNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Body(i), nil
		}
	}
	return 0, fmt.Errorf("unknown body %q", name)
}

// ZodiacSign is one of 12 fixed 30° bands.
type ZodiacSign int

const (
	Aries ZodiacSign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

var signNames = [...]string{
	"Aries", "Taurus", "Gemini", "Cancer",
	"Leo", "Virgo", "Libra", "Scorpio",
	"Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

func (s ZodiacSign) String() string {
	if s < 0 || int(s) >= len(signNames) {
		return fmt.Sprintf("Sign(%d)", int(s))
	}
	return signNames[s]
}

// SignOf returns the sign and degree-in-sign for a normalized longitude.
func SignOf(lon float64) (ZodiacSign, float64) {
	lon = NormalizeDegrees(lon)
	idx := int(math.Floor(lon / 30))
	if idx > 11 {
		idx = 11
	}
	return ZodiacSign(idx), lon - float64(idx)*30
}

// CelestialBody is one body's position in a chart. Immutable once produced.
type CelestialBody struct {
	Body         Body       `json:"body"`
	Longitude    float64    `json:"longitude"`
	Sign         ZodiacSign `json:"sign"`
	DegreeInSign float64    `json:"degreeInSign"`
	Retrograde   bool       `json:"retrograde"`
	DailySpeed   float64    `json:"dailySpeed"`
}

// HouseSystem names a house-division algorithm.
type HouseSystem string

const (
	HousePlacidus HouseSystem = "placidus"
	HousePorphyry HouseSystem = "porphyry"
	HouseEqual    HouseSystem = "equal"
)

// HouseCusps holds the 12 cusp longitudes; Cusps[0] is house 1 and equals Ascendant.
type HouseCusps struct {
	Cusps     [12]float64 `json:"cusps"`
	Ascendant float64     `json:"ascendant"`
	MC        float64     `json:"mc"`
	System    HouseSystem `json:"system"`
	// Degraded is set when the configured system was undefined and equal houses were substituted
	Degraded bool `json:"degraded"`
}

// Cusp returns cusp n (1-based).
func (h HouseCusps) Cusp(n int) float64 {
	return h.Cusps[(n-1+12)%12]
}

// Chart is the full calculator output for one moment/place pair.
type Chart struct {
	Moment    Moment          `json:"moment"`
	Location  GeoCoordinate   `json:"location"`
	Mode      ZodiacMode      `json:"mode"`
	Bodies    []CelestialBody `json:"bodies"`
	Houses    HouseCusps      `json:"houses"`
	MoonPhase float64         `json:"moonPhase"`
}

// NormalizeDegrees maps any angle into [0,360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -1e-15 + 360 rounds to 360 in float64
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// SignedDelta maps an angle difference into (-180,180].
func SignedDelta(deg float64) float64 {
	d := NormalizeDegrees(deg)
	if d > 180 {
		d -= 360
	}
	return d
}
