package chart

import (
	"math"

	"github.com/wonny/astrobet/internal/ephemeris"
	"github.com/wonny/astrobet/internal/houses"
)

// Output is the chart wire shape. Cusps always has exactly 12 entries.
type Output struct {
	Bodies        []BodyOutput   `json:"bodies"`
	Cusps         []float64      `json:"cusps"`
	Ascendant     float64        `json:"ascendant"`
	MC            float64        `json:"mc"`
	HouseSystem   string         `json:"houseSystem"`
	Degraded      bool           `json:"degraded"`
	ZodiacMode    string         `json:"zodiacMode"`
	MoonPhase     float64        `json:"moonPhase"`
	MoonPhaseName string         `json:"moonPhaseName"`
	Aspects       []AspectOutput `json:"aspects"`
}

type BodyOutput struct {
	Name       string  `json:"name"`
	Sign       string  `json:"sign"`
	Degree     float64 `json:"degree"`
	Longitude  float64 `json:"longitude"`
	House      int     `json:"house"`
	Retrograde bool    `json:"retrograde"`
	Symbol     string  `json:"symbol"`
}

type AspectOutput struct {
	BodyA    string  `json:"bodyA"`
	BodyB    string  `json:"bodyB"`
	Type     string  `json:"type"`
	Orb      float64 `json:"orb"`
	Applying bool    `json:"applying"`
}

// NewOutput shapes a chart result for the API
func NewOutput(res *Result) *Output {
	c := res.Chart
	out := &Output{
		Bodies:        make([]BodyOutput, 0, len(c.Bodies)),
		Cusps:         make([]float64, 12),
		Ascendant:     trunc4(c.Houses.Ascendant),
		MC:            trunc4(c.Houses.MC),
		HouseSystem:   string(c.Houses.System),
		Degraded:      c.Houses.Degraded,
		ZodiacMode:    string(c.Mode),
		MoonPhase:     trunc4(c.MoonPhase),
		MoonPhaseName: ephemeris.PhaseName(c.MoonPhase),
		Aspects:       make([]AspectOutput, 0, len(res.Aspects)),
	}

	for i, cusp := range c.Houses.Cusps {
		out.Cusps[i] = trunc4(cusp)
	}

	for _, b := range c.Bodies {
		out.Bodies = append(out.Bodies, BodyOutput{
			Name:       b.Body.String(),
			Sign:       b.Sign.String(),
			Degree:     trunc4(b.DegreeInSign),
			Longitude:  trunc4(b.Longitude),
			House:      houses.HouseOf(b.Longitude, c.Houses),
			Retrograde: b.Retrograde,
			Symbol:     b.Body.Symbol(),
		})
	}

	for _, a := range res.Aspects {
		out.Aspects = append(out.Aspects, AspectOutput{
			BodyA:    a.BodyA.String(),
			BodyB:    a.BodyB.String(),
			Type:     a.Type.String(),
			Orb:      math.Round(a.OrbDelta*1e4) / 1e4,
			Applying: a.Applying,
		})
	}

	return out
}

// trunc4 trims display precision without ever reaching an upper bound (30°, 360°, 1.0).
// House assignment uses the unrounded values.
func trunc4(v float64) float64 {
	return math.Floor(v*1e4) / 1e4
}
