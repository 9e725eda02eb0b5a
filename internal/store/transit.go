package store

import (
	"fmt"
	"strings"

	"github.com/wonny/astrobet/internal/contracts"
)

// TransitBodies are the bodies with a sign column in the ephemeris table
var TransitBodies = []contracts.Body{
	contracts.Sun, contracts.Moon, contracts.Mercury, contracts.Venus,
	contracts.Mars, contracts.Jupiter, contracts.Saturn,
}

// TransitAspect is one entry of the aspects JSON column
type TransitAspect struct {
	Pair     string  `json:"pair"` // e.g. sun_mars
	Type     string  `json:"type"`
	Orb      float64 `json:"orb"`
	Applying bool    `json:"applying"`
}

// TransitRow is one row of the ephemeris table as both drivers write it
type TransitRow struct {
	Date              string          `json:"date"`
	MoonPhase         float64         `json:"moon_phase"`
	SunSign           *string         `json:"sun_sign"`
	MoonSign          *string         `json:"moon_sign"`
	MercurySign       *string         `json:"mercury_sign"`
	VenusSign         *string         `json:"venus_sign"`
	MarsSign          *string         `json:"mars_sign"`
	JupiterSign       *string         `json:"jupiter_sign"`
	SaturnSign        *string         `json:"saturn_sign"`
	MercuryRetrograde bool            `json:"mercury_retrograde"`
	Aspects           []TransitAspect `json:"aspects"`
}

// NewTransitRow flattens a day. Untracked bodies leave their sign column null.
func NewTransitRow(d contracts.DailyTransit) TransitRow {
	sign := func(b contracts.Body) *string {
		cb, ok := d.Position(b)
		if !ok {
			return nil
		}
		s := cb.Sign.String()
		return &s
	}

	row := TransitRow{
		Date:              d.Day(),
		MoonPhase:         d.MoonPhase,
		SunSign:           sign(contracts.Sun),
		MoonSign:          sign(contracts.Moon),
		MercurySign:       sign(contracts.Mercury),
		VenusSign:         sign(contracts.Venus),
		MarsSign:          sign(contracts.Mars),
		JupiterSign:       sign(contracts.Jupiter),
		SaturnSign:        sign(contracts.Saturn),
		MercuryRetrograde: d.MercuryRetrograde(),
		Aspects:           make([]TransitAspect, 0, len(d.Aspects)),
	}
	for _, a := range d.Aspects {
		row.Aspects = append(row.Aspects, TransitAspect{
			Pair:     PairKey(a.BodyA, a.BodyB),
			Type:     a.Type.String(),
			Orb:      a.OrbDelta,
			Applying: a.Applying,
		})
	}
	return row
}

// PairKey names an aspect pair the way the table does (sun_mars)
func PairKey(a, b contracts.Body) string {
	return fmt.Sprintf("%s_%s", strings.ToLower(a.String()), strings.ToLower(b.String()))
}
