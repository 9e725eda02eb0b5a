package contracts

import (
	"context"
	"time"
)

// DateLayout is the calendar-day key of the transit table
const DateLayout = "2006-01-02"

// DailyTransit is the sky at 00:00 UTC on one calendar day.
// ⭐ SSOT: 일별 트랜짓 테이블 행
type DailyTransit struct {
	Date      time.Time       `json:"date"`
	MoonPhase float64         `json:"moonPhase"`
	Bodies    []CelestialBody `json:"bodies"`
	Aspects   []Aspect        `json:"aspects"`
}

// Day formats Date as YYYY-MM-DD
func (d DailyTransit) Day() string {
	return d.Date.UTC().Format(DateLayout)
}

// Position returns the body's position if it was tracked that day
func (d DailyTransit) Position(b Body) (CelestialBody, bool) {
	for _, cb := range d.Bodies {
		if cb.Body == b {
			return cb, true
		}
	}
	return CelestialBody{}, false
}

// MercuryRetrograde reports Mercury's apparent motion that day
func (d DailyTransit) MercuryRetrograde() bool {
	cb, ok := d.Position(Mercury)
	return ok && cb.Retrograde
}

// TransitStore persists daily transit rows keyed by date; rewriting a day replaces it
type TransitStore interface {
	UpsertTransits(ctx context.Context, days []DailyTransit) error
}
