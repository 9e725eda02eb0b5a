// Package transits builds the day-by-day transit table: moon phase, body signs,
// Mercury's direction and the aspects in the sky at 00:00 UTC of each day.
package transits

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/astrobet/internal/aspects"
	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/internal/ephemeris"
	"github.com/wonny/astrobet/pkg/logger"
)

// Year bounds accepted by Year
const (
	MinYear = 1
	MaxYear = 9999
)

// Generator computes DailyTransit rows.
// ⭐ SSOT: 일별 트랜짓 계산은 여기서만
type Generator struct {
	positions *ephemeris.Calculator
	detector  *aspects.Detector
	logger    *logger.Logger
}

// NewGenerator creates a generator. The calculator's zodiac mode and body set
// decide the signs and aspects of every row.
func NewGenerator(log *logger.Logger, positions *ephemeris.Calculator, detector *aspects.Detector) *Generator {
	return &Generator{
		positions: positions,
		detector:  detector,
		logger:    log.WithModule("transits"),
	}
}

// Day computes the row for the calendar day containing t (UTC)
func (g *Generator) Day(t time.Time) contracts.DailyTransit {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	bodies := g.positions.PositionsAt(midnight)
	return contracts.DailyTransit{
		Date:      midnight,
		MoonPhase: ephemeris.MoonPhaseAt(ephemeris.JulianDay(midnight)),
		Bodies:    bodies,
		Aspects:   g.detector.Detect(bodies),
	}
}

// Range computes every day from..to inclusive, checking ctx between days
func (g *Generator) Range(ctx context.Context, from, to time.Time) ([]contracts.DailyTransit, error) {
	from, to = from.UTC(), to.UTC()
	if to.Before(from) {
		return nil, contracts.NewValidationError(contracts.ErrInvalidInput, "to",
			fmt.Sprintf("%s is before %s", to.Format(contracts.DateLayout), from.Format(contracts.DateLayout)))
	}

	days := make([]contracts.DailyTransit, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("transits cancelled at %s: %w", d.Format(contracts.DateLayout), err)
		}
		days = append(days, g.Day(d))
	}

	g.logger.WithFields(map[string]interface{}{
		"from": from.Format(contracts.DateLayout),
		"to":   to.Format(contracts.DateLayout),
		"days": len(days),
	}).Info("Generated daily transits")
	return days, nil
}

// Year computes Jan 1 through Dec 31 of year
func (g *Generator) Year(ctx context.Context, year int) ([]contracts.DailyTransit, error) {
	if year < MinYear || year > MaxYear {
		return nil, contracts.NewValidationError(contracts.ErrInvalidInput, "year",
			fmt.Sprintf("%d out of range [%d,%d]", year, MinYear, MaxYear))
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return g.Range(ctx, from, to)
}

// RetrogradePeriods groups consecutive days on which body moved backwards.
// Each period is [first, last] retrograde day.
func RetrogradePeriods(days []contracts.DailyTransit, body contracts.Body) [][2]time.Time {
	var (
		out   [][2]time.Time
		start time.Time
		prev  time.Time
		open  bool
	)
	for _, d := range days {
		cb, ok := d.Position(body)
		if ok && cb.Retrograde {
			if !open {
				start, open = d.Date, true
			}
			prev = d.Date
			continue
		}
		if open {
			out = append(out, [2]time.Time{start, prev})
			open = false
		}
	}
	if open {
		out = append(out, [2]time.Time{start, prev})
	}
	return out
}
