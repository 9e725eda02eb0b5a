package scoring

import "github.com/wonny/astrobet/internal/contracts"

// CountingFeatures are season totals that become per-game averages
var CountingFeatures = []string{
	"points", "rebounds", "assists", "steals", "blocks",
	"turnovers", "personal_fouls", "minutes", "plus_minus",
}

// PercentageFeatures are shooting percentages, stored as fractions
var PercentageFeatures = []string{"field_goal_pct", "three_point_pct", "free_throw_pct"}

// FromSeasonTotals converts a record of season totals into the per-game form the
// profile scales expect. Counting features become absent when games is missing
// or zero; percentages given on a 0-100 scale become fractions. The input is not modified.
// ⭐ SSOT: 시즌 누적 → 경기당 변환은 여기서만
func FromSeasonTotals(r contracts.StatisticRecord, gamesFeature string) contracts.StatisticRecord {
	out := contracts.StatisticRecord{
		ExternalID: r.ExternalID,
		Name:       r.Name,
		Source:     r.Source,
		Features:   make(map[string]*float64, len(r.Features)),
	}
	for k, v := range r.Features {
		if v == nil {
			out.Features[k] = nil
			continue
		}
		out.Set(k, *v)
	}

	games, ok := r.Feature(gamesFeature)
	for _, name := range CountingFeatures {
		total, present := r.Feature(name)
		if !present {
			continue
		}
		if !ok || games <= 0 {
			out.Features[name] = nil
			continue
		}
		out.Set(name, total/games)
	}

	normalizePercentages(&out)
	return out
}

// FromAverages prepares a record that already holds per-game averages:
// only percentages are rescaled. The input is not modified.
func FromAverages(r contracts.StatisticRecord) contracts.StatisticRecord {
	out := contracts.StatisticRecord{
		ExternalID: r.ExternalID,
		Name:       r.Name,
		Source:     r.Source,
		Features:   make(map[string]*float64, len(r.Features)),
	}
	for k, v := range r.Features {
		out.Features[k] = v
	}
	normalizePercentages(&out)
	return out
}

// normalizePercentages turns 0-100 percentages into fractions
func normalizePercentages(r *contracts.StatisticRecord) {
	for _, name := range PercentageFeatures {
		if pct, present := r.Feature(name); present && pct > 1 {
			r.Set(name, pct/100)
		}
	}
}
