package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/internal/scoring"
)

// SourceName identifies records read from the local stats table
const SourceName = "db"

// statColumns maps nba_player_season_stats columns to feature names
var statColumns = []struct {
	column  string
	feature string
}{
	{"games_played", "games_played"},
	{"minutes", "minutes"},
	{"points", "points"},
	{"rebounds", "rebounds"},
	{"assists", "assists"},
	{"steals", "steals"},
	{"blocks", "blocks"},
	{"turnovers", "turnovers"},
	{"personal_fouls", "personal_fouls"},
	{"plus_minus", "plus_minus"},
	{"field_goal_pct", "field_goal_pct"},
	{"three_point_pct", "three_point_pct"},
	{"free_throw_pct", "free_throw_pct"},
}

// StatsRepository implements contracts.StatisticsSource over synced season totals
type StatsRepository struct {
	pool   *pgxpool.Pool
	season string
}

// NewStatsRepository creates a stats source for a season ("current" = latest synced)
func NewStatsRepository(pool *pgxpool.Pool, season string) *StatsRepository {
	return &StatsRepository{pool: pool, season: season}
}

// Name returns the source name
func (r *StatsRepository) Name() string {
	return SourceName
}

// FetchStatistics returns per-game records for the configured season
func (r *StatsRepository) FetchStatistics(ctx context.Context) ([]contracts.StatisticRecord, error) {
	rows, err := r.pool.Query(ctx, statsQuery(), r.season)
	if err != nil {
		return nil, fmt.Errorf("query season stats: %w", err)
	}
	defer rows.Close()

	var records []contracts.StatisticRecord
	for rows.Next() {
		var (
			externalID string
			name       string
			values     = make([]*float64, len(statColumns))
		)
		dest := []interface{}{&externalID, &name}
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan season stats: %w", err)
		}
		records = append(records, toRecord(externalID, name, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate season stats: %w", err)
	}

	return records, nil
}

func statsQuery() string {
	cols := make([]string, len(statColumns))
	for i, c := range statColumns {
		cols[i] = "s." + c.column + "::double precision"
	}

	return fmt.Sprintf(`
		SELECT s.external_player_id, COALESCE(p.full_name, ''), %s
		FROM nba_player_season_stats s
		LEFT JOIN nba_players p ON p.external_player_id = s.external_player_id
		WHERE s.season = CASE
			WHEN $1 = 'current' THEN (SELECT MAX(season) FROM nba_player_season_stats)
			ELSE $1
		END
		ORDER BY s.external_player_id
	`, strings.Join(cols, ", "))
}

// toRecord builds a per-game record; nil values stay absent
func toRecord(externalID, name string, values []*float64) contracts.StatisticRecord {
	rec := contracts.StatisticRecord{
		ExternalID: externalID,
		Name:       name,
		Source:     SourceName,
		Features:   make(map[string]*float64, len(values)),
	}
	for i, v := range values {
		rec.Features[statColumns[i].feature] = v
	}
	return scoring.FromSeasonTotals(rec, "games_played")
}
