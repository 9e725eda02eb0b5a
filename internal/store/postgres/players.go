// Package postgres implements the population, statistics and score stores on pgx.
//
// Tables (public schema):
//
//	nba_players              id, external_player_id, full_name, birth_date, birth_time,
//	                         birth_utc_offset_minutes, birth_latitude, birth_longitude
//	nba_player_season_stats  external_player_id, season, games_played, points, ... (season totals)
//	influence_scores         entity_id (PK), raw_score, influence_score, profile, influence_updated_at
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/internal/store"
	"github.com/wonny/astrobet/pkg/logger"
)

// PlayerRepository implements contracts.PopulationSource
// ⭐ SSOT: 선수 모집단 조회는 여기서만
type PlayerRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(pool *pgxpool.Pool, log *logger.Logger) *PlayerRepository {
	return &PlayerRepository{
		pool:   pool,
		logger: log.WithModule("player_repository"),
	}
}

// ListEntities returns every player with chartable birth data, ordered by id.
// Players missing a birth date or birthplace coordinates are left out.
func (r *PlayerRepository) ListEntities(ctx context.Context) ([]contracts.Entity, error) {
	query := `
		SELECT id, external_player_id, COALESCE(full_name, ''),
		       to_char(birth_date, 'YYYY-MM-DD'), to_char(birth_time, 'HH24:MI'),
		       birth_utc_offset_minutes, birth_latitude, birth_longitude
		FROM nba_players
		WHERE birth_date IS NOT NULL
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	var players []store.PlayerRow
	for rows.Next() {
		var p store.PlayerRow
		if err := rows.Scan(
			&p.ID, &p.ExternalID, &p.Name,
			&p.BirthDate, &p.BirthTime,
			&p.UTCOffsetMinutes, &p.Latitude, &p.Longitude,
		); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}

	entities, dropped := store.Entities(players)
	if len(dropped) > 0 {
		r.logger.WithFields(map[string]interface{}{
			"dropped": len(dropped),
			"sample":  dropped[0],
		}).Warn("Players without usable birth data left out of population")
	}

	return entities, nil
}
