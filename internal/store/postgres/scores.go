package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/astrobet/internal/contracts"
)

// ScoreRepository implements contracts.ScoreStore and contracts.ScoreReader
// ⭐ SSOT: 점수 저장은 여기서만 (entity_id 기준 upsert)
type ScoreRepository struct {
	pool *pgxpool.Pool
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// Ping verifies the store is reachable
func (r *ScoreRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// UpsertScore writes one record in a single statement; the last write wins
func (r *ScoreRepository) UpsertScore(ctx context.Context, rec contracts.ScoreRecord) error {
	query := `
		INSERT INTO influence_scores (entity_id, raw_score, influence_score, profile, influence_updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (entity_id) DO UPDATE SET
			raw_score = EXCLUDED.raw_score,
			influence_score = EXCLUDED.influence_score,
			profile = EXCLUDED.profile,
			influence_updated_at = EXCLUDED.influence_updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		rec.EntityID, rec.RawScore, rec.NormalizedScore, rec.Profile, rec.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert influence score: %w", err)
	}
	return nil
}

// GetScore returns the latest record for an entity or contracts.ErrNotFound
func (r *ScoreRepository) GetScore(ctx context.Context, entityID string) (*contracts.ScoreRecord, error) {
	query := `
		SELECT entity_id, raw_score, influence_score, profile, influence_updated_at
		FROM influence_scores
		WHERE entity_id = $1
	`

	var rec contracts.ScoreRecord
	err := r.pool.QueryRow(ctx, query, entityID).Scan(
		&rec.EntityID, &rec.RawScore, &rec.NormalizedScore, &rec.Profile, &rec.ComputedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("score for %s: %w", entityID, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get influence score: %w", err)
	}
	return &rec, nil
}

// TopScores returns the highest scores, ties broken by entity id
func (r *ScoreRepository) TopScores(ctx context.Context, limit int) ([]contracts.ScoreRecord, error) {
	if err := contracts.ValidateLimit(limit); err != nil {
		return nil, err
	}

	query := `
		SELECT entity_id, raw_score, influence_score, profile, influence_updated_at
		FROM influence_scores
		ORDER BY influence_score DESC, entity_id ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query top scores: %w", err)
	}
	defer rows.Close()

	records := make([]contracts.ScoreRecord, 0, limit)
	for rows.Next() {
		var rec contracts.ScoreRecord
		if err := rows.Scan(&rec.EntityID, &rec.RawScore, &rec.NormalizedScore, &rec.Profile, &rec.ComputedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
