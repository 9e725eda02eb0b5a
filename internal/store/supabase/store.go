// Package supabase stores influence scores on the players table of a Supabase
// project through its PostgREST API.
package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/internal/store"
	"github.com/wonny/astrobet/pkg/config"
	"github.com/wonny/astrobet/pkg/logger"
)

const playerColumns = "id,external_player_id,full_name,birth_date,birth_time,birth_utc_offset_minutes,birth_latitude,birth_longitude"

const scoreColumns = "id,raw_influence_score,influence_score,influence_profile,influence_updated_at"

// scoreRow is the score part of a players row
type scoreRow struct {
	ID        string  `json:"id"`
	RawScore  float64 `json:"raw_influence_score"`
	Score     float64 `json:"influence_score"`
	Profile   string  `json:"influence_profile"`
	UpdatedAt string  `json:"influence_updated_at"`
}

// transitChunk bounds the rows sent per ephemeris upsert request
const transitChunk = 100

// Store implements contracts.PopulationSource, contracts.ScoreStore,
// contracts.ScoreReader and contracts.TransitStore.
// ⭐ SSOT: Supabase 접근은 여기서만
type Store struct {
	client         *supa.Client
	table          string
	ephemerisTable string
	logger         *logger.Logger
}

// New connects to a Supabase project with a service key
func New(cfg config.SupabaseConfig, log *logger.Logger) (*Store, error) {
	if cfg.URL == "" || cfg.ServiceKey == "" {
		return nil, fmt.Errorf("%w: supabase url and service key are required", contracts.ErrFatalConfiguration)
	}

	client, err := supa.NewClient(cfg.URL, cfg.ServiceKey, &supa.ClientOptions{Schema: cfg.Schema})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}

	ephemerisTable := cfg.EphemerisTable
	if ephemerisTable == "" {
		ephemerisTable = "ephemeris"
	}

	return &Store{
		client:         client,
		table:          cfg.Table,
		ephemerisTable: ephemerisTable,
		logger:         log.WithModule("supabase_store"),
	}, nil
}

// Ping reads a single row to prove the table is reachable with the key
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := s.client.From(s.table).Select("id", "", false).Limit(1, "").Execute()
	if err != nil {
		return fmt.Errorf("supabase ping %s: %w", s.table, err)
	}
	return nil
}

// ListEntities returns every player with chartable birth data, ordered by id
func (s *Store) ListEntities(ctx context.Context) ([]contracts.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []store.PlayerRow
	_, err := s.client.From(s.table).
		Select(playerColumns, "", false).
		Not("birth_date", "is", "null").
		Order("id", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	entities, dropped := store.Entities(rows)
	if len(dropped) > 0 {
		s.logger.WithFields(map[string]interface{}{
			"dropped": len(dropped),
			"sample":  dropped[0],
		}).Warn("Players without usable birth data left out of population")
	}
	return entities, nil
}

// UpsertScore merges the score columns into the player's row (on_conflict=id)
func (s *Store) UpsertScore(ctx context.Context, rec contracts.ScoreRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	row := scoreRow{
		ID:        rec.EntityID,
		RawScore:  rec.RawScore,
		Score:     rec.NormalizedScore,
		Profile:   rec.Profile,
		UpdatedAt: rec.ComputedAt.UTC().Format(time.RFC3339),
	}
	_, _, err := s.client.From(s.table).Upsert(row, "id", "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("upsert influence score %s: %w", rec.EntityID, err)
	}
	return nil
}

// GetScore returns the stored score for a player or contracts.ErrNotFound
func (s *Store) GetScore(ctx context.Context, entityID string) (*contracts.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []scoreRow
	_, err := s.client.From(s.table).
		Select(scoreColumns, "", false).
		Eq("id", entityID).
		Not("influence_score", "is", "null").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("get influence score: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("score for %s: %w", entityID, contracts.ErrNotFound)
	}

	rec, err := rows[0].record()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// TopScores returns the highest scores, ties broken by id
func (s *Store) TopScores(ctx context.Context, limit int) ([]contracts.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := contracts.ValidateLimit(limit); err != nil {
		return nil, err
	}

	var rows []scoreRow
	_, err := s.client.From(s.table).
		Select(scoreColumns, "", false).
		Not("influence_score", "is", "null").
		Order("influence_score", &postgrest.OrderOpts{Ascending: false}).
		Order("id", &postgrest.OrderOpts{Ascending: true}).
		Limit(limit, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("query top scores: %w", err)
	}

	records := make([]contracts.ScoreRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.record()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// UpsertTransits writes daily transit rows in chunks (on_conflict=date)
func (s *Store) UpsertTransits(ctx context.Context, days []contracts.DailyTransit) error {
	for start := 0; start < len(days); start += transitChunk {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+transitChunk, len(days))
		rows := make([]store.TransitRow, 0, end-start)
		for _, d := range days[start:end] {
			rows = append(rows, store.NewTransitRow(d))
		}

		_, _, err := s.client.From(s.ephemerisTable).Upsert(rows, "date", "minimal", "").Execute()
		if err != nil {
			return fmt.Errorf("upsert transits %s..%s: %w", rows[0].Date, rows[len(rows)-1].Date, err)
		}
	}
	return nil
}

func (r scoreRow) record() (contracts.ScoreRecord, error) {
	at, err := time.Parse(time.RFC3339, r.UpdatedAt)
	if err != nil {
		return contracts.ScoreRecord{}, fmt.Errorf("parse influence_updated_at %q: %w", r.UpdatedAt, err)
	}
	return contracts.ScoreRecord{
		EntityID:        r.ID,
		RawScore:        r.RawScore,
		NormalizedScore: r.Score,
		Profile:         r.Profile,
		ComputedAt:      at,
	}, nil
}
