package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/internal/store"
)

// TransitRepository implements contracts.TransitStore on the ephemeris table
// ⭐ SSOT: 일별 트랜짓 저장은 여기서만 (date 기준 upsert)
type TransitRepository struct {
	pool *pgxpool.Pool
}

// NewTransitRepository creates a new transit repository
func NewTransitRepository(pool *pgxpool.Pool) *TransitRepository {
	return &TransitRepository{pool: pool}
}

const upsertTransitSQL = `
	INSERT INTO ephemeris
		(date, moon_phase, sun_sign, moon_sign, mercury_sign, venus_sign, mars_sign,
		 jupiter_sign, saturn_sign, mercury_retrograde, aspects, updated_at)
	VALUES ($1::date, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, NOW())
	ON CONFLICT (date) DO UPDATE SET
		moon_phase = EXCLUDED.moon_phase,
		sun_sign = EXCLUDED.sun_sign,
		moon_sign = EXCLUDED.moon_sign,
		mercury_sign = EXCLUDED.mercury_sign,
		venus_sign = EXCLUDED.venus_sign,
		mars_sign = EXCLUDED.mars_sign,
		jupiter_sign = EXCLUDED.jupiter_sign,
		saturn_sign = EXCLUDED.saturn_sign,
		mercury_retrograde = EXCLUDED.mercury_retrograde,
		aspects = EXCLUDED.aspects,
		updated_at = EXCLUDED.updated_at`

// UpsertTransits writes every day in one batch; rerunning a year rewrites it in place
func (r *TransitRepository) UpsertTransits(ctx context.Context, days []contracts.DailyTransit) error {
	if len(days) == 0 {
		return nil
	}

	batch, err := transitBatch(days)
	if err != nil {
		return err
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, d := range days {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert transit %s: %w", d.Day(), err)
		}
	}
	return nil
}

func transitBatch(days []contracts.DailyTransit) (*pgx.Batch, error) {
	batch := &pgx.Batch{}
	for _, d := range days {
		row := store.NewTransitRow(d)
		aspects, err := json.Marshal(row.Aspects)
		if err != nil {
			return nil, fmt.Errorf("encode aspects %s: %w", row.Date, err)
		}
		batch.Queue(upsertTransitSQL,
			row.Date, row.MoonPhase,
			row.SunSign, row.MoonSign, row.MercurySign, row.VenusSign,
			row.MarsSign, row.JupiterSign, row.SaturnSign,
			row.MercuryRetrograde, string(aspects),
		)
	}
	return batch, nil
}
